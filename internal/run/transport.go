package run

import "github.com/Axsh234/mauritius-jobs-webscraping/internal/apperror"

type GetRunRequest struct {
	ID int64
}

func (r GetRunRequest) Validate() *apperror.AppError {
	if r.ID <= 0 {
		return apperror.New(apperror.BadRequest, "invalid run id")
	}
	return nil
}

type ListRunsRequest struct {
	Source string
	Status Status
}

func (r ListRunsRequest) Validate() *apperror.AppError {
	switch r.Status {
	case "", StatusRunning, StatusCompleted, StatusFailed:
		return nil
	default:
		return apperror.New(apperror.BadRequest, "status must be running, completed or failed")
	}
}
