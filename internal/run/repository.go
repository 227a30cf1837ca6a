package run

import "context"

type Repository interface {
	Create(ctx context.Context, r *Run) error
	Update(ctx context.Context, r *Run) error
	Get(ctx context.Context, id int64) (*Run, error)
	List(ctx context.Context, source string, status Status) ([]Run, error)
	FailStale(ctx context.Context, reason string) (int64, error)
}
