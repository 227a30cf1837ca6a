package run

import "time"

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run records one crawl-and-reconcile pass.
type Run struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"runId"`
	Source      string    `json:"source"`
	BaseURL     string    `json:"baseUrl"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Pages       int       `json:"pages"`
	FailedPages int       `json:"failedPages"`
	NewCount    int       `json:"newCount"`
	OpenCount   int       `json:"openCount"`
	ClosedCount int       `json:"closedCount"`
	StartedAt   time.Time `json:"startedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
