package task

import "time"

// Status is the lifecycle state of a download task.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCanceled    Status = "canceled"
)

// IsFinished returns true once the task reached a terminal state.
func (s Status) IsFinished() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// Task is one download request tracked by the store.
type Task struct {
	ID        string    `json:"task_id"`
	URL       string    `json:"-"`
	FormatID  string    `json:"-"`
	Status    Status    `json:"status"`
	Percent   float64   `json:"percent"`
	Filename  string    `json:"filename,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
