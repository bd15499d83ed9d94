package history

import "time"

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Run is one pipeline invocation in the ledger.
type Run struct {
	ID           string
	SourceURL    string
	TimeRange    string
	OutputPath   string
	Status       Status
	FailedStage  string
	ErrorKind    string
	ErrorMessage string
	ExitCode     int
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Duration is the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome describes how a run ended.
type Outcome struct {
	Status       Status
	FailedStage  string
	ErrorKind    string
	ErrorMessage string
	ExitCode     int
	FinishedAt   time.Time
}
