package history

import "time"

// RunStatus is the lifecycle state of a batch run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	// RunAborted marks a run that stopped before every chart was attempted
	// (cancelled, or the output lock could not be kept).
	RunAborted RunStatus = "aborted"
)

// Status is the outcome of one chart.
type Status string

const (
	StatusConverted Status = "converted"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Run is one batch invocation.
type Run struct {
	ID         string
	Status     RunStatus
	Workers    int
	Filters    string
	StartedAt  time.Time
	FinishedAt *time.Time
	Total      int
	Converted  int
	Failed     int
	Skipped    int
	Warnings   int
}

// Elapsed returns the run duration, or zero while the run is still open.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Result is the outcome of one chart within a run.
type Result struct {
	ID          int64
	RunID       string
	ChartID     string
	SongID      int
	Difficulty  string
	SourcePath  string
	Status      Status
	ErrorKind   string
	Message     string
	Duration    time.Duration
	Warnings    int
	OutputPath  string
	OutputBytes int64
	RecordedAt  time.Time
}

// ResultFilter narrows Results queries. Zero values match everything.
type ResultFilter struct {
	RunID      string
	FailedOnly bool
	Limit      int
}
