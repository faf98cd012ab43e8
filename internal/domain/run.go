package domain

import "time"

// RunStatus represents the lifecycle state of a scenario run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"   // Queued, not yet started
	RunStatusRunning   RunStatus = "running"   // Engine process in flight
	RunStatusCompleted RunStatus = "completed" // Engine finished, outputs collected
	RunStatusFailed    RunStatus = "failed"    // Engine or extraction error
	RunStatusCanceled  RunStatus = "canceled"  // Batch was interrupted
)

// Terminal reports whether the status is a final state
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCanceled:
		return true
	}
	return false
}

// Run is one execution of the engine for one scenario. Every attempt
// gets its own Run row in the ledger; the scenario name is not unique
// across the table.
type Run struct {
	ID         string     `json:"id"`
	Scenario   Scenario   `json:"scenario"`
	Engine     string     `json:"engine"`
	Status     RunStatus  `json:"status"`
	OutputDir  string     `json:"output_dir"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	// Error holds the terminal failure message for failed runs
	Error string `json:"error,omitempty"`
}

// Duration returns the wall-clock run time, or zero if not finished
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// MarkRunning transitions the run to running and stamps the start time
func (r *Run) MarkRunning(t time.Time) {
	r.Status = RunStatusRunning
	r.StartedAt = &t
}

// MarkCompleted transitions the run to completed and stamps the finish time
func (r *Run) MarkCompleted(t time.Time) {
	r.Status = RunStatusCompleted
	r.FinishedAt = &t
}

// MarkFailed transitions the run to failed with the given cause
func (r *Run) MarkFailed(t time.Time, cause string) {
	r.Status = RunStatusFailed
	r.FinishedAt = &t
	r.Error = cause
}

// MarkCanceled transitions the run to canceled
func (r *Run) MarkCanceled(t time.Time) {
	r.Status = RunStatusCanceled
	r.FinishedAt = &t
}

// BatchSummary aggregates terminal run states for one batch invocation
type BatchSummary struct {
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Canceled  int           `json:"canceled"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Add counts a terminal run into the summary
func (b *BatchSummary) Add(status RunStatus) {
	b.Total++
	switch status {
	case RunStatusCompleted:
		b.Completed++
	case RunStatusFailed:
		b.Failed++
	case RunStatusCanceled:
		b.Canceled++
	}
}

// Clean reports whether every run in the batch completed
func (b *BatchSummary) Clean() bool {
	return b.Total > 0 && b.Completed == b.Total
}
