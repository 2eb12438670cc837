package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Report summarizes one download run
type Report struct {
	RunID      string
	Total      int
	Skipped    int
	Downloaded int
	Planned    int
	Errors     []ItemError
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewReport creates an empty report with a fresh run ID
func NewReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Record counts the outcome of one item
func (r *Report) Record(outcome ItemOutcome) {
	switch outcome {
	case ItemDownloaded:
		r.Downloaded++
	case ItemSkipped:
		r.Skipped++
	case ItemPlanned:
		r.Planned++
	}
}

// AddError records a failed item
func (r *Report) AddError(index int, filename string, err error) {
	r.Errors = append(r.Errors, ItemError{Index: index, Filename: filename, Err: err})
}

// Processed returns the number of items handled so far
func (r *Report) Processed() int {
	return r.Downloaded + r.Skipped + r.Planned + len(r.Errors)
}

// HasErrors reports whether any item failed
func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// Duration returns how long the run took, or zero if it has not finished
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary returns a one-line human readable summary
func (r *Report) Summary() string {
	return fmt.Sprintf("%d photos: %d downloaded, %d skipped, %d failed",
		r.Total, r.Downloaded, r.Skipped, len(r.Errors))
}
