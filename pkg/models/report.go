package models

import (
	"fmt"
	"time"
)

// SyncReport represents the results of a sync operation.
// Counters are additive: recursive passes build their own report and
// Merge it into their parent's.
type SyncReport struct {
	// Operation details
	OperationID string
	LocalPath   string
	RemotePath  string
	Direction   Direction
	DryRun      bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Counters
	Uploaded   int
	Downloaded int
	Skipped    int
	Ignored    int

	// Errors holds one "<path>: <message>" line per failed entry
	Errors []string

	// Overall status
	Status SyncStatus
}

// SyncStatus represents the overall result
type SyncStatus string

const (
	// StatusSuccess indicates all entries were processed without error
	StatusSuccess SyncStatus = "success"
	// StatusPartial indicates some entries failed
	StatusPartial SyncStatus = "partial"
	// StatusFailed indicates the sync aborted
	StatusFailed SyncStatus = "failed"
)

// AddError records a failure for one entry
func (r *SyncReport) AddError(path string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", path, err))
}

// Merge adds the counters and errors of other into r
func (r *SyncReport) Merge(other *SyncReport) {
	if other == nil {
		return
	}
	r.Uploaded += other.Uploaded
	r.Downloaded += other.Downloaded
	r.Skipped += other.Skipped
	r.Ignored += other.Ignored
	r.Errors = append(r.Errors, other.Errors...)
}

// Finish stamps the end time and derives the status
func (r *SyncReport) Finish(end time.Time) {
	r.EndTime = end
	if !r.StartTime.IsZero() {
		r.Duration = end.Sub(r.StartTime)
	}
	if len(r.Errors) > 0 {
		r.Status = StatusPartial
	} else {
		r.Status = StatusSuccess
	}
}

// ExitCode returns the appropriate exit code for the sync status
func (s SyncStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	default:
		return 2
	}
}
