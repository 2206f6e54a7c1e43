package compare

import (
	"fmt"
	"time"
)

// TimestampComparator implements newer-wins: the source is transferred when
// the destination is missing or strictly older.
//
// A destination without a modification time is always overwritten. A source
// without one never overwrites an existing destination.
type TimestampComparator struct {
	// Precision both times are truncated to before comparing. SFTP carries
	// whole seconds, so finer local times would otherwise always look newer.
	Precision time.Duration
}

// NewTimestampComparator creates a comparator with one second precision
func NewTimestampComparator() *TimestampComparator {
	return &TimestampComparator{Precision: time.Second}
}

// Compare applies newer-wins to source and dest
func (c *TimestampComparator) Compare(source, dest FileState) *Comparison {
	cmp := &Comparison{
		SourcePath: source.Path,
		DestPath:   dest.Path,
	}

	switch {
	case !dest.Exists:
		cmp.Result = SourceOnly
		cmp.Reason = "file exists only in source"
	case dest.ModTime.IsZero():
		cmp.Result = DestUnknown
		cmp.Reason = "destination modification time is unknown"
	case source.ModTime.IsZero():
		cmp.Result = Same
		cmp.Reason = "source modification time is unknown"
	case c.truncate(source.ModTime).After(c.truncate(dest.ModTime)):
		cmp.Result = SourceNewer
		cmp.Reason = fmt.Sprintf("source is newer (source: %s, dest: %s)",
			source.ModTime.Format("2006-01-02 15:04:05"), dest.ModTime.Format("2006-01-02 15:04:05"))
	default:
		cmp.Result = Same
		cmp.Reason = "destination is up to date"
	}

	return cmp
}

func (c *TimestampComparator) truncate(t time.Time) time.Time {
	if c.Precision <= 0 {
		return t
	}
	return t.Truncate(c.Precision)
}

// Name returns the comparator name
func (c *TimestampComparator) Name() string {
	return "timestamp"
}
