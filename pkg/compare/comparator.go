package compare

import "time"

// Result represents the outcome of comparing a source file with its destination
type Result string

const (
	// Same indicates the destination is up to date
	Same Result = "same"
	// SourceNewer indicates the source was modified after the destination
	SourceNewer Result = "source_newer"
	// SourceOnly indicates the file exists only in source
	SourceOnly Result = "source_only"
	// DestUnknown indicates the destination exists but reports no modification time
	DestUnknown Result = "dest_unknown"
)

// FileState describes one side of a comparison
type FileState struct {
	Path    string
	Exists  bool
	Size    int64
	ModTime time.Time // zero when the side does not report it
}

// Comparison holds the result of comparing two files
type Comparison struct {
	SourcePath string
	DestPath   string
	Result     Result
	Reason     string
}

// Transfer reports whether the source must be copied over the destination
func (c *Comparison) Transfer() bool {
	return c.Result != Same
}

// Comparator defines the interface for transfer decisions
type Comparator interface {
	// Compare decides whether source must be copied over dest
	Compare(source, dest FileState) *Comparison

	// Name returns the name of the comparison method
	Name() string
}
