package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/sdejongh/ftpsync/pkg/deploy"
	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

// Formatter defines the interface for output formatting
// Implementations include human-readable and JSON formatters
type Formatter interface {
	// Event reports one sync decision as it happens
	Event(w io.Writer, event models.FileEvent) error

	// Report displays the summary of a sync or deployment
	Report(w io.Writer, report *models.SyncReport) error

	// Entries displays a flat listing
	Entries(w io.Writer, entries []storage.Entry) error

	// Tree displays a recursive listing rooted at root
	Tree(w io.Writer, root string, entries []storage.Entry) error

	// Stat displays the metadata of one entry
	Stat(w io.Writer, entry storage.Entry) error

	// Exists displays the result of an existence check
	Exists(w io.Writer, path string, exists bool) error

	// DiskUsage displays space figures
	DiskUsage(w io.Writer, path string, usage storage.DiskUsage) error

	// Deployments displays the configured deployments
	Deployments(w io.Writer, deployments []deploy.Summary) error

	// Done confirms a completed single-path operation
	Done(w io.Writer, action, path string) error

	// Error reports a failed command
	Error(w io.Writer, err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter for format, "human" or "json"
func New(format string, colored bool) (Formatter, error) {
	switch format {
	case "human", "":
		return NewHumanFormatter(colored), nil
	case "json":
		return NewJSONFormatter(), nil
	}
	return nil, storage.NewError(storage.KindConfiguration, "output", "", fmt.Errorf("unknown output format '%s'", format))
}

// IsTerminal reports whether w writes to an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// terminalWidth returns the width of the terminal behind w, or fallback
// when w is a pipe or a file
func terminalWidth(w io.Writer, fallback int) int {
	if file, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return fallback
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatModTime renders a remote modification time, which may be unknown
func formatModTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
