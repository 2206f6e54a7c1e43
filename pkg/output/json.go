package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sdejongh/ftpsync/pkg/deploy"
	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

// JSONFormatter formats output as JSON for automation and scripting.
// Every call writes one indented JSON document.
type JSONFormatter struct{}

// JSONReportData represents the final report data
type JSONReportData struct {
	OperationID string        `json:"operation_id,omitempty"`
	Status      string        `json:"status"`
	ExitCode    int           `json:"exit_code"`
	Direction   string        `json:"direction"`
	Local       string        `json:"local"`
	Remote      string        `json:"remote"`
	DryRun      bool          `json:"dry_run"`
	StartTime   string        `json:"start_time,omitempty"`
	Duration    string        `json:"duration"`
	DurationMs  int64         `json:"duration_ms"`
	Stats       JSONStatsData `json:"stats"`
	Errors      []string      `json:"errors"`
}

// JSONStatsData represents the report counters
type JSONStatsData struct {
	Uploaded   int `json:"uploaded"`
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Ignored    int `json:"ignored"`
	Errored    int `json:"errored"`
}

// JSONEntryData represents a remote entry
type JSONEntryData struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	IsDir       bool   `json:"is_dir"`
	Size        int64  `json:"size"`
	ModTime     string `json:"mod_time,omitempty"`
	Permissions string `json:"permissions,omitempty"`
}

// JSONEventData represents one sync decision
type JSONEventData struct {
	Path   string `json:"path"`
	Action string `json:"action"`
	Size   int64  `json:"size,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// JSONErrorData represents a failed command
type JSONErrorData struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func entryData(e storage.Entry) JSONEntryData {
	data := JSONEntryData{
		Path:        e.Path,
		Name:        e.Name,
		IsDir:       e.IsDir,
		Size:        e.Size,
		Permissions: e.Permissions,
	}
	if e.HasModTime() {
		data.ModTime = e.ModTime.UTC().Format(time.RFC3339)
	}
	return data
}

func entriesData(entries []storage.Entry) []JSONEntryData {
	out := make([]JSONEntryData, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryData(e))
	}
	return out
}

// EventData converts a sync decision to its JSON shape
func EventData(event models.FileEvent) JSONEventData {
	data := JSONEventData{
		Path:   event.RelativePath,
		Action: string(event.Action),
		Size:   event.Size,
		Reason: event.Reason,
	}
	if event.Err != nil {
		data.Error = event.Err.Error()
	}
	return data
}

// Event writes nothing: a JSON document is only produced for the final report
// to keep the output parseable
func (f *JSONFormatter) Event(w io.Writer, event models.FileEvent) error {
	return nil
}

// Report writes the sync summary
func (f *JSONFormatter) Report(w io.Writer, report *models.SyncReport) error {
	data := JSONReportData{
		OperationID: report.OperationID,
		Status:      string(report.Status),
		ExitCode:    report.Status.ExitCode(),
		Direction:   string(report.Direction),
		Local:       report.LocalPath,
		Remote:      report.RemotePath,
		DryRun:      report.DryRun,
		Duration:    report.Duration.Round(time.Millisecond).String(),
		DurationMs:  report.Duration.Milliseconds(),
		Stats: JSONStatsData{
			Uploaded:   report.Uploaded,
			Downloaded: report.Downloaded,
			Skipped:    report.Skipped,
			Ignored:    report.Ignored,
			Errored:    len(report.Errors),
		},
		Errors: report.Errors,
	}
	if !report.StartTime.IsZero() {
		data.StartTime = report.StartTime.UTC().Format(time.RFC3339)
	}
	if data.Errors == nil {
		data.Errors = []string{}
	}
	return encode(w, data)
}

// Entries writes a flat listing as an array
func (f *JSONFormatter) Entries(w io.Writer, entries []storage.Entry) error {
	return encode(w, entriesData(entries))
}

// Tree writes the recursive listing with its root
func (f *JSONFormatter) Tree(w io.Writer, root string, entries []storage.Entry) error {
	return encode(w, struct {
		Root    string          `json:"root"`
		Entries []JSONEntryData `json:"entries"`
	}{root, entriesData(entries)})
}

// Stat writes one entry
func (f *JSONFormatter) Stat(w io.Writer, entry storage.Entry) error {
	return encode(w, entryData(entry))
}

// Exists writes the result of an existence check
func (f *JSONFormatter) Exists(w io.Writer, path string, exists bool) error {
	return encode(w, struct {
		Path   string `json:"path"`
		Exists bool   `json:"exists"`
	}{path, exists})
}

// DiskUsage writes space figures in bytes
func (f *JSONFormatter) DiskUsage(w io.Writer, path string, usage storage.DiskUsage) error {
	return encode(w, struct {
		Path      string `json:"path"`
		Total     uint64 `json:"total"`
		Used      uint64 `json:"used"`
		Free      uint64 `json:"free"`
		Available uint64 `json:"available"`
	}{path, usage.Total, usage.Used, usage.Free, usage.Available})
}

// Deployments writes the configured deployments as an array
func (f *JSONFormatter) Deployments(w io.Writer, deployments []deploy.Summary) error {
	if deployments == nil {
		deployments = []deploy.Summary{}
	}
	return encode(w, deployments)
}

// Done confirms a completed single-path operation
func (f *JSONFormatter) Done(w io.Writer, action, path string) error {
	return encode(w, struct {
		Action string `json:"action"`
		Path   string `json:"path"`
		OK     bool   `json:"ok"`
	}{action, path, true})
}

// Error writes the error message and its kind
func (f *JSONFormatter) Error(w io.Writer, err error) error {
	return encode(w, JSONErrorData{Error: err.Error(), Kind: string(storage.KindOf(err))})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
