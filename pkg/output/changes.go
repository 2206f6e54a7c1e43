package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sdejongh/ftpsync/pkg/models"
)

// ChangeRecorder is a sync observer keeping the entries that were, or in a
// dry run would be, transferred or that failed
type ChangeRecorder struct {
	mu      sync.Mutex
	changes []models.FileEvent
}

// NewChangeRecorder creates an empty recorder
func NewChangeRecorder() *ChangeRecorder {
	return &ChangeRecorder{}
}

// Observe records transfers and errors and drops everything else
func (r *ChangeRecorder) Observe(event models.FileEvent) {
	switch event.Action {
	case models.ActionUpload, models.ActionDownload, models.ActionError:
	default:
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, event)
}

// Changes returns the recorded events in order
func (r *ChangeRecorder) Changes() []models.FileEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.FileEvent(nil), r.changes...)
}

// WriteChangesReport writes the changes report to a file
// Format can be "human" or "json"
func WriteChangesReport(report *models.SyncReport, changes []models.FileEvent, path string, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create changes file: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		return writeChangesJSON(report, changes, file)
	default: // "human"
		return writeChangesHuman(report, changes, file)
	}
}

// writeChangesHuman writes changes grouped by action
func writeChangesHuman(report *models.SyncReport, changes []models.FileEvent, w io.Writer) error {
	fmt.Fprintf(w, "Changes Report\n")
	fmt.Fprintf(w, "==============\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Local: %s\n", report.LocalPath)
	fmt.Fprintf(w, "Remote: %s\n", report.RemotePath)
	fmt.Fprintf(w, "Direction: %s\n", report.Direction)
	fmt.Fprintf(w, "Dry Run: %v\n\n", report.DryRun)

	fmt.Fprintf(w, "Total Changes: %d\n\n", len(changes))

	byAction := make(map[models.Action][]models.FileEvent)
	for _, change := range changes {
		byAction[change.Action] = append(byAction[change.Action], change)
	}

	actionOrder := []models.Action{models.ActionError, models.ActionUpload, models.ActionDownload}
	actionLabels := map[models.Action]string{
		models.ActionError:    "Errors",
		models.ActionUpload:   "Uploads",
		models.ActionDownload: "Downloads",
	}

	for _, action := range actionOrder {
		events := byAction[action]
		if len(events) == 0 {
			continue
		}

		label := fmt.Sprintf("%s (%d files)", actionLabels[action], len(events))
		fmt.Fprintf(w, "%s\n", label)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))

		for _, event := range events {
			fmt.Fprintf(w, "  %s", event.RelativePath)
			if event.Size > 0 {
				fmt.Fprintf(w, " (%s)", formatBytes(event.Size))
			}
			fmt.Fprintf(w, "\n")
			if event.Reason != "" {
				fmt.Fprintf(w, "    Reason: %s\n", event.Reason)
			}
			if event.Err != nil {
				fmt.Fprintf(w, "    Error:  %v\n", event.Err)
			}
		}

		fmt.Fprintf(w, "\n")
	}

	return nil
}

// writeChangesJSON writes changes in JSON format
func writeChangesJSON(report *models.SyncReport, changes []models.FileEvent, w io.Writer) error {
	events := make([]JSONEventData, 0, len(changes))
	for _, change := range changes {
		events = append(events, EventData(change))
	}

	output := struct {
		Generated  string          `json:"generated"`
		LocalPath  string          `json:"local_path"`
		RemotePath string          `json:"remote_path"`
		Direction  string          `json:"direction"`
		DryRun     bool            `json:"dry_run"`
		TotalCount int             `json:"total_count"`
		Changes    []JSONEventData `json:"changes"`
	}{
		Generated:  time.Now().Format(time.RFC3339),
		LocalPath:  report.LocalPath,
		RemotePath: report.RemotePath,
		Direction:  string(report.Direction),
		DryRun:     report.DryRun,
		TotalCount: len(changes),
		Changes:    events,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
