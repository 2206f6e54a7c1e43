package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/sdejongh/ftpsync/internal/platform"
	"github.com/sdejongh/ftpsync/pkg/deploy"
	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	ok    *color.Color
	warn  *color.Color
	fail  *color.Color
	dim   *color.Color
	bold  *color.Color
	dir   *color.Color
	trans *color.Color
}

// NewHumanFormatter creates a new human-readable formatter.
// Colors are only emitted when colored is set.
func NewHumanFormatter(colored bool) *HumanFormatter {
	f := &HumanFormatter{
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		fail:  color.New(color.FgRed, color.Bold),
		dim:   color.New(color.Faint),
		bold:  color.New(color.Bold),
		dir:   color.New(color.FgBlue, color.Bold),
		trans: color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{f.ok, f.warn, f.fail, f.dim, f.bold, f.dir, f.trans} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// Event reports one sync decision
func (f *HumanFormatter) Event(w io.Writer, event models.FileEvent) error {
	var err error
	switch event.Action {
	case models.ActionUpload:
		_, err = fmt.Fprintf(w, "%s %s (%s)\n", f.ok.Sprint("↑"), event.RelativePath, formatBytes(event.Size))
	case models.ActionDownload:
		_, err = fmt.Fprintf(w, "%s %s (%s)\n", f.trans.Sprint("↓"), event.RelativePath, formatBytes(event.Size))
	case models.ActionSkip:
		_, err = fmt.Fprintf(w, "%s\n", f.dim.Sprintf("= %s (%s)", event.RelativePath, event.Reason))
	case models.ActionIgnore:
		_, err = fmt.Fprintf(w, "%s\n", f.dim.Sprintf("- %s (ignored)", event.RelativePath))
	case models.ActionError:
		_, err = fmt.Fprintf(w, "%s %s: %v\n", f.fail.Sprint("✗"), event.RelativePath, event.Err)
	}
	return err
}

// Report displays the summary of a sync
func (f *HumanFormatter) Report(w io.Writer, report *models.SyncReport) error {
	title := "Sync completed"
	if report.DryRun {
		title = "Dry run completed, nothing was transferred"
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s in %s\n", f.bold.Sprint(title), report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Direction:   %s\n", report.Direction)
	fmt.Fprintf(w, "  Local:       %s\n", report.LocalPath)
	fmt.Fprintf(w, "  Remote:      %s\n", report.RemotePath)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Uploaded:    %d\n", report.Uploaded)
	fmt.Fprintf(w, "  Downloaded:  %d\n", report.Downloaded)
	fmt.Fprintf(w, "  Skipped:     %d\n", report.Skipped)
	fmt.Fprintf(w, "  Ignored:     %d\n", report.Ignored)
	fmt.Fprintf(w, "  Errors:      %d\n", len(report.Errors))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", f.status(report.Status))

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, line := range report.Errors {
			fmt.Fprintf(w, "  %s\n", f.fail.Sprint(line))
		}
	}

	return nil
}

func (f *HumanFormatter) status(s models.SyncStatus) string {
	switch s {
	case models.StatusSuccess:
		return f.ok.Sprint(s)
	case models.StatusPartial:
		return f.warn.Sprint(s)
	default:
		return f.fail.Sprint(s)
	}
}

// Entries displays a flat listing in the style of ls -l
func (f *HumanFormatter) Entries(w io.Writer, entries []storage.Entry) error {
	for _, e := range entries {
		kind, size, name := "-", formatBytes(e.Size), e.Name
		if e.IsDir {
			kind, size, name = "d", "-", f.dir.Sprint(e.Name+"/")
		}
		perms := e.Permissions
		if perms == "" {
			perms = "----"
		}
		if _, err := fmt.Fprintf(w, "%s %s %10s  %s  %s\n", kind, perms, size, formatModTime(e.ModTime), name); err != nil {
			return err
		}
	}
	return nil
}

// Tree displays entries indented by depth below root
func (f *HumanFormatter) Tree(w io.Writer, root string, entries []storage.Entry) error {
	fmt.Fprintf(w, "%s\n", f.dir.Sprint(platform.CleanRemote(root)))

	var files, dirs int
	for _, e := range entries {
		rel := platform.RelRemote(root, e.Path)
		indent := strings.Repeat("  ", strings.Count(rel, "/")+1)

		if e.IsDir {
			dirs++
			fmt.Fprintf(w, "%s%s\n", indent, f.dir.Sprint(e.Name+"/"))
			continue
		}
		files++
		fmt.Fprintf(w, "%s%s %s\n", indent, e.Name, f.dim.Sprintf("(%s)", formatBytes(e.Size)))
	}

	_, err := fmt.Fprintf(w, "\n%d directories, %d files\n", dirs, files)
	return err
}

// Stat displays the metadata of one entry
func (f *HumanFormatter) Stat(w io.Writer, entry storage.Entry) error {
	kind := "file"
	if entry.IsDir {
		kind = "directory"
	}
	perms := entry.Permissions
	if perms == "" {
		perms = "unknown"
	}

	fmt.Fprintf(w, "  Path:        %s\n", entry.Path)
	fmt.Fprintf(w, "  Type:        %s\n", kind)
	fmt.Fprintf(w, "  Size:        %s (%d bytes)\n", formatBytes(entry.Size), entry.Size)
	fmt.Fprintf(w, "  Modified:    %s\n", formatModTime(entry.ModTime))
	_, err := fmt.Fprintf(w, "  Permissions: %s\n", perms)
	return err
}

// Exists displays the result of an existence check
func (f *HumanFormatter) Exists(w io.Writer, path string, exists bool) error {
	if exists {
		_, err := fmt.Fprintf(w, "%s %s exists\n", f.ok.Sprint("✓"), path)
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s does not exist\n", f.warn.Sprint("✗"), path)
	return err
}

// DiskUsage displays space figures
func (f *HumanFormatter) DiskUsage(w io.Writer, path string, usage storage.DiskUsage) error {
	fmt.Fprintf(w, "Filesystem of %s\n", path)
	fmt.Fprintf(w, "  Total:       %s\n", formatBytes(int64(usage.Total)))
	fmt.Fprintf(w, "  Used:        %s\n", formatBytes(int64(usage.Used)))
	fmt.Fprintf(w, "  Free:        %s\n", formatBytes(int64(usage.Free)))
	_, err := fmt.Fprintf(w, "  Available:   %s\n", formatBytes(int64(usage.Available)))
	return err
}

// Deployments displays the configured deployments
func (f *HumanFormatter) Deployments(w io.Writer, deployments []deploy.Summary) error {
	if len(deployments) == 0 {
		_, err := fmt.Fprintf(w, "No deployments configured\n")
		return err
	}

	for _, d := range deployments {
		fmt.Fprintf(w, "%s\n", f.bold.Sprint(d.Name))
		if d.Description != "" {
			fmt.Fprintf(w, "  %s\n", d.Description)
		}
		host := d.Host
		if host == "" {
			host = f.warn.Sprint("undefined profile")
		}
		fmt.Fprintf(w, "  Profile:  %s (%s)\n", d.Profile, host)
		fmt.Fprintf(w, "  Paths:    %s -> %s\n", d.Local, d.Remote)
		if len(d.Exclude) > 0 {
			fmt.Fprintf(w, "  Exclude:  %s\n", strings.Join(d.Exclude, ", "))
		}
	}
	return nil
}

// Done confirms a completed single-path operation
func (f *HumanFormatter) Done(w io.Writer, action, path string) error {
	_, err := fmt.Fprintf(w, "%s %s %s\n", f.ok.Sprint("✓"), action, path)
	return err
}

// Error reports an error
func (f *HumanFormatter) Error(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "%s %v\n", f.fail.Sprint("Error:"), err)
	return werr
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}
