package cli

import (
	"context"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/output"
	"github.com/sdejongh/ftpsync/pkg/storage"
	"github.com/sdejongh/ftpsync/pkg/sync"
)

// SyncFlags holds sync command flags
type SyncFlags struct {
	Local         string
	Remote        string
	Direction     string
	DryRun        bool
	CreateLocal   bool
	Exclude       []string
	ChangesReport string
	ChangesFormat string
}

var syncFlags SyncFlags

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror a local directory and a remote directory",
		Long: `Mirror a local directory onto a remote directory (upload), the remote
directory onto the local one (download), or both. Only files whose source is
newer than the destination are transferred. Nothing is ever deleted.

Entries matching the built-in excludes, the .ftpignore and .gitignore files
of the local directory or --exclude are skipped.`,
		RunE: runSync,
	}

	addSyncFlags(cmd)
	cmd.Flags().BoolVar(&syncFlags.DryRun, "dry-run", false, "compare only, don't transfer")

	return cmd
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&syncFlags.Local, "local", "l", "", "local directory path (required)")
	cmd.Flags().StringVarP(&syncFlags.Remote, "remote", "r", "", "remote directory path (required)")
	cmd.MarkFlagRequired("local")
	cmd.MarkFlagRequired("remote")

	cmd.Flags().StringVar(&syncFlags.Direction, "direction", "upload", "sync direction: upload, download, both")
	cmd.Flags().BoolVar(&syncFlags.CreateLocal, "create-local", false, "create the local directory if it doesn't exist")
	cmd.Flags().StringSliceVar(&syncFlags.Exclude, "exclude", []string{}, "extra glob patterns to exclude")
	cmd.Flags().StringVar(&syncFlags.ChangesReport, "changes-report", "", "write the list of changed files to file")
	cmd.Flags().StringVar(&syncFlags.ChangesFormat, "changes-format", "human", "changes report format: human, json")
}

func runSync(cmd *cobra.Command, args []string) error {
	// Validate flags
	if err := validateSyncFlags(); err != nil {
		return err
	}

	return run(cmd, func(ctx context.Context, s *session) error {
		operation, err := createSyncOperation()
		if err != nil {
			return storage.NewError(storage.KindConfiguration, "sync", syncFlags.Local, err)
		}

		return s.withBackend(ctx, func(backend storage.Backend) error {
			return s.runOperation(ctx, backend, operation)
		})
	})
}

// runOperation runs one sync with the observers selected by the output
// settings and renders its report
func (s *session) runOperation(ctx context.Context, backend storage.Backend, operation *models.SyncOperation) error {
	var recorder *output.ChangeRecorder
	if syncFlags.ChangesReport != "" {
		recorder = output.NewChangeRecorder()
	}

	observer, finish := s.observer(recorder, string(operation.Direction))
	engine := sync.NewEngine(sync.WithLogger(s.logger), sync.WithObserver(observer))

	report, err := engine.Run(ctx, backend, operation)
	finish()
	if err != nil {
		// the error alone is reported in JSON
		if report != nil && !s.cfg.Output.Quiet && s.formatter.Name() != "json" {
			s.formatter.Report(s.out, report)
		}
		return err
	}

	if recorder != nil {
		if err := output.WriteChangesReport(report, recorder.Changes(), syncFlags.ChangesReport, syncFlags.ChangesFormat); err != nil {
			return errors.Errorf("failed to write changes report: %w", err)
		}
	}

	if !s.cfg.Output.Quiet || s.formatter.Name() == "json" {
		if err := s.formatter.Report(s.out, report); err != nil {
			return err
		}
	}

	return statusError(report.Status)
}

// observer combines the per-entry consumers of a sync: the progress line on
// a terminal, otherwise one line per transfer (every entry when verbose),
// and the changes recorder. finish must be called when the sync returns.
func (s *session) observer(recorder *output.ChangeRecorder, label string) (sync.Observer, func()) {
	var observers []sync.Observer
	finish := func() {}

	switch {
	case s.cfg.Output.Quiet || s.formatter.Name() == "json":
	case s.cfg.Output.Progress && !globalFlags.Verbose && output.IsTerminal(s.errOut):
		progress := output.NewProgress(s.errOut, label)
		observers = append(observers, progress)
		finish = progress.Finish
	default:
		observers = append(observers, sync.ObserverFunc(func(event models.FileEvent) {
			switch event.Action {
			case models.ActionSkip, models.ActionIgnore:
				if !globalFlags.Verbose {
					return
				}
			}
			s.formatter.Event(s.out, event)
		}))
	}

	if recorder != nil {
		observers = append(observers, recorder)
	}

	return sync.ObserverFunc(func(event models.FileEvent) {
		for _, o := range observers {
			o.Observe(event)
		}
	}), finish
}
