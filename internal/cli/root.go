package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/output"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

// Process exit codes
const (
	ExitOK      = 0
	ExitPartial = 1
	ExitFatal   = 2
)

// exitError ends the process with Code. Its message has already been
// reported when Silent is set.
type exitError struct {
	Code   int
	Silent bool
	Err    error
}

func (e *exitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *exitError) Unwrap() error {
	return e.Err
}

// statusError converts a sync status into the command result
func statusError(status models.SyncStatus) error {
	if code := status.ExitCode(); code != ExitOK {
		return &exitError{Code: code, Silent: true}
	}
	return nil
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ftpsync",
		Short: "Remote file operations and mirroring over SFTP and FTP",
		Long: `ftpsync manipulates files on a remote server over SFTP or FTP/FTPS through
one set of commands, and mirrors a local directory onto the server (or back)
transferring only the files that changed.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)
	AddConnectionFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(newFilesystemCommands()...)
	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewDeployCommand())
	rootCmd.AddCommand(NewDeploymentsCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	code := ExitPartial
	var exit *exitError
	if errors.As(err, &exit) {
		code = exit.Code
		if exit.Silent {
			return code
		}
	} else if storage.IsFatal(err) {
		code = ExitFatal
	}

	// JSON consumers read a single document from stdout
	if globalFlags.Output == "json" {
		output.NewJSONFormatter().Error(stdout, err)
		return code
	}
	output.NewHumanFormatter(!globalFlags.NoColor && output.IsTerminal(stderr)).Error(stderr, err)
	return code
}
