package cli

import (
	"github.com/spf13/cobra"
)

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a local and a remote directory without syncing (dry-run)",
		Long: `Compare the local and remote directories and report what sync would
transfer without performing any file operations. This is equivalent to
sync --dry-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			syncFlags.DryRun = true
			return runSync(cmd, args)
		},
	}

	// Reuse sync flags for comparison
	addSyncFlags(cmd)

	return cmd
}
