package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/sdejongh/ftpsync/pkg/storage"
)

// defaultDepth bounds tree and find when --depth is not given
const defaultDepth = 10

func newFilesystemCommands() []*cobra.Command {
	return []*cobra.Command{
		newListCommand(),
		newTreeCommand(),
		newFindCommand(),
		newStatCommand(),
		newExistsCommand(),
		newCatCommand(),
		newPutCommand(),
		newGetCommand(),
		newWriteCommand(),
		newRemoveCommand(),
		newMkdirCommand(),
		newRmdirCommand(),
		newMoveCommand(),
		newCopyCommand(),
		newChmodCommand(),
		newDiskUsageCommand(),
	}
}

func argOr(args []string, i int, fallback string) string {
	if len(args) > i {
		return args[i]
	}
	return fallback
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List a remote directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				entries, err := backend.List(ctx, argOr(args, 0, "."))
				if err != nil {
					return err
				}
				return s.formatter.Entries(s.out, entries)
			})
		},
	}
}

func newTreeCommand() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "List a remote directory recursively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				root := argOr(args, 0, ".")
				entries, err := storage.Walk(ctx, backend, root, depth)
				if err != nil {
					return err
				}
				return s.formatter.Tree(s.out, root, entries)
			})
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", defaultDepth, "maximum directory depth below path (0 lists only path)")
	return cmd
}

func newFindCommand() *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "find <pattern> [path]",
		Short: "Search remote entries by glob pattern",
		Long: `Search remote entries by glob pattern. Patterns without '/' match entry
names, patterns with '/' match paths relative to the search root. '**' matches
any number of directories.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				entries, err := storage.Search(ctx, backend, argOr(args, 1, "."), args[0], depth)
				if err != nil {
					return err
				}
				return s.formatter.Entries(s.out, entries)
			})
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", defaultDepth, "maximum directory depth below path")
	return cmd
}

func newStatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show metadata of a remote path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				entry, err := backend.Stat(ctx, args[0])
				if err != nil {
					return err
				}
				return s.formatter.Stat(s.out, entry)
			})
		},
	}
}

func newExistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <path>",
		Short: "Check whether a remote path exists",
		Long:  `Check whether a remote path exists. Exits with status 1 when it does not.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				exists := backend.Exists(ctx, args[0])
				if err := s.formatter.Exists(s.out, args[0], exists); err != nil {
					return err
				}
				if !exists {
					return &exitError{Code: ExitPartial, Silent: true}
				}
				return nil
			})
		},
	}
}

func newCatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a remote file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				return backend.Download(ctx, args[0], s.out)
			})
		},
	}
}

func newPutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put <local> <remote>",
		Short: "Upload a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				if err := backend.UploadFile(ctx, args[0], args[1]); err != nil {
					return err
				}
				return s.done("uploaded", args[1])
			})
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote> <local>",
		Short: "Download a remote file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				if err := backend.DownloadFile(ctx, args[0], args[1]); err != nil {
					return err
				}
				return s.done("downloaded", args[1])
			})
		},
	}
}

func newWriteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "write <remote> [content]",
		Short: "Write content to a remote file",
		Long:  `Create or overwrite a remote file with content, read from stdin when omitted.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if len(args) == 2 {
				data = []byte(args[1])
			} else {
				var err error
				if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return errors.Errorf("failed to read stdin: %w", err)
				}
			}

			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				if err := backend.WriteBytes(ctx, args[0], data); err != nil {
					return err
				}
				return s.done(fmt.Sprintf("wrote %d bytes to", len(data)), args[0])
			})
		},
	}
}

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a remote file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				if err := backend.Delete(ctx, args[0]); err != nil {
					return err
				}
				return s.done("deleted", args[0])
			})
		},
	}
}

func newMkdirCommand() *cobra.Command {
	var parents bool

	cmd := &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a remote directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				if err := backend.MakeDirectory(ctx, args[0], parents); err != nil {
					return err
				}
				return s.done("created", args[0])
			})
		},
	}

	cmd.Flags().BoolVarP(&parents, "parents", "p", false, "create parent directories as needed")
	return cmd
}

func newRmdirCommand() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rmdir <path>",
		Short: "Remove a remote directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				if err := backend.RemoveDirectory(ctx, args[0], recursive); err != nil {
					return err
				}
				return s.done("removed", args[0])
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "remove the directory content too")
	return cmd
}

func newMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <old> <new>",
		Short: "Rename or move a remote path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				if err := backend.Rename(ctx, args[0], args[1]); err != nil {
					return err
				}
				return s.done("moved to", args[1])
			})
		},
	}
}

func newCopyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cp <source> <dest>",
		Short: "Copy a remote file on the server (sftp only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				if err := backend.Copy(ctx, args[0], args[1]); err != nil {
					return err
				}
				return s.done("copied to", args[1])
			})
		},
	}
}

func newChmodCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chmod <mode> <path>",
		Short: "Change permissions of a remote path (sftp only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := strconv.ParseUint(args[0], 8, 32)
			if err != nil || mode > 0o7777 {
				return storage.NewError(storage.KindConfiguration, "chmod", args[1], fmt.Errorf("invalid octal mode '%s'", args[0]))
			}

			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				if err := backend.Chmod(ctx, args[1], uint32(mode)); err != nil {
					return err
				}
				return s.done(fmt.Sprintf("mode %04o set on", mode), args[1])
			})
		},
	}
}

func newDiskUsageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "df [path]",
		Short: "Show free space on the remote filesystem (sftp only)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return remote(cmd, func(ctx context.Context, s *session, backend storage.Backend) error {
				path := argOr(args, 0, ".")
				usage, err := backend.DiskUsage(ctx, path)
				if err != nil {
					return err
				}
				return s.formatter.DiskUsage(s.out, path, usage)
			})
		},
	}
}

// done confirms a single-path operation unless quiet
func (s *session) done(action, path string) error {
	if s.cfg.Output.Quiet {
		return nil
	}
	return s.formatter.Done(s.out, action, path)
}
