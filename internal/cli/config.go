package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/sdejongh/ftpsync/pkg/config"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the ftpsync configuration file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration with passwords masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				source := s.cfgPath
				if source == "" {
					source = "built-in defaults"
				}
				fmt.Fprintf(s.out, "# Loaded from %s\n", source)

				data, err := yaml.Marshal(s.cfg.Redacted())
				if err != nil {
					return errors.Errorf("failed to marshal config: %w", err)
				}
				_, err = s.out.Write(data)
				return err
			})
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an example configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return storage.NewError(storage.KindConfiguration, "init", path,
					fmt.Errorf("configuration file already exists (use --force to overwrite)"))
			}

			if err := config.SaveToFile(config.Example(), path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
