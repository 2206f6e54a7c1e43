package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sdejongh/ftpsync/pkg/deploy"
	"github.com/sdejongh/ftpsync/pkg/sync"
)

// NewDeployCommand creates the deploy command
func NewDeployCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "deploy <name>",
		Short: "Run a configured deployment",
		Long: `Upload the local directory of a configured deployment to its remote
directory, using the deployment's profile and excludes. Deployments only
ever upload.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				observer, finish := s.observer(nil, "Deploying "+args[0])
				engine := sync.NewEngine(sync.WithLogger(s.logger), sync.WithObserver(observer))
				runner := deploy.NewRunner(dial, engine, s.logger)

				runDeployment := runner.Run
				if dryRun {
					runDeployment = runner.Preview
				}

				report, err := runDeployment(ctx, s.cfg, args[0])
				finish()
				if err != nil {
					if report != nil && !s.cfg.Output.Quiet && s.formatter.Name() != "json" {
						s.formatter.Report(s.out, report)
					}
					return err
				}

				if !s.cfg.Output.Quiet || s.formatter.Name() == "json" {
					if err := s.formatter.Report(s.out, report); err != nil {
						return err
					}
				}
				return statusError(report.Status)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be uploaded without transferring")

	return cmd
}

// NewDeploymentsCommand creates the deployments command
func NewDeploymentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deployments",
		Short: "List configured deployments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, s *session) error {
				return s.formatter.Deployments(s.out, deploy.List(s.cfg))
			})
		},
	}
}
