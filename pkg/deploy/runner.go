// Package deploy runs named one-way upload presets from the configuration.
package deploy

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"github.com/sdejongh/ftpsync/internal/platform"
	"github.com/sdejongh/ftpsync/pkg/config"
	"github.com/sdejongh/ftpsync/pkg/logging"
	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/storage"
	"github.com/sdejongh/ftpsync/pkg/sync"
)

// Dialer opens a remote session from connection parameters
type Dialer func(ctx context.Context, params storage.ConnParams) (storage.Backend, error)

// Runner resolves deployments into upload syncs
type Runner struct {
	dial   Dialer
	engine *sync.Engine
	logger logging.Logger
}

// NewRunner creates a runner. A nil dial uses storage.Dial, a nil engine
// a default engine and a nil logger discards output.
func NewRunner(dial Dialer, engine *sync.Engine, logger logging.Logger) *Runner {
	if dial == nil {
		dial = storage.Dial
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if engine == nil {
		engine = sync.NewEngine(sync.WithLogger(logger))
	}
	return &Runner{dial: dial, engine: engine, logger: logger}
}

// Run executes the deployment called name. It fails with a NotFound error
// when the deployment or its profile is not defined. Deployments always
// upload.
func (r *Runner) Run(ctx context.Context, cfg *config.Config, name string) (*models.SyncReport, error) {
	return r.run(ctx, cfg, name, false)
}

// Preview reports what Run would transfer without changing anything
func (r *Runner) Preview(ctx context.Context, cfg *config.Config, name string) (*models.SyncReport, error) {
	return r.run(ctx, cfg, name, true)
}

func (r *Runner) run(ctx context.Context, cfg *config.Config, name string, dryRun bool) (*models.SyncReport, error) {
	d, err := cfg.Deployment(name)
	if err != nil {
		return nil, err
	}
	profile, err := cfg.Profile(d.Profile)
	if err != nil {
		return nil, errors.Errorf("deployment '%s': %w", name, err)
	}

	if err := platform.ValidatePath(d.Local); err != nil {
		return nil, errors.Errorf("deployment '%s': %w", name, storage.NewError(storage.KindConfiguration, "deploy", d.Local, err))
	}
	localPath := platform.NormalizePath(d.Local)

	log := r.logger.WithFields(logging.Fields{"deployment": name, "profile": d.Profile})
	log.Info(ctx, "Starting deployment", logging.Fields{"local": localPath, "remote": d.Remote, "dry_run": dryRun})

	backend, err := r.dial(ctx, profile.ConnParams())
	if err != nil {
		return nil, errors.Errorf("deployment '%s': %w", name, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn(ctx, "Failed to close connection", logging.Fields{"error": err.Error()})
		}
	}()

	report, err := r.engine.Run(ctx, backend, &models.SyncOperation{
		LocalPath:       localPath,
		RemotePath:      d.Remote,
		Direction:       models.DirectionUpload,
		ExcludePatterns: d.Exclude,
		DryRun:          dryRun,
	})
	if err != nil {
		return report, errors.Errorf("deployment '%s': %w", name, err)
	}

	log.Info(ctx, "Deployment finished", logging.Fields{"status": report.Status, "uploaded": report.Uploaded})
	return report, nil
}

// Summary describes one deployment for listing
type Summary struct {
	Name        string   `json:"name"`
	Profile     string   `json:"profile"`
	Host        string   `json:"host"`
	Local       string   `json:"local"`
	Remote      string   `json:"remote"`
	Exclude     []string `json:"exclude,omitempty"`
	Description string   `json:"description,omitempty"`
}

// List returns the deployments of cfg sorted by name. Host is empty when
// the profile is not defined.
func List(cfg *config.Config) []Summary {
	names := cfg.DeploymentNames()
	out := make([]Summary, 0, len(names))
	for _, name := range names {
		d := cfg.Deployments[name]
		out = append(out, Summary{
			Name:        name,
			Profile:     d.Profile,
			Host:        cfg.Profiles[d.Profile].Host,
			Local:       d.Local,
			Remote:      d.Remote,
			Exclude:     d.Exclude,
			Description: d.Description,
		})
	}
	return out
}
