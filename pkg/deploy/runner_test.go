package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/ftpsync/pkg/config"
	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/storage"
	"github.com/sdejongh/ftpsync/pkg/storage/storagetest"
)

type fixture struct {
	cfg    *config.Config
	remote *storagetest.Memory
	dialed []storage.ConnParams
	runner *Runner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	local := t.TempDir()
	for rel, content := range map[string]string{
		"index.html":     "<h1>hi</h1>",
		"css/site.css":   "body{}",
		"logs/debug.log": "noise",
		"app.log":        "noise",
	} {
		path := filepath.Join(local, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	cfg := config.Default()
	cfg.Profiles["prod"] = config.Profile{Host: "sftp://prod.example.com", User: "deploy", Password: "pw"}
	cfg.Deployments["site"] = config.Deployment{
		Profile: "prod",
		Local:   local,
		Remote:  "/var/www",
		Exclude: []string{"logs/", "*.log"},
	}
	cfg.Deployments["orphan"] = config.Deployment{Profile: "gone", Local: local, Remote: "/x"}

	f := &fixture{cfg: cfg, remote: storagetest.NewMemory()}
	f.runner = NewRunner(func(ctx context.Context, params storage.ConnParams) (storage.Backend, error) {
		f.dialed = append(f.dialed, params)
		return f.remote, nil
	}, nil, nil)
	return f
}

func TestRunUploadsWithExcludes(t *testing.T) {
	f := newFixture(t)

	report, err := f.runner.Run(context.Background(), f.cfg, "site")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Uploaded)
	assert.Equal(t, 2, report.Ignored)
	assert.Equal(t, models.DirectionUpload, report.Direction)
	assert.Equal(t, models.StatusSuccess, report.Status)
	assert.NotEmpty(t, report.OperationID)

	_, _, ok := f.remote.File("/var/www/index.html")
	assert.True(t, ok)
	_, _, ok = f.remote.File("/var/www/app.log")
	assert.False(t, ok)
	assert.False(t, f.remote.HasDir("/var/www/logs"))

	require.Len(t, f.dialed, 1)
	assert.Equal(t, "sftp://prod.example.com", f.dialed[0].Host)
	assert.True(t, f.remote.Closed)
}

func TestRunUnknownDeployment(t *testing.T) {
	f := newFixture(t)

	_, err := f.runner.Run(context.Background(), f.cfg, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, f.dialed)
}

func TestRunUnknownProfile(t *testing.T) {
	f := newFixture(t)

	_, err := f.runner.Run(context.Background(), f.cfg, "orphan")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, f.dialed)
}

func TestRunDialFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.dial = func(ctx context.Context, params storage.ConnParams) (storage.Backend, error) {
		return nil, storage.NewError(storage.KindConnectionFailed, "dial", params.Host, errors.New("connection refused"))
	}

	_, err := f.runner.Run(context.Background(), f.cfg, "site")
	assert.ErrorIs(t, err, storage.ErrConnectionFailed)
}

func TestRunClosesConnectionOnAbort(t *testing.T) {
	f := newFixture(t)
	f.remote.ListErrors["/var/www"] = storage.NewError(storage.KindConnectionFailed, "list", "/var/www", errors.New("connection lost"))

	report, err := f.runner.Run(context.Background(), f.cfg, "site")
	assert.ErrorIs(t, err, storage.ErrConnectionFailed)
	require.NotNil(t, report)
	assert.Equal(t, models.StatusFailed, report.Status)
	assert.True(t, f.remote.Closed)
}

func TestPreview(t *testing.T) {
	f := newFixture(t)

	report, err := f.runner.Preview(context.Background(), f.cfg, "site")
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Uploaded)
	assert.Empty(t, f.remote.Uploads)
}

func TestList(t *testing.T) {
	f := newFixture(t)

	summaries := List(f.cfg)
	require.Len(t, summaries, 2)
	assert.Equal(t, "orphan", summaries[0].Name)
	assert.Empty(t, summaries[0].Host)
	assert.Equal(t, "site", summaries[1].Name)
	assert.Equal(t, "sftp://prod.example.com", summaries[1].Host)
	assert.Equal(t, []string{"logs/", "*.log"}, summaries[1].Exclude)
}

func TestRunLocalPath(t *testing.T) {
	t.Run("Normalized", func(t *testing.T) {
		f := newFixture(t)
		d := f.cfg.Deployments["site"]
		root := d.Local
		d.Local = filepath.Join(root, "css") + string(filepath.Separator) + ".." + string(filepath.Separator)
		f.cfg.Deployments["site"] = d

		report, err := f.runner.Run(context.Background(), f.cfg, "site")
		require.NoError(t, err)
		assert.Equal(t, root, report.LocalPath)
		assert.Equal(t, 2, report.Uploaded)
	})

	t.Run("Empty", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.Deployments["blank"] = config.Deployment{Profile: "prod", Remote: "/var/www"}

		_, err := f.runner.Run(context.Background(), f.cfg, "blank")
		assert.ErrorIs(t, err, storage.ErrConfiguration)
		assert.Empty(t, f.dialed, "an invalid deployment never connects")
	})
}
