package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"

	"github.com/sdejongh/ftpsync/pkg/compare"
	"github.com/sdejongh/ftpsync/pkg/logging"
	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

// Observer receives one event per entry the engine decides on
type Observer interface {
	Observe(event models.FileEvent)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(event models.FileEvent)

// Observe calls f(event)
func (f ObserverFunc) Observe(event models.FileEvent) {
	f(event)
}

type nopObserver struct{}

func (nopObserver) Observe(models.FileEvent) {}

// Engine mirrors a local tree onto a remote one, or back.
// It is strictly sequential: one entry at a time, depth first.
type Engine struct {
	local      *storage.Local
	comparator compare.Comparator
	logger     logging.Logger
	observer   Observer
	now        func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithLocal sets the local filesystem, the OS filesystem by default
func WithLocal(local *storage.Local) Option {
	return func(e *Engine) { e.local = local }
}

// WithComparator replaces the newer-wins comparator
func WithComparator(c compare.Comparator) Option {
	return func(e *Engine) { e.comparator = c }
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver sets the per-entry observer
func WithObserver(observer Observer) Option {
	return func(e *Engine) { e.observer = observer }
}

// NewEngine creates a new sync engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		local:      storage.NewLocal(),
		comparator: compare.NewTimestampComparator(),
		logger:     logging.NewNullLogger(),
		observer:   nopObserver{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Local returns the local filesystem the engine works on
func (e *Engine) Local() *storage.Local {
	return e.local
}

// Request describes one sync call
type Request struct {
	LocalPath  string
	RemotePath string
	Direction  models.Direction

	// Matcher is built from Root and ExtraExcludes when nil
	Matcher *Matcher
	// Root is the directory ignore paths are relative to, LocalPath when empty
	Root          string
	ExtraExcludes []string

	// DryRun decides and counts without creating or transferring anything
	DryRun bool
}

// Sync runs the passes selected by req.Direction and returns the merged
// report. Per-entry failures are recorded in the report. The error is
// non-nil only for failures that abort the whole call (see storage.IsFatal),
// in which case the report holds what was done so far.
func (e *Engine) Sync(ctx context.Context, backend storage.Backend, req Request) (*models.SyncReport, error) {
	if req.Root == "" {
		req.Root = req.LocalPath
	}
	if req.Matcher == nil {
		req.Matcher = LoadMatcher(e.local, req.Root, req.ExtraExcludes)
	}

	p := &pass{
		engine:    e,
		backend:   backend,
		matcher:   req.Matcher,
		root:      req.Root,
		dryRun:    req.DryRun,
		precision: backend.Capabilities().TimePrecision,
	}

	report := &models.SyncReport{}
	if req.Direction.Uploads() {
		if err := p.ensureRemoteRoot(ctx, req.RemotePath); err != nil {
			if err := p.fail(ctx, report, req.RemotePath, ".", err); err != nil {
				return report, err
			}
		} else {
			sub, err := p.uploadDir(ctx, req.LocalPath, req.RemotePath)
			report.Merge(sub)
			if err != nil {
				return report, err
			}
		}
	}
	if req.Direction.Downloads() {
		sub, err := p.downloadDir(ctx, req.RemotePath, req.LocalPath)
		report.Merge(sub)
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

// Run validates op, runs it against backend and returns a finished report
// carrying the operation metadata
func (e *Engine) Run(ctx context.Context, backend storage.Backend, op *models.SyncOperation) (*models.SyncReport, error) {
	if err := op.Validate(); err != nil {
		return nil, storage.NewError(storage.KindConfiguration, "sync", op.LocalPath, err)
	}

	id := op.ID
	if id == "" {
		id = uuid.New().String()
	}
	direction, _ := models.ParseDirection(string(op.Direction))

	start := e.now()
	e.logger.Info(ctx, "Starting sync operation", logging.Fields{
		"operation_id": id,
		"local":        op.LocalPath,
		"remote":       op.RemotePath,
		"direction":    direction,
		"protocol":     backend.Protocol(),
		"dry_run":      op.DryRun,
	})

	report, err := e.Sync(ctx, backend, Request{
		LocalPath:     op.LocalPath,
		RemotePath:    op.RemotePath,
		Direction:     direction,
		ExtraExcludes: op.ExcludePatterns,
		DryRun:        op.DryRun,
	})

	report.OperationID = id
	report.LocalPath = op.LocalPath
	report.RemotePath = op.RemotePath
	report.Direction = direction
	report.DryRun = op.DryRun
	report.StartTime = start
	report.Finish(e.now())

	if err != nil {
		report.Status = models.StatusFailed
		e.logger.Error(ctx, "Sync aborted", err, logging.Fields{"operation_id": id})
		return report, errors.Errorf("sync aborted: %w", err)
	}

	e.logger.Info(ctx, "Sync completed", logging.Fields{
		"operation_id": id,
		"duration":     report.Duration.String(),
		"status":       report.Status,
		"uploaded":     report.Uploaded,
		"downloaded":   report.Downloaded,
		"skipped":      report.Skipped,
		"ignored":      report.Ignored,
		"errors":       len(report.Errors),
	})

	return report, nil
}
