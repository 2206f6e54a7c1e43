package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sdejongh/ftpsync/internal/platform"
	"github.com/sdejongh/ftpsync/pkg/compare"
	"github.com/sdejongh/ftpsync/pkg/logging"
	"github.com/sdejongh/ftpsync/pkg/models"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

// pass holds the state shared by every recursive step of one Sync call.
// The matcher and root never change below the top-level call.
type pass struct {
	engine  *Engine
	backend storage.Backend
	matcher *Matcher
	root    string
	dryRun  bool
	// precision is the granularity of remote listed times, zero when exact
	precision time.Duration
}

// staleTime marks a remote file whose content cannot be trusted. Any local
// file is newer.
var staleTime = time.Unix(0, 0)

func (p *pass) emit(event models.FileEvent) {
	p.engine.observer.Observe(event)
}

func (p *pass) rel(localPath string) string {
	rel, err := platform.RelSlash(p.root, localPath)
	if err != nil {
		return filepath.ToSlash(localPath)
	}
	return rel
}

// fail records a per-entry failure, or returns err when it must abort the run
func (p *pass) fail(ctx context.Context, report *models.SyncReport, path, rel string, err error) error {
	if storage.IsFatal(err) {
		return err
	}

	report.AddError(path, err)
	p.engine.logger.Warn(ctx, "Entry failed", logging.Fields{"path": path, "error": err.Error()})
	p.emit(models.FileEvent{Path: path, RelativePath: rel, Action: models.ActionError, Err: err})
	return nil
}

// coarsen truncates both times of a comparison to the remote precision, so
// that a minute-precise listing matches the time set after an upload
func (p *pass) coarsen(source, dest compare.FileState) (compare.FileState, compare.FileState) {
	if p.precision <= 0 {
		return source, dest
	}
	if !source.ModTime.IsZero() {
		source.ModTime = source.ModTime.Truncate(p.precision)
	}
	if !dest.ModTime.IsZero() {
		dest.ModTime = dest.ModTime.Truncate(p.precision)
	}
	return source, dest
}

// ensureRemoteRoot creates the top-level remote directory of an upload when
// it is missing
func (p *pass) ensureRemoteRoot(ctx context.Context, remoteDir string) error {
	if p.dryRun {
		return nil
	}

	_, err := p.backend.Stat(ctx, remoteDir)
	if err == nil || storage.KindOf(err) != storage.KindNotFound {
		return nil
	}

	p.engine.logger.Info(ctx, "Creating remote directory", logging.Fields{"path": remoteDir})
	return p.backend.MakeDirectory(ctx, remoteDir, true)
}

// remoteIndex lists remoteDir once and indexes its children by name.
// A missing directory yields an empty index.
func (p *pass) remoteIndex(ctx context.Context, remoteDir string) (map[string]storage.Entry, error) {
	entries, err := p.backend.List(ctx, remoteDir)
	if err != nil {
		if storage.KindOf(err) == storage.KindNotFound {
			return map[string]storage.Entry{}, nil
		}
		return nil, err
	}

	index := make(map[string]storage.Entry, len(entries))
	for _, entry := range entries {
		index[entry.Name] = entry
	}
	return index, nil
}

// uploadDir mirrors the immediate entries of localDir into remoteDir and
// recurses into non-ignored subdirectories
func (p *pass) uploadDir(ctx context.Context, localDir, remoteDir string) (*models.SyncReport, error) {
	report := &models.SyncReport{}
	local := p.engine.local

	infos, err := local.ReadDir(localDir)
	if err != nil {
		return report, p.fail(ctx, report, localDir, p.rel(localDir), err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	remote, err := p.remoteIndex(ctx, remoteDir)
	if err != nil {
		return report, p.fail(ctx, report, localDir, p.rel(localDir), err)
	}

	for _, info := range infos {
		localPath := local.Join(localDir, info.Name())
		remotePath := platform.JoinRemote(remoteDir, info.Name())
		rel := p.rel(localPath)

		if p.matcher.Match(rel) {
			report.Ignored++
			p.engine.logger.Debug(ctx, "Ignored", logging.Fields{"path": rel})
			p.emit(models.FileEvent{Path: localPath, RelativePath: rel, IsDir: info.IsDir(), Action: models.ActionIgnore})
			continue
		}

		info, err := p.resolveLocal(localPath, info)
		if err != nil {
			if err := p.fail(ctx, report, localPath, rel, err); err != nil {
				return report, err
			}
			continue
		}

		existing, found := remote[info.Name()]

		if info.IsDir() {
			if err := p.ensureRemoteDir(ctx, remotePath, existing, found); err != nil {
				if err := p.fail(ctx, report, localPath, rel, err); err != nil {
					return report, err
				}
				continue
			}

			sub, err := p.uploadDir(ctx, localPath, remotePath)
			report.Merge(sub)
			if err != nil {
				return report, err
			}
			continue
		}

		if err := p.uploadFile(ctx, report, localPath, remotePath, rel, info, existing, found); err != nil {
			return report, err
		}
	}

	return report, nil
}

// resolveLocal follows symbolic links so that linked files are uploaded
// as regular files
func (p *pass) resolveLocal(localPath string, info os.FileInfo) (os.FileInfo, error) {
	if info.Mode()&os.ModeSymlink == 0 {
		return info, nil
	}
	return p.engine.local.Stat(localPath)
}

func (p *pass) ensureRemoteDir(ctx context.Context, remotePath string, existing storage.Entry, found bool) error {
	if found {
		if !existing.IsDir {
			return storage.NewError(storage.KindTransfer, "mkdir", remotePath, fmt.Errorf("remote path exists and is not a directory"))
		}
		return nil
	}
	if p.dryRun {
		return nil
	}

	p.engine.logger.Debug(ctx, "Creating remote directory", logging.Fields{"path": remotePath})
	return p.backend.MakeDirectory(ctx, remotePath, true)
}

func (p *pass) uploadFile(ctx context.Context, report *models.SyncReport, localPath, remotePath, rel string, info os.FileInfo, existing storage.Entry, found bool) error {
	dest := compare.FileState{Path: remotePath}
	if found {
		if existing.IsDir {
			err := storage.NewError(storage.KindTransfer, "upload", remotePath, fmt.Errorf("remote path is a directory"))
			return p.fail(ctx, report, localPath, rel, err)
		}
		dest = compare.FileState{Path: remotePath, Exists: true, Size: existing.Size, ModTime: existing.ModTime}
	}

	source := compare.FileState{Path: localPath, Exists: true, Size: info.Size(), ModTime: info.ModTime()}
	cmp := p.engine.comparator.Compare(p.coarsen(source, dest))

	if !cmp.Transfer() {
		report.Skipped++
		p.engine.logger.Debug(ctx, "Skipped", logging.Fields{"path": rel, "reason": cmp.Reason})
		p.emit(models.FileEvent{Path: localPath, RelativePath: rel, Size: info.Size(), Action: models.ActionSkip, Reason: cmp.Reason})
		return nil
	}

	if !p.dryRun {
		if err := p.transferUp(ctx, localPath, remotePath); err != nil {
			if !storage.IsFatal(err) {
				p.discardRemote(ctx, remotePath)
			}
			return p.fail(ctx, report, localPath, rel, err)
		}

		if err := p.backend.SetModTime(ctx, remotePath, info.ModTime()); err != nil {
			p.engine.logger.Warn(ctx, "Could not preserve modification time", logging.Fields{"path": remotePath, "error": err.Error()})
		}
	}

	report.Uploaded++
	p.engine.logger.Debug(ctx, "Uploaded", logging.Fields{"path": rel, "reason": cmp.Reason, "size": info.Size()})
	p.emit(models.FileEvent{Path: localPath, RelativePath: rel, Size: info.Size(), Action: models.ActionUpload, Reason: cmp.Reason})
	return nil
}

func (p *pass) transferUp(ctx context.Context, localPath, remotePath string) error {
	reader, err := p.engine.local.Open(localPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	return p.backend.Upload(ctx, reader, remotePath)
}

// discardRemote marks what a failed upload left at remotePath as stale so
// that the next run transfers it again. Servers that cannot set times get
// the file removed instead.
func (p *pass) discardRemote(ctx context.Context, remotePath string) {
	err := p.backend.SetModTime(ctx, remotePath, staleTime)
	if storage.KindOf(err) == storage.KindUnsupported {
		err = p.backend.Delete(ctx, remotePath)
	}
	if err != nil && storage.KindOf(err) != storage.KindNotFound {
		p.engine.logger.Warn(ctx, "Could not discard partial upload", logging.Fields{"path": remotePath, "error": err.Error()})
	}
}

// downloadDir mirrors the immediate entries of remoteDir into localDir and
// recurses into non-ignored subdirectories
func (p *pass) downloadDir(ctx context.Context, remoteDir, localDir string) (*models.SyncReport, error) {
	report := &models.SyncReport{}
	local := p.engine.local

	entries, err := p.backend.List(ctx, remoteDir)
	if err != nil {
		return report, p.fail(ctx, report, remoteDir, p.rel(localDir), err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	for _, entry := range entries {
		localPath := local.Join(localDir, entry.Name)
		rel := p.rel(localPath)

		if p.matcher.Match(rel) {
			report.Ignored++
			p.engine.logger.Debug(ctx, "Ignored", logging.Fields{"path": rel})
			p.emit(models.FileEvent{Path: entry.Path, RelativePath: rel, IsDir: entry.IsDir, Action: models.ActionIgnore})
			continue
		}

		if entry.IsDir {
			if !p.dryRun {
				if err := local.MkdirAll(localPath); err != nil {
					if err := p.fail(ctx, report, entry.Path, rel, err); err != nil {
						return report, err
					}
					continue
				}
			}

			sub, err := p.downloadDir(ctx, entry.Path, localPath)
			report.Merge(sub)
			if err != nil {
				return report, err
			}
			continue
		}

		if err := p.downloadFile(ctx, report, entry, localPath, rel); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (p *pass) downloadFile(ctx context.Context, report *models.SyncReport, entry storage.Entry, localPath, rel string) error {
	local := p.engine.local

	dest := compare.FileState{Path: localPath}
	info, err := local.Stat(localPath)
	switch {
	case err == nil && info.IsDir():
		err := storage.NewError(storage.KindTransfer, "download", localPath, fmt.Errorf("local path is a directory"))
		return p.fail(ctx, report, entry.Path, rel, err)
	case err == nil:
		dest = compare.FileState{Path: localPath, Exists: true, Size: info.Size(), ModTime: info.ModTime()}
	case storage.KindOf(err) != storage.KindNotFound:
		return p.fail(ctx, report, entry.Path, rel, err)
	}

	source := compare.FileState{Path: entry.Path, Exists: true, Size: entry.Size, ModTime: entry.ModTime}
	cmp := p.engine.comparator.Compare(p.coarsen(source, dest))

	if !cmp.Transfer() {
		report.Skipped++
		p.engine.logger.Debug(ctx, "Skipped", logging.Fields{"path": rel, "reason": cmp.Reason})
		p.emit(models.FileEvent{Path: entry.Path, RelativePath: rel, Size: entry.Size, Action: models.ActionSkip, Reason: cmp.Reason})
		return nil
	}

	if !p.dryRun {
		if err := p.transferDown(ctx, entry.Path, localPath); err != nil {
			return p.fail(ctx, report, entry.Path, rel, err)
		}

		if entry.HasModTime() {
			if err := local.SetModTime(localPath, entry.ModTime); err != nil {
				p.engine.logger.Warn(ctx, "Could not preserve modification time", logging.Fields{"path": localPath, "error": err.Error()})
			}
		}
	}

	report.Downloaded++
	p.engine.logger.Debug(ctx, "Downloaded", logging.Fields{"path": rel, "reason": cmp.Reason, "size": entry.Size})
	p.emit(models.FileEvent{Path: entry.Path, RelativePath: rel, Size: entry.Size, Action: models.ActionDownload, Reason: cmp.Reason})
	return nil
}

// transferDown writes the remote file to localPath. A partially written
// file is removed so that the next run sees it as missing.
func (p *pass) transferDown(ctx context.Context, remotePath, localPath string) error {
	local := p.engine.local

	writer, err := local.Create(localPath)
	if err != nil {
		return err
	}

	err = p.backend.Download(ctx, remotePath, writer)
	if closeErr := writer.Close(); err == nil && closeErr != nil {
		err = storage.NewError(storage.KindTransfer, "download", localPath, closeErr)
	}
	if err != nil {
		local.Remove(localPath)
		return err
	}

	return nil
}
