package storage

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// localFS is the part of a billy filesystem Local needs. osfs.Default
// provides it without chrooting.
type localFS interface {
	billy.Basic
	billy.Dir
}

// Local is the local side of a sync, backed by a go-billy filesystem
type Local struct {
	fs     localFS
	native bool
}

// NewLocal creates a local tree over the operating system filesystem.
// Relative paths are resolved against the working directory.
func NewLocal() *Local {
	return &Local{fs: osfs.Default, native: true}
}

// NewLocalFS creates a local tree over an arbitrary billy filesystem
func NewLocalFS(fs billy.Filesystem) *Local {
	return &Local{fs: fs}
}

// Join joins path elements with the local separator
func (l *Local) Join(elem ...string) string {
	return l.fs.Join(elem...)
}

// ReadDir returns the immediate children of a directory
func (l *Local) ReadDir(path string) ([]os.FileInfo, error) {
	infos, err := l.fs.ReadDir(path)
	if err != nil {
		return nil, wrap(err, "readdir", path, KindUnknown)
	}
	return infos, nil
}

// Stat returns file metadata
func (l *Local) Stat(path string) (os.FileInfo, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		return nil, wrap(err, "stat", path, KindUnknown)
	}
	return info, nil
}

// Exists checks if a file or directory exists
func (l *Local) Exists(path string) (bool, error) {
	_, err := l.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, wrap(err, "stat", path, KindUnknown)
}

// Open opens a file for reading
func (l *Local) Open(path string) (io.ReadCloser, error) {
	file, err := l.fs.Open(path)
	if err != nil {
		return nil, wrap(err, "open", path, KindTransfer)
	}
	return file, nil
}

// Create creates or truncates a file, creating missing parents
func (l *Local) Create(path string) (io.WriteCloser, error) {
	if err := l.fs.MkdirAll(l.fs.Join(path, ".."), 0755); err != nil {
		return nil, wrap(err, "create", path, KindTransfer)
	}

	file, err := l.fs.Create(path)
	if err != nil {
		return nil, wrap(err, "create", path, KindTransfer)
	}
	return file, nil
}

// ReadFile reads a whole file
func (l *Local) ReadFile(path string) ([]byte, error) {
	data, err := util.ReadFile(l.fs, path)
	if err != nil {
		return nil, wrap(err, "read", path, KindUnknown)
	}
	return data, nil
}

// MkdirAll creates a directory and all necessary parents
func (l *Local) MkdirAll(path string) error {
	if err := l.fs.MkdirAll(path, 0755); err != nil {
		return wrap(err, "mkdir", path, KindUnknown)
	}
	return nil
}

// Remove deletes a file
func (l *Local) Remove(path string) error {
	if err := l.fs.Remove(path); err != nil {
		return wrap(err, "remove", path, KindUnknown)
	}
	return nil
}

// SetModTime sets access and modification times. It fails with
// ErrUnsupported when the filesystem cannot change times.
func (l *Local) SetModTime(path string, modTime time.Time) error {
	var err error
	switch changer, ok := l.fs.(billy.Change); {
	case ok:
		err = changer.Chtimes(path, modTime, modTime)
	case l.native:
		// osfs does not implement billy.Change
		err = os.Chtimes(path, modTime, modTime)
	default:
		return NewError(KindUnsupported, "chtimes", path, fmt.Errorf("%T cannot change times", l.fs))
	}
	return wrap(err, "chtimes", path, KindUnknown)
}
