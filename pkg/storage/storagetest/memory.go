// Package storagetest provides an in-memory storage.Backend for tests.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sdejongh/ftpsync/internal/platform"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

type memFile struct {
	data    []byte
	modTime time.Time
	mode    uint32
}

// Memory is an in-memory remote tree. The zero value is not usable,
// use NewMemory.
type Memory struct {
	mu    sync.Mutex
	files map[string]*memFile
	dirs  map[string]time.Time

	// Caps are the capabilities reported by the backend. Listed file times
	// are truncated to Caps.TimePrecision.
	Caps storage.Capabilities
	// UploadErrors injects a failure for uploads to the given remote paths.
	// A *storage.Error is returned as is, anything else as a transfer error.
	UploadErrors map[string]error
	// ListErrors injects a failure for listings of the given remote paths.
	// A *storage.Error is returned as is, anything else as permission denied.
	ListErrors map[string]error
	// Now returns the time stamped on written files
	Now func() time.Time

	// Uploads records the remote paths written, in order
	Uploads []string
	// Closed is set by Close
	Closed bool
}

// NewMemory creates an empty tree containing only the root directory
func NewMemory() *Memory {
	return &Memory{
		files:        make(map[string]*memFile),
		dirs:         map[string]time.Time{"/": {}, ".": {}},
		UploadErrors: make(map[string]error),
		ListErrors:   make(map[string]error),
		Now:          time.Now,
	}
}

// AddFile creates a file and its parent directories
func (m *Memory) AddFile(path string, data []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = platform.CleanRemote(path)
	m.mkdirAll(parentOf(path))
	m.files[path] = &memFile{data: append([]byte(nil), data...), modTime: modTime, mode: 0644}
}

// AddDir creates a directory and its parents
func (m *Memory) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(platform.CleanRemote(path))
}

// File returns the content and modification time of a file
func (m *Memory) File(path string) ([]byte, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[platform.CleanRemote(path)]
	if !ok {
		return nil, time.Time{}, false
	}
	return append([]byte(nil), f.data...), f.modTime, true
}

// HasDir reports whether a directory exists
func (m *Memory) HasDir(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dirs[platform.CleanRemote(path)]
	return ok
}

func (m *Memory) Protocol() string { return "memory" }

func (m *Memory) Capabilities() storage.Capabilities { return m.Caps }

func (m *Memory) List(ctx context.Context, path string) ([]storage.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = platform.CleanRemote(path)
	if err, ok := m.ListErrors[path]; ok {
		return nil, injected(err, storage.KindPermissionDenied, "list", path)
	}
	if _, ok := m.dirs[path]; !ok {
		return nil, storage.NewError(storage.KindNotFound, "list", path, nil)
	}

	var entries []storage.Entry
	for p, modTime := range m.dirs {
		if p != path && parentOf(p) == path {
			entries = append(entries, storage.Entry{Path: p, Name: baseOf(p), IsDir: true, ModTime: modTime, Permissions: "0755"})
		}
	}
	for p, f := range m.files {
		if parentOf(p) == path {
			entries = append(entries, m.fileEntry(p, f))
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *Memory) Stat(ctx context.Context, path string) (storage.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = platform.CleanRemote(path)
	if f, ok := m.files[path]; ok {
		return m.fileEntry(path, f), nil
	}
	if modTime, ok := m.dirs[path]; ok {
		return storage.Entry{Path: path, Name: baseOf(path), IsDir: true, ModTime: modTime}, nil
	}
	return storage.Entry{}, storage.NewError(storage.KindNotFound, "stat", path, nil)
}

func (m *Memory) Exists(ctx context.Context, path string) bool {
	_, err := m.Stat(ctx, path)
	return err == nil
}

func (m *Memory) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Download(ctx, path, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Memory) WriteBytes(ctx context.Context, path string, data []byte) error {
	return m.Upload(ctx, bytes.NewReader(data), path)
}

func (m *Memory) Upload(ctx context.Context, reader io.Reader, remotePath string) error {
	remotePath = platform.CleanRemote(remotePath)

	data, err := io.ReadAll(reader)
	if err != nil {
		return storage.NewError(storage.KindTransfer, "upload", remotePath, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.UploadErrors[remotePath]; ok {
		return injected(err, storage.KindTransfer, "upload", remotePath)
	}
	if _, ok := m.dirs[parentOf(remotePath)]; !ok {
		return storage.NewError(storage.KindNotFound, "upload", remotePath, nil)
	}
	if _, ok := m.dirs[remotePath]; ok {
		return storage.NewError(storage.KindTransfer, "upload", remotePath, fmt.Errorf("is a directory"))
	}

	m.files[remotePath] = &memFile{data: data, modTime: m.Now(), mode: 0644}
	m.Uploads = append(m.Uploads, remotePath)
	return nil
}

func (m *Memory) Download(ctx context.Context, remotePath string, writer io.Writer) error {
	m.mu.Lock()
	f, ok := m.files[platform.CleanRemote(remotePath)]
	m.mu.Unlock()

	if !ok {
		return storage.NewError(storage.KindNotFound, "download", remotePath, nil)
	}
	if _, err := writer.Write(f.data); err != nil {
		return storage.NewError(storage.KindTransfer, "download", remotePath, err)
	}
	return nil
}

func (m *Memory) UploadFile(ctx context.Context, localPath, remotePath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return storage.NewError(storage.KindTransfer, "upload", localPath, err)
	}
	defer file.Close()
	return m.Upload(ctx, file, remotePath)
}

func (m *Memory) DownloadFile(ctx context.Context, remotePath, localPath string) error {
	data, err := m.ReadBytes(ctx, remotePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return storage.NewError(storage.KindTransfer, "download", localPath, err)
	}
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return storage.NewError(storage.KindTransfer, "download", localPath, err)
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = platform.CleanRemote(path)
	if _, ok := m.files[path]; !ok {
		return storage.NewError(storage.KindNotFound, "delete", path, nil)
	}
	delete(m.files, path)
	return nil
}

func (m *Memory) MakeDirectory(ctx context.Context, path string, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = platform.CleanRemote(path)
	if recursive {
		m.mkdirAll(path)
		return nil
	}
	if _, ok := m.dirs[parentOf(path)]; !ok {
		return storage.NewError(storage.KindNotFound, "mkdir", path, nil)
	}
	m.dirs[path] = m.Now()
	return nil
}

func (m *Memory) RemoveDirectory(ctx context.Context, path string, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = platform.CleanRemote(path)
	if _, ok := m.dirs[path]; !ok {
		return storage.NewError(storage.KindNotFound, "rmdir", path, nil)
	}

	prefix := strings.TrimSuffix(path, "/") + "/"
	var children []string
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			children = append(children, p)
		}
	}
	for p := range m.dirs {
		if strings.HasPrefix(p, prefix) {
			children = append(children, p)
		}
	}
	if len(children) > 0 && !recursive {
		return storage.NewError(storage.KindTransfer, "rmdir", path, fmt.Errorf("directory not empty"))
	}

	for _, p := range children {
		delete(m.files, p)
		delete(m.dirs, p)
	}
	delete(m.dirs, path)
	return nil
}

func (m *Memory) Rename(ctx context.Context, oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldPath = platform.CleanRemote(oldPath)
	newPath = platform.CleanRemote(newPath)
	f, ok := m.files[oldPath]
	if !ok {
		return storage.NewError(storage.KindNotFound, "rename", oldPath, nil)
	}
	delete(m.files, oldPath)
	m.files[newPath] = f
	return nil
}

func (m *Memory) SetModTime(ctx context.Context, path string, modTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[platform.CleanRemote(path)]
	if !ok {
		return storage.NewError(storage.KindNotFound, "chtimes", path, nil)
	}
	f.modTime = modTime
	return nil
}

func (m *Memory) Copy(ctx context.Context, sourcePath, destPath string) error {
	if !m.Caps.Copy {
		return storage.NewError(storage.KindUnsupported, "copy", sourcePath, nil)
	}
	data, err := m.ReadBytes(ctx, sourcePath)
	if err != nil {
		return err
	}
	return m.WriteBytes(ctx, destPath, data)
}

func (m *Memory) Chmod(ctx context.Context, path string, mode uint32) error {
	if !m.Caps.Chmod {
		return storage.NewError(storage.KindUnsupported, "chmod", path, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[platform.CleanRemote(path)]
	if !ok {
		return storage.NewError(storage.KindNotFound, "chmod", path, nil)
	}
	f.mode = mode
	return nil
}

func (m *Memory) DiskUsage(ctx context.Context, path string) (storage.DiskUsage, error) {
	if !m.Caps.DiskUsage {
		return storage.DiskUsage{}, storage.NewError(storage.KindUnsupported, "df", path, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var used uint64
	for _, f := range m.files {
		used += uint64(len(f.data))
	}
	const total = 1 << 30
	return storage.DiskUsage{Total: total, Used: used, Free: total - used, Available: total - used}, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func injected(err error, kind storage.Kind, op, path string) error {
	if storage.KindOf(err) != storage.KindUnknown {
		return err
	}
	return storage.NewError(kind, op, path, err)
}

func (m *Memory) mkdirAll(path string) {
	for p := path; ; p = parentOf(p) {
		if _, ok := m.dirs[p]; ok {
			return
		}
		m.dirs[p] = m.Now()
	}
}

func (m *Memory) fileEntry(path string, f *memFile) storage.Entry {
	modTime := f.modTime
	if m.Caps.TimePrecision > 0 {
		modTime = modTime.Truncate(m.Caps.TimePrecision)
	}

	return storage.Entry{
		Path:        path,
		Name:        baseOf(path),
		Size:        int64(len(f.data)),
		ModTime:     modTime,
		Permissions: fmt.Sprintf("%04o", f.mode),
	}
}

func parentOf(p string) string {
	dir, _ := platform.SplitRemote(p)
	return dir
}

func baseOf(p string) string {
	_, name := platform.SplitRemote(p)
	return name
}
