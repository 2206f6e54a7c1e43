package storage

import (
	"context"
	"io"
	"time"
)

// Entry represents metadata about a remote file or directory.
// Path uses '/' as separator regardless of the local platform.
type Entry struct {
	Path        string
	Name        string
	IsDir       bool
	Size        int64
	ModTime     time.Time // zero when the server did not report it
	Permissions string    // octal mode such as "0644", empty when unknown
}

// HasModTime reports whether the modification time is known
func (e Entry) HasModTime() bool {
	return !e.ModTime.IsZero()
}

// Capabilities lists the optional operations an adapter supports.
// They are fixed when the adapter is constructed.
type Capabilities struct {
	Copy      bool
	Chmod     bool
	DiskUsage bool

	// TimePrecision is the granularity of listed modification times,
	// zero when they are exact to the second
	TimePrecision time.Duration
}

// DiskUsage holds space figures in bytes for the filesystem containing a path
type DiskUsage struct {
	Total     uint64
	Free      uint64
	Available uint64
	Used      uint64
}

// Backend defines the protocol-agnostic interface for remote file operations.
// Implementations include SFTP and FTP/FTPS.
//
// Optional operations (Copy, Chmod, DiskUsage) fail with ErrUnsupported when
// the matching capability is false.
type Backend interface {
	// Protocol returns the protocol name ("sftp" or "ftp")
	Protocol() string

	// Capabilities returns the optional operations this adapter supports
	Capabilities() Capabilities

	// List returns the immediate children of a directory
	List(ctx context.Context, path string) ([]Entry, error)

	// Stat returns metadata for a single path
	Stat(ctx context.Context, path string) (Entry, error)

	// Exists reports whether path exists. It never fails: any lookup
	// error is reported as false.
	Exists(ctx context.Context, path string) bool

	// ReadBytes returns the whole content of a remote file
	ReadBytes(ctx context.Context, path string) ([]byte, error)

	// WriteBytes creates or overwrites a remote file with data
	WriteBytes(ctx context.Context, path string, data []byte) error

	// Upload streams reader into a remote file
	Upload(ctx context.Context, reader io.Reader, remotePath string) error

	// Download streams a remote file into writer
	Download(ctx context.Context, remotePath string, writer io.Writer) error

	// UploadFile transfers a file from the local filesystem
	UploadFile(ctx context.Context, localPath, remotePath string) error

	// DownloadFile transfers a remote file to the local filesystem
	DownloadFile(ctx context.Context, remotePath, localPath string) error

	// Delete removes a file
	Delete(ctx context.Context, path string) error

	// MakeDirectory creates a directory, with its parents when recursive is set
	MakeDirectory(ctx context.Context, path string, recursive bool) error

	// RemoveDirectory removes a directory, with its content when recursive is set
	RemoveDirectory(ctx context.Context, path string, recursive bool) error

	// Rename moves oldPath to newPath
	Rename(ctx context.Context, oldPath, newPath string) error

	// SetModTime sets the modification time of a remote file
	SetModTime(ctx context.Context, path string, modTime time.Time) error

	// Copy duplicates a remote file on the server side
	Copy(ctx context.Context, sourcePath, destPath string) error

	// Chmod changes permission bits of a remote path
	Chmod(ctx context.Context, path string, mode uint32) error

	// DiskUsage returns space figures for the filesystem containing path
	DiskUsage(ctx context.Context, path string) (DiskUsage, error)

	// Close releases the connection
	Close() error
}
