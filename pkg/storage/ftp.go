package storage

import (
	"context"
	"crypto/tls"
	"io"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/sdejongh/ftpsync/internal/platform"
)

// ftpClient is the subset of an FTP control connection the adapter uses
type ftpClient interface {
	List(path string) ([]*ftp.Entry, error)
	Retr(path string) (io.ReadCloser, error)
	Stor(path string, r io.Reader) error
	Delete(path string) error
	Rename(from, to string) error
	MakeDir(path string) error
	RemoveDir(path string) error
	RemoveDirRecur(path string) error
	SetTime(path string, t time.Time) error
	GetTime(path string) (time.Time, error)
	IsTimePreciseInList() bool
	IsGetTimeSupported() bool
	Quit() error
}

// serverConn adapts *ftp.ServerConn to ftpClient
type serverConn struct {
	*ftp.ServerConn
}

func (c serverConn) Retr(path string) (io.ReadCloser, error) {
	resp, err := c.ServerConn.Retr(path)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// FTP is a Backend speaking FTP, or FTPS with explicit TLS.
// It has no native stat, copy, chmod or disk usage.
//
// Without MLSD, LIST reports times to the minute. File times are then read
// with MDTM when the server has it.
type FTP struct {
	conn    ftpClient
	precise bool
	mdtm    bool
}

// NewFTP wraps an authenticated FTP client connection
func NewFTP(conn ftpClient) *FTP {
	return &FTP{
		conn:    conn,
		precise: conn.IsTimePreciseInList(),
		mdtm:    conn.IsGetTimeSupported(),
	}
}

// DialFTP connects and logs in. An empty user logs in anonymously.
func DialFTP(ctx context.Context, params ConnParams, ep Endpoint) (*FTP, error) {
	opts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(params.timeout()),
	}
	if ep.Secure {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: ep.Host}))
	}

	conn, err := ftp.Dial(ep.Address(), opts...)
	if err != nil {
		return nil, NewError(KindConnectionFailed, "dial", ep.Address(), err)
	}

	user := params.User
	if user == "" {
		user = "anonymous"
	}
	if err := conn.Login(user, params.Password); err != nil {
		conn.Quit()
		return nil, NewError(KindConnectionFailed, "login", ep.Address(), err)
	}

	return NewFTP(serverConn{conn}), nil
}

// Protocol returns "ftp"
func (f *FTP) Protocol() string {
	return ProtocolFTP
}

// Capabilities returns no optional operations. Listed times are minute
// precise when neither MLSD nor MDTM is available.
func (f *FTP) Capabilities() Capabilities {
	if !f.precise && !f.mdtm {
		return Capabilities{TimePrecision: time.Minute}
	}
	return Capabilities{}
}

// List returns the immediate children of a directory
func (f *FTP) List(ctx context.Context, path string) ([]Entry, error) {
	path = platform.CleanRemote(path)

	raw, err := f.conn.List(path)
	if err != nil {
		return nil, wrap(err, "list", path, KindUnknown)
	}

	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		if e == nil || platform.IsDotEntry(e.Name) {
			continue
		}
		entry := ftpEntry(platform.JoinRemote(path, e.Name), e)
		if !entry.IsDir && !f.precise && f.mdtm {
			if modTime, err := f.conn.GetTime(entry.Path); err == nil {
				entry.ModTime = modTime
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Stat lists the parent directory and picks the entry with the same base name
func (f *FTP) Stat(ctx context.Context, path string) (Entry, error) {
	path = platform.CleanRemote(path)
	if platform.IsRemoteRoot(path) {
		return Entry{Path: path, Name: path, IsDir: true}, nil
	}

	dir, name := platform.SplitRemote(path)
	entries, err := f.List(ctx, dir)
	if err != nil {
		return Entry{}, wrap(err, "stat", path, KindUnknown)
	}

	for _, entry := range entries {
		if entry.Name == name {
			return entry, nil
		}
	}

	return Entry{}, NewError(KindNotFound, "stat", path, nil)
}

// Exists reports whether path exists
func (f *FTP) Exists(ctx context.Context, path string) bool {
	_, err := f.Stat(ctx, path)
	return err == nil
}

// ReadBytes returns the whole content of a remote file
func (f *FTP) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	return readBytes(ctx, f, path)
}

// WriteBytes creates or overwrites a remote file with data
func (f *FTP) WriteBytes(ctx context.Context, path string, data []byte) error {
	return writeBytes(ctx, f, path, data)
}

// Upload streams reader into a remote file (STOR)
func (f *FTP) Upload(ctx context.Context, reader io.Reader, remotePath string) error {
	remotePath = platform.CleanRemote(remotePath)
	return wrap(f.conn.Stor(remotePath, reader), "upload", remotePath, KindTransfer)
}

// Download streams a remote file into writer (RETR)
func (f *FTP) Download(ctx context.Context, remotePath string, writer io.Writer) error {
	remotePath = platform.CleanRemote(remotePath)

	resp, err := f.conn.Retr(remotePath)
	if err != nil {
		return wrap(err, "download", remotePath, KindTransfer)
	}

	_, err = io.Copy(writer, resp)
	if closeErr := resp.Close(); err == nil {
		err = closeErr
	}

	return wrap(err, "download", remotePath, KindTransfer)
}

// UploadFile transfers a file from the local filesystem
func (f *FTP) UploadFile(ctx context.Context, localPath, remotePath string) error {
	return uploadFile(ctx, f, localPath, remotePath)
}

// DownloadFile transfers a remote file to the local filesystem
func (f *FTP) DownloadFile(ctx context.Context, remotePath, localPath string) error {
	return downloadFile(ctx, f, remotePath, localPath)
}

// Delete removes a file
func (f *FTP) Delete(ctx context.Context, path string) error {
	path = platform.CleanRemote(path)
	return wrap(f.conn.Delete(path), "delete", path, KindUnknown)
}

// MakeDirectory creates a directory. FTP has no "mkdir -p", so the
// recursive form creates each missing component in turn.
func (f *FTP) MakeDirectory(ctx context.Context, path string, recursive bool) error {
	path = platform.CleanRemote(path)
	if !recursive {
		return wrap(f.conn.MakeDir(path), "mkdir", path, KindUnknown)
	}

	current := ""
	if strings.HasPrefix(path, "/") {
		current = "/"
	}
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" || part == "." {
			continue
		}
		current = platform.JoinRemote(current, part)
		if f.Exists(ctx, current) {
			continue
		}
		if err := f.conn.MakeDir(current); err != nil {
			// Lost a race with another client, or the LIST of the parent
			// hid the directory.
			if f.Exists(ctx, current) {
				continue
			}
			return wrap(err, "mkdir", current, KindUnknown)
		}
	}

	return nil
}

// RemoveDirectory removes a directory
func (f *FTP) RemoveDirectory(ctx context.Context, path string, recursive bool) error {
	path = platform.CleanRemote(path)
	if recursive {
		return wrap(f.conn.RemoveDirRecur(path), "rmdir", path, KindUnknown)
	}
	return wrap(f.conn.RemoveDir(path), "rmdir", path, KindUnknown)
}

// Rename moves oldPath to newPath (RNFR/RNTO)
func (f *FTP) Rename(ctx context.Context, oldPath, newPath string) error {
	oldPath = platform.CleanRemote(oldPath)
	newPath = platform.CleanRemote(newPath)
	return wrap(f.conn.Rename(oldPath, newPath), "rename", oldPath, KindUnknown)
}

// SetModTime sets the modification time with MFMT
func (f *FTP) SetModTime(ctx context.Context, path string, modTime time.Time) error {
	path = platform.CleanRemote(path)
	return wrap(f.conn.SetTime(path, modTime), "chtimes", path, KindUnsupported)
}

// Copy is not available over FTP
func (f *FTP) Copy(ctx context.Context, sourcePath, destPath string) error {
	return NewError(KindUnsupported, "copy", platform.CleanRemote(sourcePath), nil)
}

// Chmod is not available over FTP
func (f *FTP) Chmod(ctx context.Context, path string, mode uint32) error {
	return NewError(KindUnsupported, "chmod", platform.CleanRemote(path), nil)
}

// DiskUsage is not available over FTP
func (f *FTP) DiskUsage(ctx context.Context, path string) (DiskUsage, error) {
	return DiskUsage{}, NewError(KindUnsupported, "df", platform.CleanRemote(path), nil)
}

// Close sends QUIT
func (f *FTP) Close() error {
	return f.conn.Quit()
}

// ftpEntry normalizes a LIST/MLSD record, which reports the kind as a type code
func ftpEntry(path string, e *ftp.Entry) Entry {
	return Entry{
		Path:    path,
		Name:    e.Name,
		IsDir:   e.Type == ftp.EntryTypeFolder,
		Size:    int64(e.Size),
		ModTime: e.Time,
	}
}
