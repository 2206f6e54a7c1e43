package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/sdejongh/ftpsync/internal/platform"
)

// SFTP is a Backend speaking SFTP over an SSH session.
// It supports every optional capability.
type SFTP struct {
	client *sftp.Client
	conn   io.Closer
}

// NewSFTP wraps an established SFTP client. conn, when non-nil, is closed
// after the client (typically the underlying *ssh.Client).
func NewSFTP(client *sftp.Client, conn io.Closer) *SFTP {
	return &SFTP{client: client, conn: conn}
}

// DialSFTP opens an SSH connection with password authentication and starts
// the SFTP subsystem on it.
func DialSFTP(ctx context.Context, params ConnParams, ep Endpoint) (*SFTP, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if params.KnownHosts != "" {
		cb, err := knownhosts.New(params.KnownHosts)
		if err != nil {
			return nil, NewError(KindConfiguration, "dial", params.KnownHosts, fmt.Errorf("failed to load known_hosts: %w", err))
		}
		hostKeyCallback = cb
	}

	password := params.Password
	config := &ssh.ClientConfig{
		User: params.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         params.timeout(),
	}

	dialer := net.Dialer{Timeout: params.timeout()}
	netConn, err := dialer.DialContext(ctx, "tcp", ep.Address())
	if err != nil {
		return nil, NewError(KindConnectionFailed, "dial", ep.Address(), err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, ep.Address(), config)
	if err != nil {
		netConn.Close()
		return nil, NewError(KindConnectionFailed, "dial", ep.Address(), err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, NewError(KindConnectionFailed, "dial", ep.Address(), fmt.Errorf("failed to start sftp subsystem: %w", err))
	}

	return NewSFTP(client, sshClient), nil
}

// Protocol returns "sftp"
func (s *SFTP) Protocol() string {
	return ProtocolSFTP
}

// Capabilities returns the optional operations supported over SFTP
func (s *SFTP) Capabilities() Capabilities {
	return Capabilities{Copy: true, Chmod: true, DiskUsage: true}
}

// List returns the immediate children of a directory. Symbolic links are
// reported as their target; a dangling link stays a plain entry.
func (s *SFTP) List(ctx context.Context, path string) ([]Entry, error) {
	path = platform.CleanRemote(path)

	infos, err := s.client.ReadDir(path)
	if err != nil {
		return nil, wrap(err, "list", path, KindUnknown)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if platform.IsDotEntry(info.Name()) {
			continue
		}
		child := platform.JoinRemote(path, info.Name())
		if info.Mode()&os.ModeSymlink != 0 {
			if target, err := s.client.Stat(child); err == nil {
				info = target
			}
		}
		entries = append(entries, sftpEntry(child, info))
	}

	return entries, nil
}

// Stat returns metadata using the native SFTP stat call
func (s *SFTP) Stat(ctx context.Context, path string) (Entry, error) {
	path = platform.CleanRemote(path)

	info, err := s.client.Stat(path)
	if err != nil {
		return Entry{}, wrap(err, "stat", path, KindUnknown)
	}

	entry := sftpEntry(path, info)
	_, entry.Name = platform.SplitRemote(path)
	return entry, nil
}

// Exists reports whether path exists
func (s *SFTP) Exists(ctx context.Context, path string) bool {
	_, err := s.Stat(ctx, path)
	return err == nil
}

// ReadBytes returns the whole content of a remote file
func (s *SFTP) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	return readBytes(ctx, s, path)
}

// WriteBytes creates or overwrites a remote file with data
func (s *SFTP) WriteBytes(ctx context.Context, path string, data []byte) error {
	return writeBytes(ctx, s, path, data)
}

// Upload streams reader into a remote file
func (s *SFTP) Upload(ctx context.Context, reader io.Reader, remotePath string) error {
	remotePath = platform.CleanRemote(remotePath)

	file, err := s.client.Create(remotePath)
	if err != nil {
		return wrap(err, "upload", remotePath, KindTransfer)
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		return wrap(err, "upload", remotePath, KindTransfer)
	}

	if err := file.Close(); err != nil {
		return wrap(err, "upload", remotePath, KindTransfer)
	}

	return nil
}

// Download streams a remote file into writer
func (s *SFTP) Download(ctx context.Context, remotePath string, writer io.Writer) error {
	remotePath = platform.CleanRemote(remotePath)

	file, err := s.client.Open(remotePath)
	if err != nil {
		return wrap(err, "download", remotePath, KindTransfer)
	}
	defer file.Close()

	if _, err := io.Copy(writer, file); err != nil {
		return wrap(err, "download", remotePath, KindTransfer)
	}

	return nil
}

// UploadFile transfers a file from the local filesystem
func (s *SFTP) UploadFile(ctx context.Context, localPath, remotePath string) error {
	return uploadFile(ctx, s, localPath, remotePath)
}

// DownloadFile transfers a remote file to the local filesystem
func (s *SFTP) DownloadFile(ctx context.Context, remotePath, localPath string) error {
	return downloadFile(ctx, s, remotePath, localPath)
}

// Delete removes a file
func (s *SFTP) Delete(ctx context.Context, path string) error {
	path = platform.CleanRemote(path)
	return wrap(s.client.Remove(path), "delete", path, KindUnknown)
}

// MakeDirectory creates a directory
func (s *SFTP) MakeDirectory(ctx context.Context, path string, recursive bool) error {
	path = platform.CleanRemote(path)
	if recursive {
		return wrap(s.client.MkdirAll(path), "mkdir", path, KindUnknown)
	}
	return wrap(s.client.Mkdir(path), "mkdir", path, KindUnknown)
}

// RemoveDirectory removes a directory
func (s *SFTP) RemoveDirectory(ctx context.Context, path string, recursive bool) error {
	path = platform.CleanRemote(path)
	if recursive {
		return s.removeAll(ctx, path)
	}
	return wrap(s.client.RemoveDirectory(path), "rmdir", path, KindUnknown)
}

func (s *SFTP) removeAll(ctx context.Context, path string) error {
	entries, err := s.List(ctx, path)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir {
			if err := s.removeAll(ctx, entry.Path); err != nil {
				return err
			}
			continue
		}
		if err := s.Delete(ctx, entry.Path); err != nil {
			return err
		}
	}

	return wrap(s.client.RemoveDirectory(path), "rmdir", path, KindUnknown)
}

// Rename moves oldPath to newPath
func (s *SFTP) Rename(ctx context.Context, oldPath, newPath string) error {
	oldPath = platform.CleanRemote(oldPath)
	newPath = platform.CleanRemote(newPath)
	return wrap(s.client.Rename(oldPath, newPath), "rename", oldPath, KindUnknown)
}

// SetModTime sets access and modification times of a remote path
func (s *SFTP) SetModTime(ctx context.Context, path string, modTime time.Time) error {
	path = platform.CleanRemote(path)
	return wrap(s.client.Chtimes(path, modTime, modTime), "chtimes", path, KindUnknown)
}

// Copy duplicates a remote file within the SFTP session
func (s *SFTP) Copy(ctx context.Context, sourcePath, destPath string) error {
	sourcePath = platform.CleanRemote(sourcePath)
	destPath = platform.CleanRemote(destPath)

	src, err := s.client.Open(sourcePath)
	if err != nil {
		return wrap(err, "copy", sourcePath, KindTransfer)
	}
	defer src.Close()

	return s.Upload(ctx, src, destPath)
}

// Chmod changes permission bits of a remote path
func (s *SFTP) Chmod(ctx context.Context, path string, mode uint32) error {
	path = platform.CleanRemote(path)
	return wrap(s.client.Chmod(path, os.FileMode(mode)), "chmod", path, KindUnknown)
}

// DiskUsage queries the statvfs@openssh.com extension
func (s *SFTP) DiskUsage(ctx context.Context, path string) (DiskUsage, error) {
	path = platform.CleanRemote(path)

	st, err := s.client.StatVFS(path)
	if err != nil {
		return DiskUsage{}, wrap(err, "df", path, KindUnknown)
	}

	blockSize := st.Frsize
	if blockSize == 0 {
		blockSize = st.Bsize
	}

	usage := DiskUsage{
		Total:     st.Blocks * blockSize,
		Free:      st.Bfree * blockSize,
		Available: st.Bavail * blockSize,
	}
	usage.Used = usage.Total - usage.Free

	return usage, nil
}

// Close ends the SFTP session and the underlying connection
func (s *SFTP) Close() error {
	err := s.client.Close()
	if s.conn != nil {
		if connErr := s.conn.Close(); err == nil {
			err = connErr
		}
	}
	return err
}

// sftpEntry normalizes an SFTP attribute record. The raw mtime is a Unix
// timestamp in seconds.
func sftpEntry(path string, info fs.FileInfo) Entry {
	modTime := info.ModTime()
	if stat, ok := info.Sys().(*sftp.FileStat); ok && stat.Mtime != 0 {
		modTime = time.Unix(int64(stat.Mtime), 0)
	}

	return Entry{
		Path:        path,
		Name:        info.Name(),
		IsDir:       info.IsDir(),
		Size:        info.Size(),
		ModTime:     modTime,
		Permissions: fmt.Sprintf("%04o", info.Mode().Perm()),
	}
}
