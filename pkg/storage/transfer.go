package storage

import (
	"bytes"
	"context"
	"io"
)

// streamer is the pair of primitives every adapter implements natively.
// The whole-file and local-file operations are expressed through it.
type streamer interface {
	Upload(ctx context.Context, reader io.Reader, remotePath string) error
	Download(ctx context.Context, remotePath string, writer io.Writer) error
}

func readBytes(ctx context.Context, s streamer, path string) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Download(ctx, path, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBytes(ctx context.Context, s streamer, path string, data []byte) error {
	return s.Upload(ctx, bytes.NewReader(data), path)
}

func uploadFile(ctx context.Context, s streamer, localPath, remotePath string) error {
	file, err := NewLocal().Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return s.Upload(ctx, file, remotePath)
}

// downloadFile writes the remote file to localPath, creating parent
// directories. A partially written file is removed so that a later run
// sees it as missing.
func downloadFile(ctx context.Context, s streamer, remotePath, localPath string) error {
	local := NewLocal()

	file, err := local.Create(localPath)
	if err != nil {
		return err
	}

	err = s.Download(ctx, remotePath, file)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = wrap(closeErr, "download", localPath, KindTransfer)
	}
	if err != nil {
		local.Remove(localPath)
		return err
	}

	return nil
}
