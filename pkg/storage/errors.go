package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/textproto"
	"strings"

	"github.com/pkg/sftp"
)

// Kind classifies a storage failure so callers can branch on it
type Kind string

const (
	// KindNotFound indicates the path does not exist
	KindNotFound Kind = "NOT_FOUND"
	// KindPermissionDenied indicates the remote refused access
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	// KindUnsupported indicates the active adapter lacks the capability
	KindUnsupported Kind = "UNSUPPORTED"
	// KindConnectionFailed indicates the session could not be established or was lost
	KindConnectionFailed Kind = "CONNECTION_FAILED"
	// KindConfiguration indicates a missing or malformed profile or deployment
	KindConfiguration Kind = "CONFIGURATION_ERROR"
	// KindTransfer indicates a read, write, upload or download of a file failed
	KindTransfer Kind = "TRANSFER_ERROR"
	// KindUnknown is used when nothing more specific applies
	KindUnknown Kind = "UNKNOWN"
)

// Sentinel errors, one per kind. An *Error matches the sentinel of its kind
// with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnsupported      = errors.New("operation not supported by this protocol")
	ErrConnectionFailed = errors.New("connection failed")
	ErrConfiguration    = errors.New("configuration error")
	ErrTransfer         = errors.New("transfer failed")
)

var sentinels = map[Kind]error{
	KindNotFound:         ErrNotFound,
	KindPermissionDenied: ErrPermissionDenied,
	KindUnsupported:      ErrUnsupported,
	KindConnectionFailed: ErrConnectionFailed,
	KindConfiguration:    ErrConfiguration,
	KindTransfer:         ErrTransfer,
}

// Error is a storage failure carrying its kind, the operation and the path
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Err != nil {
		msg = e.Err.Error()
	} else if s, ok := sentinels[e.Kind]; ok {
		msg = s.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// NewError creates an Error of the given kind
func NewError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindUnknown when there is none.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err must abort a whole invocation
// rather than being recorded against a single entry.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindConnectionFailed, KindConfiguration:
		return true
	}
	return false
}

// SFTP status codes (draft-ietf-secsh-filexfer-02)
const (
	sshFxNoSuchFile       = 2
	sshFxPermissionDenied = 3
	sshFxNoConnection     = 6
	sshFxConnectionLost   = 7
	sshFxOpUnsupported    = 8
)

// classify maps a native protocol error to a Kind. fallback is returned
// when the error carries no recognisable signal.
func classify(err error, fallback Kind) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		return KindConnectionFailed
	}

	var status *sftp.StatusError
	if errors.As(err, &status) {
		switch status.Code {
		case sshFxNoSuchFile:
			return KindNotFound
		case sshFxPermissionDenied:
			return KindPermissionDenied
		case sshFxNoConnection, sshFxConnectionLost:
			return KindConnectionFailed
		case sshFxOpUnsupported:
			return KindUnsupported
		}
		return fallback
	}

	var reply *textproto.Error
	if errors.As(err, &reply) {
		return classifyFTPReply(reply)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindConnectionFailed
	}

	return fallback
}

// classifyFTPReply maps RFC 959 reply codes to a Kind
func classifyFTPReply(reply *textproto.Error) Kind {
	msg := strings.ToLower(reply.Msg)
	switch reply.Code {
	case 421, 425, 426:
		return KindConnectionFailed
	case 530, 532:
		return KindPermissionDenied
	case 502, 504:
		return KindUnsupported
	case 450, 550:
		if strings.Contains(msg, "permission") || strings.Contains(msg, "denied") {
			return KindPermissionDenied
		}
		return KindNotFound
	case 553:
		return KindPermissionDenied
	}
	return KindTransfer
}

// wrap converts err into an *Error for op/path, classifying it first.
// nil stays nil.
func wrap(err error, op, path string, fallback Kind) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return NewError(classify(err, fallback), op, path, err)
}
