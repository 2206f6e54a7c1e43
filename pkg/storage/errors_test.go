package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/textproto"
	"testing"

	"github.com/pkg/sftp"
)

func TestErrorMessage(t *testing.T) {
	err := NewError(KindNotFound, "stat", "/www/a.txt", nil)
	if got := err.Error(); got != "stat /www/a.txt: not found" {
		t.Errorf("Error() = %q", got)
	}

	err = NewError(KindTransfer, "upload", "", errors.New("broken pipe"))
	if got := err.Error(); got != "upload: broken pipe" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorIsSentinel(t *testing.T) {
	err := fmt.Errorf("sync: %w", NewError(KindUnsupported, "copy", "/a", nil))

	if !errors.Is(err, ErrUnsupported) {
		t.Error("errors.Is(err, ErrUnsupported) should be true")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) should be false")
	}
	if KindOf(err) != KindUnsupported {
		t.Errorf("KindOf() = %s", KindOf(err))
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != "" {
		t.Error("KindOf(nil) should be empty")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("KindOf(plain) should be UNKNOWN")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindConnectionFailed, true},
		{KindConfiguration, true},
		{KindNotFound, false},
		{KindPermissionDenied, false},
		{KindTransfer, false},
		{KindUnsupported, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := IsFatal(NewError(tt.kind, "op", "p", nil)); got != tt.want {
				t.Errorf("IsFatal(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"NotExist", fs.ErrNotExist, KindNotFound},
		{"Permission", fs.ErrPermission, KindPermissionDenied},
		{"SFTPNoSuchFile", &sftp.StatusError{Code: 2}, KindNotFound},
		{"SFTPPermission", &sftp.StatusError{Code: 3}, KindPermissionDenied},
		{"SFTPConnectionLost", &sftp.StatusError{Code: 7}, KindConnectionFailed},
		{"SFTPUnsupported", &sftp.StatusError{Code: 8}, KindUnsupported},
		{"SFTPFailure", &sftp.StatusError{Code: 4}, KindTransfer},
		{"FTP550", &textproto.Error{Code: 550, Msg: "No such file"}, KindNotFound},
		{"FTP550Denied", &textproto.Error{Code: 550, Msg: "Permission denied"}, KindPermissionDenied},
		{"FTP530", &textproto.Error{Code: 530, Msg: "Not logged in"}, KindPermissionDenied},
		{"FTP421", &textproto.Error{Code: 421, Msg: "Service not available"}, KindConnectionFailed},
		{"FTP502", &textproto.Error{Code: 502, Msg: "Not implemented"}, KindUnsupported},
		{"FTP451", &textproto.Error{Code: 451, Msg: "Local error"}, KindTransfer},
		{"Plain", errors.New("boom"), KindTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err, KindTransfer); got != tt.want {
				t.Errorf("classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsExistingError(t *testing.T) {
	inner := NewError(KindNotFound, "list", "/a", nil)
	if got := wrap(inner, "stat", "/a/b", KindTransfer); got != error(inner) {
		t.Errorf("wrap() = %v, want the original error", got)
	}
	if wrap(nil, "stat", "/a", KindTransfer) != nil {
		t.Error("wrap(nil) should be nil")
	}
}
