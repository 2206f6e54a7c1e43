package storage

import (
	"context"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		params ConnParams
		want   Endpoint
	}{
		{
			name:   "SFTPScheme",
			params: ConnParams{Host: "sftp://example.com"},
			want:   Endpoint{Protocol: ProtocolSFTP, Host: "example.com", Port: 22},
		},
		{
			name:   "FTPScheme",
			params: ConnParams{Host: "ftp://example.com"},
			want:   Endpoint{Protocol: ProtocolFTP, Host: "example.com", Port: 21},
		},
		{
			name:   "FTPSScheme",
			params: ConnParams{Host: "ftps://example.com", Port: 2121},
			want:   Endpoint{Protocol: ProtocolFTP, Host: "example.com", Port: 2121, Secure: true},
		},
		{
			name:   "BareHostPort22",
			params: ConnParams{Host: "example.com", Port: 22},
			want:   Endpoint{Protocol: ProtocolSFTP, Host: "example.com", Port: 22},
		},
		{
			name:   "BareHostDefault",
			params: ConnParams{Host: "example.com"},
			want:   Endpoint{Protocol: ProtocolFTP, Host: "example.com", Port: 21},
		},
		{
			name:   "SecureFlag",
			params: ConnParams{Host: "example.com", Secure: true},
			want:   Endpoint{Protocol: ProtocolFTP, Host: "example.com", Port: 21, Secure: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.params.Resolve()
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveInvalid(t *testing.T) {
	for _, params := range []ConnParams{
		{Host: ""},
		{Host: "sftp://"},
		{Host: "example.com", Port: 70000},
		{Host: "example.com", Port: -1},
	} {
		if _, err := params.Resolve(); KindOf(err) != KindConfiguration {
			t.Errorf("Resolve(%+v) kind = %s, want %s", params, KindOf(err), KindConfiguration)
		}
	}
}

func TestDialRejectsMissingHost(t *testing.T) {
	_, err := Dial(context.Background(), ConnParams{})
	if !IsFatal(err) {
		t.Errorf("Dial() error = %v, want a fatal configuration error", err)
	}
}

func TestEndpointAddress(t *testing.T) {
	ep := Endpoint{Host: "example.com", Port: 2222}
	if got := ep.Address(); got != "example.com:2222" {
		t.Errorf("Address() = %q", got)
	}
}
