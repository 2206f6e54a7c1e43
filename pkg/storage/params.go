package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Protocol names
const (
	ProtocolSFTP = "sftp"
	ProtocolFTP  = "ftp"
)

// Well-known ports used when ConnParams.Port is zero
const (
	DefaultSFTPPort = 22
	DefaultFTPPort  = 21
)

// DefaultTimeout bounds connection establishment
const DefaultTimeout = 30 * time.Second

// ConnParams holds already-resolved connection parameters.
// Host may carry a scheme ("sftp://", "ftp://", "ftps://") that selects the protocol.
type ConnParams struct {
	Host       string
	User       string
	Password   string
	Port       int
	Secure     bool
	KnownHosts string // SFTP known_hosts file; empty disables host key verification
	Timeout    time.Duration
}

// Endpoint is the result of resolving ConnParams
type Endpoint struct {
	Protocol string
	Host     string
	Port     int
	Secure   bool
}

// Address returns host:port
func (e Endpoint) Address() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Resolve derives the protocol, bare host and port.
// A bare host selects SFTP when the port is 22 and FTP otherwise.
func (p ConnParams) Resolve() (Endpoint, error) {
	host := strings.TrimSpace(p.Host)
	ep := Endpoint{Secure: p.Secure, Port: p.Port}

	switch {
	case strings.HasPrefix(host, "sftp://"):
		ep.Protocol = ProtocolSFTP
		host = strings.TrimPrefix(host, "sftp://")
	case strings.HasPrefix(host, "ftps://"):
		ep.Protocol = ProtocolFTP
		ep.Secure = true
		host = strings.TrimPrefix(host, "ftps://")
	case strings.HasPrefix(host, "ftp://"):
		ep.Protocol = ProtocolFTP
		host = strings.TrimPrefix(host, "ftp://")
	case p.Port == DefaultSFTPPort:
		ep.Protocol = ProtocolSFTP
	default:
		ep.Protocol = ProtocolFTP
	}

	host = strings.TrimSuffix(host, "/")
	if host == "" {
		return Endpoint{}, NewError(KindConfiguration, "resolve", "", fmt.Errorf("host is required"))
	}
	ep.Host = host

	if ep.Port == 0 {
		if ep.Protocol == ProtocolSFTP {
			ep.Port = DefaultSFTPPort
		} else {
			ep.Port = DefaultFTPPort
		}
	}
	if ep.Port < 0 || ep.Port > 65535 {
		return Endpoint{}, NewError(KindConfiguration, "resolve", "", fmt.Errorf("invalid port %d", ep.Port))
	}

	return ep, nil
}

func (p ConnParams) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return DefaultTimeout
}

// Dial opens a session with the adapter selected by params.
// The caller owns the returned Backend and must Close it.
func Dial(ctx context.Context, params ConnParams) (Backend, error) {
	ep, err := params.Resolve()
	if err != nil {
		return nil, err
	}

	switch ep.Protocol {
	case ProtocolSFTP:
		return DialSFTP(ctx, params, ep)
	default:
		return DialFTP(ctx, params, ep)
	}
}
