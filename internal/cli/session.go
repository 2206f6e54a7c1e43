package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/sdejongh/ftpsync/pkg/config"
	"github.com/sdejongh/ftpsync/pkg/logging"
	"github.com/sdejongh/ftpsync/pkg/output"
	"github.com/sdejongh/ftpsync/pkg/storage"
)

// dial opens remote sessions. Tests replace it.
var dial = storage.Dial

// session bundles what a command needs: configuration, output and logging
type session struct {
	cfg       *config.Config
	cfgPath   string
	out       io.Writer
	errOut    io.Writer
	formatter output.Formatter
	logger    logging.Logger
}

// newSession loads the configuration and applies the global flags to it
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, path, err := config.Load(globalFlags.ConfigFile)
	if err != nil {
		return nil, errors.Errorf("failed to load config: %w", err)
	}
	applyFlagsToConfig(cfg)

	s := &session{
		cfg:     cfg,
		cfgPath: path,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}

	colored := !globalFlags.NoColor && output.IsTerminal(s.out)
	s.formatter, err = output.New(cfg.Output.Format, colored)
	if err != nil {
		return nil, err
	}

	s.logger, err = createLogger(cfg.Logging, s.errOut)
	if err != nil {
		return nil, errors.Errorf("failed to create logger: %w", err)
	}

	return s, nil
}

// Close flushes the logger
func (s *session) Close() {
	s.logger.Close()
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config) {
	if globalFlags.Output != "" {
		cfg.Output.Format = globalFlags.Output
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}
	if globalFlags.NoProgress {
		cfg.Output.Progress = false
	}

	if globalFlags.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = globalFlags.LogFile
	}
	if globalFlags.LogFormat != "" {
		cfg.Logging.Format = globalFlags.LogFormat
	}
	if globalFlags.LogLevel != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.Level = globalFlags.LogLevel
	}
}

// createLogger creates a logger based on configuration.
// Without a file, logs go to stderr.
func createLogger(cfg config.LoggingConfig, stderr io.Writer) (logging.Logger, error) {
	// Parse log format
	var format logging.Format
	switch cfg.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024 // 10 MB
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5
	}

	return logging.New(logging.Options{
		Enabled:    cfg.Enabled,
		Format:     format,
		Level:      logging.ParseLevel(cfg.Level),
		File:       cfg.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Output:     stderr,
	})
}

// connParams resolves the remote server: the --profile, or the only profile
// of the config, overridden by explicit connection flags
func (s *session) connParams() (storage.ConnParams, error) {
	var profile config.Profile

	switch name := connFlags.Profile; {
	case name != "":
		p, err := s.cfg.Profile(name)
		if err != nil {
			return storage.ConnParams{}, storage.NewError(storage.KindConfiguration, "connect", "", err)
		}
		profile = p
	case connFlags.Host == "" && len(s.cfg.Profiles) == 1:
		profile = s.cfg.Profiles[s.cfg.ProfileNames()[0]]
	case connFlags.Host == "":
		return storage.ConnParams{}, storage.NewError(storage.KindConfiguration, "connect", "",
			fmt.Errorf("no server selected: use --profile or --host"))
	}

	params := profile.ConnParams()
	if connFlags.Host != "" {
		params.Host = connFlags.Host
	}
	if connFlags.User != "" {
		params.User = connFlags.User
	}
	if connFlags.Password != "" {
		params.Password = connFlags.Password
	} else if params.Password == "" {
		params.Password = os.Getenv("FTPSYNC_PASSWORD")
	}
	if connFlags.Port != 0 {
		params.Port = connFlags.Port
	}
	if connFlags.Secure {
		params.Secure = true
	}
	if connFlags.KnownHosts != "" {
		params.KnownHosts = connFlags.KnownHosts
	}
	if connFlags.Timeout != 0 {
		params.Timeout = connFlags.Timeout
	}
	return params, nil
}

// withBackend opens one connection for the command, runs fn and closes the
// connection on every path
func (s *session) withBackend(ctx context.Context, fn func(backend storage.Backend) error) error {
	params, err := s.connParams()
	if err != nil {
		return err
	}

	backend, err := dial(ctx, params)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			s.logger.Warn(ctx, "Failed to close connection", logging.Fields{"error": err.Error()})
		}
	}()

	s.logger.Debug(ctx, "Connected", logging.Fields{"protocol": backend.Protocol(), "host": params.Host})
	return fn(backend)
}

// run builds the session of cmd and runs fn with it
func run(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(ctx, s)
}

// remote is like run with an open connection
func remote(cmd *cobra.Command, fn func(ctx context.Context, s *session, backend storage.Backend) error) error {
	return run(cmd, func(ctx context.Context, s *session) error {
		return s.withBackend(ctx, func(backend storage.Backend) error {
			return fn(ctx, s, backend)
		})
	})
}
