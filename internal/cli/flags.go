package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
	Output     string
	NoColor    bool
	NoProgress bool

	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

// ConnFlags selects the remote server of a command, either a configured
// profile or explicit parameters. Explicit parameters override the profile.
type ConnFlags struct {
	Profile    string
	Host       string
	User       string
	Password   string
	Port       int
	Secure     bool
	KnownHosts string
	Timeout    time.Duration
}

var (
	globalFlags GlobalFlags
	connFlags   ConnFlags
)

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is ./.ftpconfig, then $HOME/.config/ftpsync/config.yaml)",
	)
	flags.BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "suppress non-error output")
	flags.StringVarP(&globalFlags.Output, "output", "o", "", "output format: human, json (default from config)")
	flags.BoolVar(&globalFlags.NoColor, "no-color", false, "disable colored output")
	flags.BoolVar(&globalFlags.NoProgress, "no-progress", false, "disable the progress line")

	flags.StringVar(&globalFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	flags.StringVar(&globalFlags.LogFormat, "log-format", "", "log format: text, json")
	flags.StringVar(&globalFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// AddConnectionFlags adds the remote server selection flags
func AddConnectionFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVarP(&connFlags.Profile, "profile", "P", "", "connection profile from the config file")
	flags.StringVarP(&connFlags.Host, "host", "H", "", "remote host, optionally prefixed with sftp://, ftp:// or ftps://")
	flags.StringVarP(&connFlags.User, "user", "u", "", "remote user")
	flags.StringVar(&connFlags.Password, "password", "", "remote password")
	flags.IntVar(&connFlags.Port, "port", 0, "remote port (default 22 for sftp, 21 for ftp)")
	flags.BoolVar(&connFlags.Secure, "secure", false, "use explicit TLS for ftp")
	flags.StringVar(&connFlags.KnownHosts, "known-hosts", "", "known_hosts file used to verify sftp host keys")
	flags.DurationVar(&connFlags.Timeout, "timeout", 0, "connection timeout (default 30s)")
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}
