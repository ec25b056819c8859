package config

const (
	defaultDataDir                = "~/.local/share/shuttle"
	defaultLogDir                 = "~/.local/share/shuttle/logs"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultShortBackoffSeconds    = 10
	defaultLongBackoffSeconds     = 300
	defaultUnmountedEscalateAfter = 6
	defaultPreflightFile          = "/etc/hostname"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Transfer: Transfer{
			PreflightFile: defaultPreflightFile,
		},
		Backoff: Backoff{
			ShortSeconds:           defaultShortBackoffSeconds,
			LongSeconds:            defaultLongBackoffSeconds,
			UnmountedEscalateAfter: defaultUnmountedEscalateAfter,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
