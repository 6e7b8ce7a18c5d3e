package config

const (
	defaultSourceDir             = "~/documents/incoming"
	defaultLogDir                = "~/.local/share/docsort/logs"
	defaultAPIBind               = "127.0.0.1:7519"
	defaultMinFreeMB             = 64
	defaultPollIntervalMS        = 250
	defaultRequiredStableTicks   = 2
	defaultWatcherQueueCapacity  = 256
	defaultTickIntervalMS        = 100
	defaultReconcileEveryTicks   = 20
	defaultExtractTimeoutSeconds = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir: defaultSourceDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
			MinFreeMB: defaultMinFreeMB,
		},
		Watcher: Watcher{
			PollIntervalMS:      defaultPollIntervalMS,
			RequiredStableTicks: defaultRequiredStableTicks,
			QueueCapacity:       defaultWatcherQueueCapacity,
		},
		Pipeline: Pipeline{
			TickIntervalMS:      defaultTickIntervalMS,
			ReconcileEveryTicks: defaultReconcileEveryTicks,
		},
		Identity: Identity{
			ExtractCommand:        "pdftotext",
			ExtractArgs:           []string{"-f", "1", "-l", "1", "{}", "-"},
			ExtractTimeoutSeconds: defaultExtractTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
