package config

const (
	defaultConfigPath            = "~/.config/visualverify/config.toml"
	defaultDataDir               = "~/.local/share/visualverify"
	defaultLogDir                = "~/.local/share/visualverify/logs"
	defaultAPIBind               = "127.0.0.1:7488"
	defaultSerpAPIURL            = "https://serpapi.com"
	defaultBingURL               = "https://api.bing.microsoft.com"
	defaultProviderTimeout       = 15
	defaultRequestsPerMinute     = 30
	defaultMaxResults            = 10
	defaultFetchTimeout          = 15
	defaultFetchMaxBytes         = 20 << 20
	defaultUserAgent             = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultNearDuplicateDistance = 6
	defaultCacheTTLDays          = 30
	defaultWorkers               = 2
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultNotifyTimeout         = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Providers: Providers{
			SerpAPIURL:        defaultSerpAPIURL,
			BingURL:           defaultBingURL,
			TimeoutSeconds:    defaultProviderTimeout,
			RequestsPerMinute: defaultRequestsPerMinute,
			MaxResults:        defaultMaxResults,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeout,
			MaxBytes:       defaultFetchMaxBytes,
			UserAgent:      defaultUserAgent,
		},
		Cache: Cache{
			Enabled:               true,
			NearDuplicateDistance: defaultNearDuplicateDistance,
			TTLDays:               defaultCacheTTLDays,
		},
		Workflow: Workflow{
			QueuePollInterval:  2,
			ErrorRetryInterval: 10,
			Workers:            defaultWorkers,
			HeartbeatInterval:  15,
			HeartbeatTimeout:   120,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Verdicts:       true,
			FlaggedOnly:    true,
			Errors:         true,
		},
	}
}
