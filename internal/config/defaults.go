package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4251,
			Host: "localhost",
		},
		API: APIConfig{
			URL:         "http://localhost:5000",
			AnalyzePath: "/api/analyze",
			Timeout:     "0s",
			RateLimit:   0,
		},
		Session: SessionConfig{
			TTL:        "30m",
			MaxEntries: 10000,
		},
		Render: RenderConfig{
			CacheTTL: "1h",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Outputs: []string{"console"},
		},
	}
}
