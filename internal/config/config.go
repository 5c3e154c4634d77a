package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	common "github.com/bobmcallan/tahlil-portal/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	API         APIConfig     `toml:"api"`
	Session     SessionConfig `toml:"session"`
	Render      RenderConfig  `toml:"render"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

// APIConfig points the portal at the analysis backend.
type APIConfig struct {
	URL         string  `toml:"url" validate:"required,url"`
	AnalyzePath string  `toml:"analyze_path" validate:"required,startswith=/"`
	Timeout     string  `toml:"timeout"`
	RateLimit   float64 `toml:"rate_limit" validate:"gte=0"`
}

// SessionConfig bounds the in-memory report session store.
type SessionConfig struct {
	TTL        string `toml:"ttl"`
	MaxEntries int    `toml:"max_entries" validate:"min=1"`
}

// RenderConfig controls the report renderer.
type RenderConfig struct {
	CacheTTL string `toml:"cache_ttl"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Outputs    []string `toml:"outputs" validate:"dive,oneof=console file"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// IsDevMode returns true when environment is "dev".
func (c *Config) IsDevMode() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "dev")
}

// BaseURL returns the portal's own URL.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
}

// APITimeout parses api.timeout. Zero means no timeout.
func (c *Config) APITimeout() time.Duration {
	return parseDuration(c.API.Timeout)
}

// defaultSessionTTL applies when session.ttl is unset.
const defaultSessionTTL = 30 * time.Minute

// SessionTTL parses session.ttl, falling back to 30m when unset.
func (c *Config) SessionTTL() time.Duration {
	if d := parseDuration(c.Session.TTL); d > 0 {
		return d
	}
	return defaultSessionTTL
}

// RenderCacheTTL parses render.cache_ttl.
func (c *Config) RenderCacheTTL() time.Duration {
	return parseDuration(c.Render.CacheTTL)
}

// LoggerConfig converts the logging section for common.NewLoggerFromConfig.
func (c *Config) LoggerConfig() common.LoggingConfig {
	return common.LoggingConfig{
		Level:      c.Logging.Level,
		Outputs:    c.Logging.Outputs,
		FilePath:   c.Logging.FilePath,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
	}
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Validate returns a human-readable list of configuration problems.
// An empty slice means the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string

	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				issues = append(issues, fmt.Sprintf("%s: failed %q check (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			issues = append(issues, err.Error())
		}
	}

	durations := map[string]string{
		"api.timeout":      c.API.Timeout,
		"session.ttl":      c.Session.TTL,
		"render.cache_ttl": c.Render.CacheTTL,
	}
	for _, key := range []string{"api.timeout", "session.ttl", "render.cache_ttl"} {
		v := durations[key]
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: invalid duration %q", key, v))
			continue
		}
		if d < 0 {
			issues = append(issues, fmt.Sprintf("%s: must not be negative", key))
		}
	}
	if d, err := time.ParseDuration(c.Session.TTL); err == nil && d == 0 {
		issues = append(issues, "session.ttl: must be greater than zero")
	}

	return issues
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> .env -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// .env is optional; existing environment variables win.
	_ = godotenv.Load()

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies TAHLIL_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TAHLIL_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("TAHLIL_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TAHLIL_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if url := os.Getenv("TAHLIL_API_URL"); url != "" {
		config.API.URL = url
	}
	if path := os.Getenv("TAHLIL_API_ANALYZE_PATH"); path != "" {
		config.API.AnalyzePath = path
	}
	if timeout := os.Getenv("TAHLIL_API_TIMEOUT"); timeout != "" {
		config.API.Timeout = timeout
	}
	if rl := os.Getenv("TAHLIL_API_RATE_LIMIT"); rl != "" {
		if v, err := strconv.ParseFloat(rl, 64); err == nil {
			config.API.RateLimit = v
		}
	}
	if ttl := os.Getenv("TAHLIL_SESSION_TTL"); ttl != "" {
		config.Session.TTL = ttl
	}
	if level := os.Getenv("TAHLIL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if outputs := os.Getenv("TAHLIL_LOG_OUTPUTS"); outputs != "" {
		var list []string
		for _, o := range strings.Split(outputs, ",") {
			if o = strings.TrimSpace(o); o != "" {
				list = append(list, o)
			}
		}
		config.Logging.Outputs = list
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
