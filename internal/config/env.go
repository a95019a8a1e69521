// Package config provides application configuration.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., STREAM_RATE_LIMIT).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// RootDir is the directory served to clients.
	// Env: ROOT_DIR (default: .)
	RootDir string `envconfig:"ROOT_DIR" default:"."`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.fileserve
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/fileserve.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// Env: CORS_ALLOWED_ORIGINS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// ListConcurrency is the number of directory entries stat'ed in parallel.
	// Env: LIST_CONCURRENCY (default: 8)
	ListConcurrency int `envconfig:"LIST_CONCURRENCY" default:"8"`

	// ShutdownTimeoutSeconds bounds graceful shutdown.
	// Env: SHUTDOWN_TIMEOUT_SECONDS (default: 10)
	ShutdownTimeoutSeconds float64 `envconfig:"SHUTDOWN_TIMEOUT_SECONDS" default:"10"`

	// Stream configures file bodies.
	Stream StreamEnv `envconfig:"STREAM"`

	// TransferLog configures the transfer ledger.
	TransferLog TransferLogEnv `envconfig:"TRANSFER_LOG"`

	// MCP configures the MCP tools.
	MCP MCPEnv `envconfig:"MCP"`
}

// StreamEnv holds environment configuration for streamed bodies.
type StreamEnv struct {
	// RateLimit caps each body in bytes per second. Zero disables throttling.
	// Env: STREAM_RATE_LIMIT (default: 0)
	RateLimit int `envconfig:"RATE_LIMIT" default:"0"`

	// ContentType overrides the detected content type of /stream responses.
	// Env: STREAM_CONTENT_TYPE
	ContentType string `envconfig:"CONTENT_TYPE"`
}

// TransferLogEnv holds environment configuration for the transfer ledger.
type TransferLogEnv struct {
	// Enabled controls whether transfers are recorded.
	// Env: TRANSFER_LOG_ENABLED (default: true)
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// Retention is the number of transfers kept. Zero keeps everything.
	// Env: TRANSFER_LOG_RETENTION (default: 10000)
	Retention int `envconfig:"RETENTION" default:"10000"`
}

// MCPEnv holds environment configuration for the MCP server.
type MCPEnv struct {
	// MaxReadBytes caps the bytes returned by read_file_range.
	// Env: MCP_MAX_READ_BYTES (default: 65536)
	MaxReadBytes int64 `envconfig:"MAX_READ_BYTES" default:"65536"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	return LoadFromEnvWithPrefix("")
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "FILESERVE" would require FILESERVE_ROOT_DIR instead of ROOT_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.RootDir != "" {
		cfg = applyOption(cfg, WithRootDir(e.RootDir))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.CORSAllowedOrigins != "" {
		cfg = applyOption(cfg, WithCORSAllowedOrigins(ParseList(e.CORSAllowedOrigins)))
	}

	cfg = applyOption(cfg, WithListConcurrency(e.ListConcurrency))
	if e.ShutdownTimeoutSeconds > 0 {
		cfg = applyOption(cfg, WithShutdownTimeout(time.Duration(e.ShutdownTimeoutSeconds*float64(time.Second))))
	}

	cfg = applyOption(cfg, WithStreamRateLimit(e.Stream.RateLimit))
	cfg = applyOption(cfg, WithStreamContentType(strings.TrimSpace(e.Stream.ContentType)))

	cfg = applyOption(cfg, WithTransferLog(e.TransferLog.Enabled))
	cfg = applyOption(cfg, WithTransferRetention(e.TransferLog.Retention))

	cfg = applyOption(cfg, WithMCPMaxReadBytes(e.MCP.MaxReadBytes))

	return cfg
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
