package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default values.
const (
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 8080
	DefaultRootDir           = "."
	DefaultLogLevel          = "INFO"
	DefaultListConcurrency   = 8
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultTransferRetention = 10000
	DefaultMCPMaxReadBytes   = 64 * 1024
	DefaultDBFile            = "fileserve.db"
)

// LogFormat represents log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// AppConfig holds the server configuration. It is built once at startup and
// passed explicitly to the components that need it.
type AppConfig struct {
	host               string
	port               int
	rootDir            string
	dataDir            string
	dbURL              string
	logLevel           string
	logFormat          LogFormat
	corsAllowedOrigins []string
	listConcurrency    int
	shutdownTimeout    time.Duration
	streamRateLimit    int
	streamContentType  string
	transferLog        bool
	transferRetention  int
	mcpMaxReadBytes    int64
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fileserve"
	}
	return filepath.Join(home, ".fileserve")
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:               DefaultHost,
		port:               DefaultPort,
		rootDir:            DefaultRootDir,
		dataDir:            dataDir,
		dbURL:              defaultDBURL(dataDir),
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		corsAllowedOrigins: []string{},
		listConcurrency:    DefaultListConcurrency,
		shutdownTimeout:    DefaultShutdownTimeout,
		transferLog:        true,
		transferRetention:  DefaultTransferRetention,
		mcpMaxReadBytes:    DefaultMCPMaxReadBytes,
	}
}

func defaultDBURL(dataDir string) string {
	return "sqlite:///" + filepath.Join(dataDir, DefaultDBFile)
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// RootDir returns the directory served to clients.
func (c AppConfig) RootDir() string { return c.rootDir }

// DataDir returns the data directory.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// CORSAllowedOrigins returns the allowed CORS origins. Empty disables CORS.
func (c AppConfig) CORSAllowedOrigins() []string {
	result := make([]string, len(c.corsAllowedOrigins))
	copy(result, c.corsAllowedOrigins)
	return result
}

// ListConcurrency returns how many entries are stat'ed in parallel.
func (c AppConfig) ListConcurrency() int { return c.listConcurrency }

// ShutdownTimeout returns the graceful shutdown bound.
func (c AppConfig) ShutdownTimeout() time.Duration { return c.shutdownTimeout }

// StreamRateLimit returns the per-body byte rate, zero for unlimited.
func (c AppConfig) StreamRateLimit() int { return c.streamRateLimit }

// StreamContentType returns the forced /stream content type, empty to detect.
func (c AppConfig) StreamContentType() string { return c.streamContentType }

// TransferLog reports whether the transfer ledger is enabled.
func (c AppConfig) TransferLog() bool { return c.transferLog }

// TransferRetention returns the number of ledger rows kept.
func (c AppConfig) TransferRetention() int { return c.transferRetention }

// MCPMaxReadBytes returns the read_file_range byte cap.
func (c AppConfig) MCPMaxReadBytes() int64 { return c.mcpMaxReadBytes }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithRootDir sets the served directory.
func WithRootDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.rootDir = dir }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		// Keep the default database next to the data directory.
		if c.dbURL == "" || c.dbURL == defaultDBURL(c.dataDir) {
			c.dbURL = defaultDBURL(dir)
		}
		c.dataDir = dir
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithCORSAllowedOrigins sets the allowed CORS origins.
func WithCORSAllowedOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsAllowedOrigins = make([]string, len(origins))
		copy(c.corsAllowedOrigins, origins)
	}
}

// WithListConcurrency sets the directory listing parallelism.
func WithListConcurrency(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.listConcurrency = n
		}
	}
}

// WithShutdownTimeout sets the graceful shutdown bound.
func WithShutdownTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// WithStreamRateLimit sets the per-body byte rate. Negative values disable it.
func WithStreamRateLimit(bytesPerSecond int) AppConfigOption {
	return func(c *AppConfig) { c.streamRateLimit = max(bytesPerSecond, 0) }
}

// WithStreamContentType forces the /stream content type.
func WithStreamContentType(contentType string) AppConfigOption {
	return func(c *AppConfig) { c.streamContentType = contentType }
}

// WithTransferLog enables or disables the transfer ledger.
func WithTransferLog(enabled bool) AppConfigOption {
	return func(c *AppConfig) { c.transferLog = enabled }
}

// WithTransferRetention sets how many ledger rows are kept.
func WithTransferRetention(n int) AppConfigOption {
	return func(c *AppConfig) { c.transferRetention = max(n, 0) }
}

// WithMCPMaxReadBytes sets the read_file_range byte cap.
func WithMCPMaxReadBytes(n int64) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.mcpMaxReadBytes = n
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	return NewAppConfig().Apply(opts...)
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("root_dir", c.rootDir),
		slog.String("data_dir", c.dataDir),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.Bool("transfer_log", c.transferLog),
		slog.Int("stream_rate_limit", c.streamRateLimit),
		slog.Int("list_concurrency", c.listConcurrency),
		slog.Int("cors_origins_count", len(c.corsAllowedOrigins)),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

// ParseList parses a comma-separated string, dropping empty items.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
