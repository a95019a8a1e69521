package fileserve

import (
	"log/slog"

	"github.com/helixml/fileserve/internal/config"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	root              string
	dbURL             string
	logger            *slog.Logger
	rateLimit         int
	contentType       string
	listConcurrency   int
	transferRetention int
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		listConcurrency:   config.DefaultListConcurrency,
		transferRetention: config.DefaultTransferRetention,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithRoot sets the directory whose contents are served. Required.
func WithRoot(dir string) Option {
	return func(c *clientConfig) {
		c.root = dir
	}
}

// WithDatabaseURL enables the transfer ledger, stored in the database at url.
// Supported schemes are sqlite:/// and postgres://.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.dbURL = url
	}
}

// WithSQLite enables the transfer ledger in a SQLite file at path.
func WithSQLite(path string) Option {
	return WithDatabaseURL("sqlite:///" + path)
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithRateLimit throttles every opened body to bytesPerSecond.
// Zero, the default, disables throttling.
func WithRateLimit(bytesPerSecond int) Option {
	return func(c *clientConfig) {
		if bytesPerSecond >= 0 {
			c.rateLimit = bytesPerSecond
		}
	}
}

// WithContentType serves every file with contentType instead of detecting
// it from the file extension.
func WithContentType(contentType string) Option {
	return func(c *clientConfig) {
		c.contentType = contentType
	}
}

// WithListConcurrency sets how many directory entries are stat'ed in parallel.
func WithListConcurrency(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.listConcurrency = n
		}
	}
}

// WithTransferRetention bounds how many ledger rows are kept.
// Zero keeps everything.
func WithTransferRetention(n int) Option {
	return func(c *clientConfig) {
		if n >= 0 {
			c.transferRetention = n
		}
	}
}

// WithConfig applies the server-relevant settings of cfg. The ledger is
// enabled only when cfg.TransferLog() is true.
func WithConfig(cfg config.AppConfig) Option {
	return func(c *clientConfig) {
		c.root = cfg.RootDir()
		c.rateLimit = cfg.StreamRateLimit()
		c.contentType = cfg.StreamContentType()
		c.listConcurrency = cfg.ListConcurrency()
		c.transferRetention = cfg.TransferRetention()
		c.dbURL = ""
		if cfg.TransferLog() {
			c.dbURL = cfg.DBURL()
		}
	}
}
