// Package fileserve provides a library for browsing, downloading and
// range-streaming files from a directory.
//
// Basic usage:
//
//	client, err := fileserve.New(
//	    fileserve.WithRoot("/srv/media"),
//	    fileserve.WithSQLite("/var/lib/fileserve/ledger.db"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Files.Open(ctx, "movie.mp4", "bytes=0-1023")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer res.Close()
//	fmt.Println(res.Decision().Status(), res.Decision().Length())
package fileserve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/helixml/fileserve/application/service"
	"github.com/helixml/fileserve/infrastructure/filesystem"
	"github.com/helixml/fileserve/infrastructure/persistence"
	"github.com/helixml/fileserve/internal/database"
)

// Client is the main entry point for the fileserve library.
//
// Access resources via struct fields:
//
//	client.Files.List(ctx, "videos")
//	client.Files.Open(ctx, "videos/a.mp4", "bytes=0-")
//	client.Transfers.Recent(ctx, transfer.NewFilter(), 20, 0)
type Client struct {
	Files     *service.Files
	Transfers *service.Transfers

	disk   *filesystem.Disk
	db     *database.Database
	logger *slog.Logger
	closed atomic.Bool
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.root == "" {
		return nil, ErrNoRoot
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	disk, err := filesystem.NewDisk(cfg.root, filesystem.WithListConcurrency(cfg.listConcurrency))
	if err != nil {
		return nil, fmt.Errorf("open root: %w", err)
	}

	var fileOpts []service.FilesOption
	if cfg.rateLimit > 0 {
		fileOpts = append(fileOpts, service.WithRateLimit(cfg.rateLimit))
	}
	if cfg.contentType != "" {
		fileOpts = append(fileOpts, service.WithContentType(cfg.contentType))
	}

	client := &Client{
		Files:  service.NewFiles(disk, disk, logger, fileOpts...),
		disk:   disk,
		logger: logger,
	}

	if cfg.dbURL == "" {
		client.Transfers = service.NewTransfers(nil, 0, logger)
		logger.Info("fileserve client ready", slog.String("root", disk.Root()), slog.Bool("transfer_log", false))
		return client, nil
	}

	ctx := context.Background()
	db, err := database.NewDatabaseWithLogger(ctx, cfg.dbURL, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := configurePool(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(err, errClose)
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	if err := persistence.ValidateSchema(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), errClose)
	}

	client.db = &db
	client.Transfers = service.NewTransfers(persistence.NewTransferStore(db), cfg.transferRetention, logger)

	logger.Info("fileserve client ready", slog.String("root", disk.Root()), slog.Bool("transfer_log", true))
	return client, nil
}

// Root returns the absolute directory being served.
func (c *Client) Root() string {
	return c.disk.Root()
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Close releases the database connection, if any.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}

	c.logger.Info("fileserve client closed")
	return nil
}

// configurePool sizes the connection pool for the ledger. SQLite allows a
// single writer, so concurrent transfer records share one connection.
func configurePool(db database.Database) error {
	if db.IsSQLite() {
		return db.ConfigurePool(1, 1, 0)
	}
	return db.ConfigurePool(10, 5, 30*time.Minute)
}
