package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/helixml/fileserve"
	"github.com/helixml/fileserve/infrastructure/api"
	apimiddleware "github.com/helixml/fileserve/infrastructure/api/middleware"
	"github.com/helixml/fileserve/internal/config"
	"github.com/helixml/fileserve/internal/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
		root    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP file server",
		Long: `Start the HTTP file server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                          Server host to bind to (default: 0.0.0.0)
  PORT                          Server port to listen on (default: 8080)
  ROOT_DIR                      Directory to serve (default: .)
  DATA_DIR                      Data directory (default: .fileserve)
  DB_URL                        Ledger database URL (default: sqlite:///{data_dir}/fileserve.db)
  LOG_LEVEL                     Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                    Log format: pretty, json (default: pretty)
  CORS_ALLOWED_ORIGINS          Comma-separated origins allowed to fetch ranges
  LIST_CONCURRENCY              Parallel stat calls per listing (default: 8)
  SHUTDOWN_TIMEOUT_SECONDS      Grace period for open streams (default: 10)

  STREAM_RATE_LIMIT             Per-stream bytes per second, 0 for unlimited
  STREAM_CONTENT_TYPE           Force one Content-Type on every stream

  TRANSFER_LOG_ENABLED          Record served transfers (default: true)
  TRANSFER_LOG_RETENTION        Transfers kept in the ledger (default: 10000)

  MCP_MAX_READ_BYTES            Largest read_file_range result (default: 65536)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			cfg = applyServeOverrides(cfg, host, port, root)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")
	cmd.Flags().StringVar(&root, "root", "", "Directory to serve (default: .)")

	return cmd
}

func runServe(ctx context.Context, cfg config.AppConfig) error {
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(ctx, slog.LevelInfo, "starting fileserve", attrs...)

	client, err := fileserve.New(
		fileserve.WithConfig(cfg),
		fileserve.WithLogger(slogger),
	)
	if err != nil {
		return fmt.Errorf("create fileserve client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close fileserve client", slog.Any("error", err))
		}
	}()

	apiServer := newAPIServer(client, cfg, slogger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(apiServer.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		slogger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// newAPIServer builds the application routes: request logging, correlation
// IDs, the v1 API, MCP, health checks and documentation.
func newAPIServer(client *fileserve.Client, cfg config.AppConfig, logger *slog.Logger) *api.APIServer {
	apiServer := api.NewAPIServer(client, cfg, version)
	router := apiServer.Router()

	// Middleware must be added before MountRoutes.
	router.Use(apimiddleware.Logging(logger))
	router.Use(apimiddleware.CorrelationID)

	apiServer.MountRoutes()

	router.Get("/health", healthHandler)
	router.Get("/healthz", healthHandler)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"name":"fileserve","version":"%s","docs":"/docs"}`, version)
	})

	docsRouter := apiServer.DocsRouter("/docs/openapi.json")
	router.Mount("/docs", docsRouter.Routes())

	return apiServer
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int, root string) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}
	if root != "" {
		opts = append(opts, config.WithRootDir(root))
	}

	return cfg.Apply(opts...)
}
