package main

import (
	"fmt"
	"log/slog"

	"github.com/helixml/fileserve"
	"github.com/helixml/fileserve/internal/log"
	"github.com/helixml/fileserve/internal/mcp"
	"github.com/spf13/cobra"
)

func stdioCmd() *cobra.Command {
	var (
		envFile string
		root    string
	)

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants list the served directory and read byte ranges of
its files. Configuration is loaded from environment variables and .env file.
Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			cfg = applyServeOverrides(cfg, "", 0, root)

			if err := cfg.EnsureDataDir(); err != nil {
				return fmt.Errorf("create data directory: %w", err)
			}

			slogger := log.NewLogger(cfg).Slog()
			slogger.Info("starting MCP server",
				slog.String("version", version),
				slog.String("root", cfg.RootDir()),
			)

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

			mcpServer := mcp.NewServer(client.Files, client.Transfers, cfg.MCPMaxReadBytes(), version, slogger)
			return mcpServer.ServeStdio()
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&root, "root", "", "Directory to serve (default: .)")

	return cmd
}
