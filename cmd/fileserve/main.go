// Package main is the entry point for the fileserve CLI.
//
//	@title			fileserve API
//	@version		1.0
//	@description	Browse, download and range-stream files from a directory
//	@host			localhost:8080
//	@BasePath		/api/v1
package main

import (
	"fmt"
	"os"

	"github.com/helixml/fileserve/internal/config"
	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fileserve",
		Short: "Range-aware file server",
		Long: `fileserve serves a directory over HTTP. Files can be listed, downloaded,
or streamed one byte range at a time, and reads are exposed to AI
assistants over the Model Context Protocol.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(lsCmd())
	cmd.AddCommand(rangeCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
// An explicitly named env file must exist.
func loadConfig(envFile string) (config.AppConfig, error) {
	if envFile != "" {
		if err := config.MustLoadDotEnv(envFile); err != nil {
			return config.AppConfig{}, fmt.Errorf("load env file: %w", err)
		}
	}
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
