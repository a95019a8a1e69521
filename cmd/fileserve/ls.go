package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/helixml/fileserve"
	"github.com/helixml/fileserve/domain/file"
	"github.com/helixml/fileserve/internal/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats for ls.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

type lsEntry struct {
	Name        string    `json:"name" yaml:"name"`
	Path        string    `json:"path" yaml:"path"`
	IsDirectory bool      `json:"is_directory" yaml:"is_directory"`
	Size        int64     `json:"size" yaml:"size"`
	Modified    time.Time `json:"modified_time" yaml:"modified_time"`
}

func lsCmd() *cobra.Command {
	var (
		envFile string
		root    string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory of the served root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case outputTable, outputJSON, outputYAML:
			default:
				return fmt.Errorf("unknown output format %q (want table, json or yaml)", output)
			}

			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			cfg = applyServeOverrides(cfg, "", 0, root)

			// No ledger: listing is not a transfer.
			client, err := fileserve.New(
				fileserve.WithRoot(cfg.RootDir()),
				fileserve.WithListConcurrency(cfg.ListConcurrency()),
				fileserve.WithLogger(log.NewLogger(cfg).Slog()),
			)
			if err != nil {
				return fmt.Errorf("create fileserve client: %w", err)
			}
			defer func() { _ = client.Close() }()

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			entries, err := client.Files.List(cmd.Context(), path)
			if err != nil {
				return err
			}
			return writeEntries(cmd.OutOrStdout(), entries, output)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&root, "root", "", "Directory to serve (default: .)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json, yaml")

	return cmd
}

func writeEntries(w io.Writer, entries []file.Entry, output string) error {
	rows := make([]lsEntry, len(entries))
	for i, e := range entries {
		rows[i] = lsEntry{
			Name:        e.Name(),
			Path:        e.Path(),
			IsDirectory: e.IsDirectory(),
			Size:        e.Size(),
			Modified:    e.ModifiedTime().UTC(),
		}
	}

	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tTYPE\tSIZE\tMODIFIED")
	for _, r := range rows {
		kind := "file"
		if r.IsDirectory {
			kind = "dir"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Name, kind, r.Size, r.Modified.Format(time.RFC3339))
	}
	return tw.Flush()
}
