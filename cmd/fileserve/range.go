package main

import (
	"fmt"

	"github.com/helixml/fileserve/domain/byterange"
	"github.com/helixml/fileserve/infrastructure/filesystem"
	"github.com/spf13/cobra"
)

func rangeCmd() *cobra.Command {
	var (
		size        int64
		contentType string
	)

	cmd := &cobra.Command{
		Use:   "range [RANGE]",
		Short: "Show how a Range header resolves against a file size",
		Long: `Show the status and headers fileserve would send for a Range header
against a file of --size bytes. Without RANGE the full-file decision is shown.`,
		Example: `  fileserve range --size 1000 bytes=0-499
  fileserve range --size 1000 bytes=900-`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < 0 {
				return fmt.Errorf("--size must not be negative")
			}
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}

			d := byterange.Resolve(size, raw, contentType)

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%d %s\n", d.Status().HTTPStatus(), d.Status())
			for _, h := range d.Headers() {
				_, _ = fmt.Fprintf(out, "%s: %s\n", h.Name, h.Value)
			}
			if !d.Satisfiable() {
				_, _ = fmt.Fprintf(out, "\n%s\n", d.Message())
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&size, "size", 0, "File size in bytes")
	cmd.Flags().StringVar(&contentType, "content-type", filesystem.DefaultContentType, "Content-Type to report")
	_ = cmd.MarkFlagRequired("size")

	return cmd
}
