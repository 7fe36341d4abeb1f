package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OldStager01/getaround-pricing/internal/delay"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the checkout delay report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q, want table or json", format)
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			store, fetcher := newDatasetStore(cfg, nil)
			defer fetcher.Close()

			report, err := newReporter(cfg, store).Report(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return delay.WriteTable(out, report)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	return cmd
}
