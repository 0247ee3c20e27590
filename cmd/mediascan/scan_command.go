package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mediascan/internal/catalog"
	"mediascan/internal/config"
	"mediascan/internal/pipeline"
)

func newScanCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the configured root and update the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(ctx context.Context, cfg *config.Config, store *catalog.Store) error {
				pipe, _, err := newPipeline(cfg, store)
				if err != nil {
					return err
				}

				summary, err := pipe.Scan(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
				return nil
			})
		},
	}
}

func renderSummary(summary *pipeline.Summary) string {
	pairs := [][2]string{
		{"Files found", strconv.Itoa(summary.Found)},
		{"New", strconv.Itoa(summary.New)},
		{"Changed", strconv.Itoa(summary.Changed)},
		{"Unchanged", strconv.Itoa(summary.Unchanged)},
		{"Revived", strconv.Itoa(summary.Revived)},
		{"Missing", strconv.Itoa(summary.Missing)},
		{"Signed", strconv.Itoa(summary.Signed)},
		{"Errors", strconv.Itoa(summary.Errors)},
		{"Junk", strconv.Itoa(summary.Junk)},
		{"Exact groups", strconv.Itoa(summary.ExactGroups)},
		{"Near groups", strconv.Itoa(summary.NearGroups)},
		{"Duration", summary.Duration.Round(time.Millisecond).String()},
	}
	return renderPairs("Metric", pairs, true)
}
