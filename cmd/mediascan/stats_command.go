package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediascan/internal/catalog"
	"mediascan/internal/config"
)

func newStatsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog summary statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(ctx context.Context, cfg *config.Config, store *catalog.Store) error {
				stats, err := store.Stats(ctx)
				if err != nil {
					return err
				}

				pairs := [][2]string{
					{"Tracked files", strconv.Itoa(stats.Total)},
					{"Images", strconv.Itoa(stats.Images)},
					{"Videos", strconv.Itoa(stats.Videos)},
					{"Signed", strconv.Itoa(stats.Signed)},
					{"Errors", strconv.Itoa(stats.Errors)},
					{"Junk", strconv.Itoa(stats.Junk)},
					{"Removed", strconv.Itoa(stats.Removed)},
					{"In duplicate groups", strconv.Itoa(stats.Grouped)},
					{"Duplicate groups", strconv.Itoa(stats.Groups)},
					{"Total size", humanize.IBytes(uint64(stats.TotalBytes))},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderPairs("Metric", pairs, true))
				fmt.Fprintf(cmd.OutOrStdout(), "Catalog: %s\n", store.Path())
				return nil
			})
		},
	}
}
