package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediascan/internal/catalog"
	"mediascan/internal/config"
	"mediascan/internal/watcher"
)

func newWatchCommand(cmdCtx *commandContext) *cobra.Command {
	var skipInitialScan bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scan once, then follow filesystem changes continuously",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(ctx context.Context, cfg *config.Config, store *catalog.Store) error {
				pipe, logger, err := newPipeline(cfg, store)
				if err != nil {
					return err
				}

				if !skipInitialScan {
					summary, err := pipe.Scan(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
				}

				w, err := watcher.New(cfg, pipe, logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", cfg.Scan.Root)
				if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipInitialScan, "no-initial-scan", false, "Skip the full scan before watching")
	return cmd
}
