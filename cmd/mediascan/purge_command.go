package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mediascan/internal/catalog"
	"mediascan/internal/config"
)

func newPurgeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Permanently delete tombstoned catalog rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(ctx context.Context, cfg *config.Config, store *catalog.Store) error {
				purged, err := store.PurgeRemoved(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d removed entries\n", purged)
				return nil
			})
		},
	}
}
