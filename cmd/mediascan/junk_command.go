package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"mediascan/internal/catalog"
	"mediascan/internal/config"
)

func newJunkCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "junk",
		Short: "List files flagged as junk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(ctx context.Context, cfg *config.Config, store *catalog.Store) error {
				files, err := store.JunkFiles(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(files) == 0 {
					fmt.Fprintln(out, "No junk files flagged.")
					return nil
				}

				tw := newListTable(table.Row{"Path", "Rule", "Reason", "Size"}, 4)
				var total int64
				for _, file := range files {
					tw.AppendRow(table.Row{file.Path, file.JunkRule, file.JunkReason, humanize.IBytes(uint64(file.Size))})
					total += file.Size
				}
				fmt.Fprintln(out, tw.Render())
				fmt.Fprintf(out, "%d junk files, %s total\n", len(files), humanize.IBytes(uint64(total)))
				return nil
			})
		},
	}
}
