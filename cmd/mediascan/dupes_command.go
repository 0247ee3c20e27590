package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"mediascan/internal/catalog"
	"mediascan/internal/config"
)

func newDupesCommand(cmdCtx *commandContext) *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "List duplicate groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(ctx context.Context, cfg *config.Config, store *catalog.Store) error {
				groups, err := store.Duplicates(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(groups) == 0 {
					fmt.Fprintln(out, "No duplicate groups. Run `mediascan scan` first.")
					return nil
				}

				tw := newListTable(table.Row{"Relation", "Files", "Canonical"}, 2)
				for _, group := range groups {
					tw.AppendRow(table.Row{string(group.Relation), len(group.MemberPaths), group.CanonicalPath})
				}
				fmt.Fprintln(out, tw.Render())

				if long {
					for _, group := range groups {
						fmt.Fprintf(out, "\n%s group %s (threshold %d):\n", group.Relation, group.ID, group.Threshold)
						for _, path := range group.MemberPaths {
							marker := " "
							if path == group.CanonicalPath {
								marker = "*"
							}
							fmt.Fprintf(out, "  %s %s\n", marker, path)
						}
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "List every member path per group")
	return cmd
}
