package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediascan/internal/catalog"
	"mediascan/internal/config"
)

func newShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <path>",
		Short: "Show catalog details for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(ctx context.Context, cfg *config.Config, store *catalog.Store) error {
				path, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}

				file, err := store.GetByPath(ctx, path)
				if err != nil {
					return err
				}
				if file == nil {
					return fmt.Errorf("no catalog entry for %s", path)
				}

				pairs := [][2]string{
					{"Path", file.Path},
					{"Kind", string(file.Kind)},
					{"Status", string(file.Status)},
					{"Size", humanize.IBytes(uint64(file.Size))},
					{"Modified", file.ModTime.Local().Format(time.RFC3339)},
				}
				if file.Width > 0 {
					pairs = append(pairs, [2]string{"Dimensions", fmt.Sprintf("%dx%d", file.Width, file.Height)})
				}
				if file.ExactSig != "" {
					pairs = append(pairs, [2]string{"Exact signature", file.ExactSig})
				}
				if file.PerceptualSig != nil {
					pairs = append(pairs, [2]string{"Perceptual signature", fmt.Sprintf("%016x", *file.PerceptualSig)})
				}
				if file.ErrorReason != "" {
					pairs = append(pairs, [2]string{"Error", file.ErrorReason})
				}
				pairs = append(pairs, [2]string{"Junk", yesNo(file.IsJunk)})
				if file.IsJunk {
					pairs = append(pairs, [2]string{"Junk rule", file.JunkRule})
					pairs = append(pairs, [2]string{"Junk reason", file.JunkReason})
				}
				if file.GroupID != "" {
					pairs = append(pairs, [2]string{"Duplicate group", file.GroupID})
				}
				if file.TakenAt != nil {
					pairs = append(pairs, [2]string{"Taken at", file.TakenAt.Local().Format(time.RFC3339)})
				}
				if file.Camera != "" {
					pairs = append(pairs, [2]string{"Camera", file.Camera})
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderPairs("Field", pairs, false))
				return nil
			})
		},
	}
}
