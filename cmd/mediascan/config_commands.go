package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediascan/internal/config"
)

func newConfigCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigValidateCommand(cmdCtx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a starter configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveInitTarget(targetPath)
			if err != nil {
				return err
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", target)
			fmt.Fprintln(out, "Set scan.root before running a scan.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// resolveInitTarget expands the requested destination, falling back to the
// default config location when none is given.
func resolveInitTarget(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return config.DefaultConfigPath()
	}
	return config.ExpandPath(requested)
}

func newConfigValidateCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and show the resolved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			source := cmdCtx.configPath
			if !cmdCtx.configExists {
				source += " (missing; defaults in effect)"
			}
			pairs := [][2]string{
				{"Config file", source},
				{"Scan root", cfg.Scan.Root},
				{"Catalog", filepath.Join(cfg.Paths.CatalogDir, "catalog.db")},
				{"Workers", strconv.Itoa(cfg.Pipeline.Workers)},
				{"Near threshold", strconv.Itoa(cfg.Dedupe.NearThreshold)},
				{"Video sample frames", strconv.Itoa(cfg.Video.SampleFrames)},
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderPairs("Setting", pairs, false))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
