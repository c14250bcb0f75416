package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sweep/config"
	"github.com/kilianp07/sweep/core/campaignfile"
)

var tableFlags struct {
	cachedOnly bool
	format     string
	dir        string
}

var tableCmd = &cobra.Command{
	Use:   "table <campaign.yaml>",
	Short: "Write the result tables of a campaign file",
	Args:  cobra.ExactArgs(1),
	RunE:  writeTables,
}

func init() {
	f := tableCmd.Flags()
	f.BoolVar(&tableFlags.cachedOnly, "cached-only", false, "use cached records only, leaving missing cells unknown")
	f.StringVar(&tableFlags.format, "format", "", "table format (csv or json)")
	f.StringVar(&tableFlags.dir, "dir", "", "output directory")
	rootCmd.AddCommand(tableCmd)
}

func tableOverrides(cfg *config.Config) {
	if tableFlags.cachedOnly {
		cfg.Cache.Enabled = true
		cfg.Cache.CachedOnly = true
	}
	if tableFlags.format != "" {
		cfg.Tables.Format = tableFlags.format
	}
	if tableFlags.dir != "" {
		cfg.Tables.Dir = tableFlags.dir
	}
}

func writeTables(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	file, err := campaignfile.Load(args[0])
	if err != nil {
		return err
	}
	svc, _, err := newService(tableOverrides)
	if err != nil {
		return err
	}
	paths, err := svc.Tables(ctx, file)
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return err
}
