package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sweep/app"
	"github.com/kilianp07/sweep/config"
	"github.com/kilianp07/sweep/core/campaignfile"
)

var runFlags struct {
	noCache     bool
	cachedOnly  bool
	stopOnError bool
	noTables    bool
}

var runCmd = &cobra.Command{
	Use:   "run <campaign.yaml>",
	Short: "Run every campaign of a file, cheapest next run first, then write its tables",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaigns,
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runFlags.noCache, "no-cache", false, "ignore cached records and rerun everything")
	f.BoolVar(&runFlags.cachedOnly, "cached-only", false, "never start the solver; report what would run")
	f.BoolVar(&runFlags.stopOnError, "stop-on-error", false, "abort on the first failed run")
	f.BoolVar(&runFlags.noTables, "no-tables", false, "skip writing result tables")
	rootCmd.AddCommand(runCmd)
}

func runOverrides(cfg *config.Config) {
	if runFlags.noCache {
		cfg.Cache.Enabled = false
	}
	if runFlags.cachedOnly {
		cfg.Cache.Enabled = true
		cfg.Cache.CachedOnly = true
	}
	if runFlags.stopOnError {
		cfg.Run.StopOnError = true
	}
}

func runCampaigns(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	file, err := campaignfile.Load(args[0])
	if err != nil {
		return err
	}
	svc, cfg, err := newService(runOverrides)
	if err != nil {
		return err
	}

	if cfg.Cache.CachedOnly {
		pending, err := svc.Pending(file)
		if err != nil {
			return err
		}
		printWouldRun(cmd, pending)
	} else {
		if _, err := svc.Run(ctx, file); err != nil {
			return fmt.Errorf("session %s: %w", svc.Session(), err)
		}
	}

	if runFlags.noTables {
		return nil
	}
	paths, err := svc.Tables(ctx, file)
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return err
}

func printWouldRun(cmd *cobra.Command, pending []app.Pending) {
	out := cmd.OutOrStdout()
	for _, p := range pending {
		for _, inst := range p.Missing {
			fmt.Fprintf(out, "would run: %s method=%s\n", inst.Params().Description(), p.Method)
		}
	}
}
