package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sweep/core/campaignfile"
)

var lsCmd = &cobra.Command{
	Use:   "ls <campaign.yaml>",
	Short: "List the problems of a campaign file and how much of each is cached",
	Args:  cobra.ExactArgs(1),
	RunE:  listCampaigns,
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

func listCampaigns(cmd *cobra.Command, args []string) error {
	file, err := campaignfile.Load(args[0])
	if err != nil {
		return err
	}
	svc, _, err := newService(nil)
	if err != nil {
		return err
	}
	pending, err := svc.Pending(file)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROBLEM\tMETHOD\tINSTANCES\tCACHED")
	for _, p := range pending {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", p.Problem, p.Method, p.Total, p.Cached)
	}
	return w.Flush()
}
