package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sweep/core/ledger"
)

var historyFlags struct {
	session  string
	campaign string
	method   string
	since    time.Duration
	limit    int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past runs recorded in the ledger",
	Args:  cobra.NoArgs,
	RunE:  showHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.session, "session", "", "only runs of this session")
	f.StringVar(&historyFlags.campaign, "campaign", "", "only runs of this campaign")
	f.StringVar(&historyFlags.method, "method", "", "only runs of this method")
	f.DurationVar(&historyFlags.since, "since", 0, "only runs newer than this, e.g. 24h")
	f.IntVar(&historyFlags.limit, "limit", 0, "show at most this many runs")
	rootCmd.AddCommand(historyCmd)
}

func showHistory(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	svc, _, err := newService(nil)
	if err != nil {
		return err
	}
	q := ledger.Query{
		Session:  historyFlags.session,
		Campaign: historyFlags.campaign,
		Method:   historyFlags.method,
		Limit:    historyFlags.limit,
	}
	if historyFlags.since > 0 {
		q.Since = time.Now().Add(-historyFlags.since)
	}
	recs, err := svc.History(ctx, q)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSESSION\tCAMPAIGN\tMETHOD\tESTIMATE\tCOST\tCACHED")
	for _, r := range recs {
		cost := "-"
		if r.Known {
			cost = fmt.Sprintf("%g", r.Cost)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%s\t%t\n",
			r.Timestamp.Format(time.RFC3339), r.Session, r.Campaign, r.Method, r.Estimate, cost, r.Cached)
	}
	return w.Flush()
}
