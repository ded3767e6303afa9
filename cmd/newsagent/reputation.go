package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var reputationCmd = &cobra.Command{
	Use:   "reputation",
	Short: "Show per-domain ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		ranking, err := a.reputation.Ranking(ctx, top)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DOMAIN\tMEAN\tRATINGS\tBLOCKED")
		for _, st := range ranking {
			fmt.Fprintf(w, "%s\t%.2f\t%d\t%t\n", st.Domain, st.Mean, st.Count, st.Blocked)
		}
		return w.Flush()
	},
}

func init() {
	reputationCmd.Flags().Int("top", 20, "number of domains to show, 0 for all")
}
