package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent outcomes from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer application.Close()

		entries, err := application.History(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tRUN\tTITLE\tOUTCOME\tREVID\tDETAIL")
		for _, e := range entries {
			run := e.RunID
			if len(run) > 8 {
				run = run[:8]
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				e.CreatedAt.Local().Format(time.DateTime), run, e.Title, e.Outcome, e.NewRevID, e.Detail)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")
}
