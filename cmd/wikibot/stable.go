package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stableCmd = &cobra.Command{
	Use:   "stable TITLE",
	Short: "Report whether a page's latest revision is the reviewed one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer application.Close()

		state, err := application.Stable(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: stable=%t", state.Title, state.Stable())
		if state.Exists {
			fmt.Fprintf(out, " lastrevid=%d", state.LastRevID)
		}
		if state.Flagged {
			fmt.Fprintf(out, " stable_revid=%d", state.StableRevID)
		}
		fmt.Fprintln(out)
		return nil
	},
}
