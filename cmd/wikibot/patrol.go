package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var patrolCmd = &cobra.Command{
	Use:   "patrol REVID",
	Short: "Mark a revision as patrolled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		revID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid revision id %q: %w", args[0], err)
		}

		application, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer application.Close()

		res, err := application.Patrol(cmd.Context(), revID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "patrolled %s rev %d (rcid %d)\n", res.Title, res.RevID, res.RCID)
		return nil
	},
}
