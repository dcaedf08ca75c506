package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"wikibot/internal/config"
	"wikibot/internal/domain"
	"wikibot/internal/usecase"
)

var (
	runMode        string
	runMaxAttempts int
	runPause       time.Duration
	runSeed        uint64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process random candidates until the scheduler policy is met",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp(cmd, func(cfg *config.Config) {
			if cmd.Flags().Changed("mode") {
				cfg.Scheduler.Mode = runMode
			}
			if cmd.Flags().Changed("max-attempts") {
				cfg.Scheduler.MaxAttempts = runMaxAttempts
			}
			if cmd.Flags().Changed("pause") {
				cfg.Scheduler.Pause = runPause
			}
			if cmd.Flags().Changed("seed") {
				cfg.Scheduler.Seed = runSeed
			}
		})
		if err != nil {
			return err
		}
		defer application.Close()

		summary, err := application.Run(cmd.Context())
		if summary.Attempts > 0 {
			writeSummary(cmd.OutOrStdout(), summary)
		}
		return err
	},
}

// writeSummary prints outcome counts in a fixed order, omitting zeros.
func writeSummary(out io.Writer, summary usecase.Summary) {
	fmt.Fprintf(out, "run %s: %d attempts, %d skipped\n", summary.RunID, summary.Attempts, summary.Skipped())
	for _, outcome := range domain.Outcomes {
		if n := summary.Counts[outcome]; n > 0 {
			fmt.Fprintf(out, "  %-18s %d\n", outcome, n)
		}
	}
	for _, title := range summary.Committed {
		fmt.Fprintf(out, "  committed: %s\n", title)
	}
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "", "Scheduler mode: first-success or bounded")
	runCmd.Flags().IntVar(&runMaxAttempts, "max-attempts", 0, "Attempt cap (0 means unlimited in first-success mode)")
	runCmd.Flags().DurationVar(&runPause, "pause", 0, "Pause after each committed edit")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "Random selector seed (0 seeds from the clock)")
}
