package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wikibot/internal/app"
	"wikibot/internal/config"
	"wikibot/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "wikibot",
	Short:         "Rewrite wiki pages through an external transform and commit the changes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (defaults to $WIKIBOT_CONFIG)")
	rootCmd.AddCommand(runCmd, stableCmd, patrolCmd, historyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.New("error").Error("wikibot stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

// openApp loads config, lets the caller adjust it and builds the application.
func openApp(cmd *cobra.Command, adjust func(*config.Config)) (*app.Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(&cfg)
	}
	return app.New(cmd.Context(), cfg, logging.New(cfg.Logging.Level))
}
