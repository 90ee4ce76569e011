package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/sheets"
)

var importCmd = &cobra.Command{
	Use:   "import-partners",
	Short: "Sync the partner catalog from the configured spreadsheet once",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := newLogger()

		app, err := newApplication(ctx, logger)
		if err != nil {
			logger.Fatal("initializing", zap.Error(err))
		}
		defer app.Close()

		cfg, err := app.sheetsConfig()
		if err != nil {
			logger.Fatal("loading sheets config", zap.Error(err))
		}

		client, err := sheets.NewClient(ctx, cfg)
		if err != nil {
			logger.Fatal("creating sheets client", zap.Error(err))
		}

		res, err := sheets.Sync(ctx, client, app.store, logger)
		if err != nil {
			logger.Fatal("syncing partners", zap.Error(err))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "added: %d, updated: %d, unchanged: %d, skipped: %d\n", res.Added, res.Updated, res.Unchanged, res.Skipped)
		for _, p := range app.store.Partners() {
			fmt.Fprintf(out, "  #%d %s (%s) active=%t\n", p.ID, p.Name, p.LoanType, p.Active)
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
