package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	app, err := newApplication(ctx, logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}
	defer app.Close()

	sheetsCfg, err := app.sheetsConfig()
	if err != nil {
		logger.Fatal("loading sheets config", zap.Error(err))
	}

	logger.Info("starting the lendmatch api",
		zap.String("version", version),
		zap.Int("partners", len(app.store.Partners())),
		zap.String("variant", string(app.service.Scorer().Variant())),
	)

	srv := server.New(app.config.Server, app.store, app.service, logger, server.WithSheets(sheetsCfg))
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
}
