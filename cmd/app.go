package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/assistant"
	"github.com/spigell/lendmatch/internal/assistant/gemini"
	"github.com/spigell/lendmatch/internal/assistant/rules"
	"github.com/spigell/lendmatch/internal/logger"
	"github.com/spigell/lendmatch/internal/matching"
	"github.com/spigell/lendmatch/internal/secrets"
	"github.com/spigell/lendmatch/internal/sheets"
	"github.com/spigell/lendmatch/internal/store"
)

// application bundles what every command needs.
type application struct {
	config  *Config
	logger  *zap.Logger
	store   *store.Memory
	service *assistant.Service
	closers []func() error
}

func (a *application) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("closing resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// newLogger builds the logger from the persistent flags or dies trying.
func newLogger(outputs ...string) *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), outputs...)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func newApplication(ctx context.Context, log *zap.Logger) (*application, error) {
	config, err := getConfig()
	if err != nil {
		return nil, err
	}

	variant, err := matching.ParseVariant(config.Scoring.Variant)
	if err != nil {
		return nil, err
	}

	a := &application{
		config: config,
		logger: log,
		store:  store.NewMemory(config.Seed),
	}

	var (
		primaryExtractor assistant.Extractor
		primaryResponder assistant.Responder
	)

	if config.AI.Enabled {
		if config.AI.Provider != "" && config.AI.Provider != "gemini" {
			return nil, fmt.Errorf("unsupported ai provider %q", config.AI.Provider)
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: config.AI.Gemini.APIKey,
			File:  config.AI.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, err
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, config.AI.Gemini.Config, log)
		if err != nil {
			return nil, err
		}

		primaryExtractor = gemini.NewExtractor(generator, log, config.AI.Gemini.MaxLogLength)
		primaryResponder = gemini.NewResponder(generator, log, config.AI.Gemini.MaxLogLength)

		if config.Cache.Enabled {
			client, err := assistant.NewRedisClient(ctx, config.Cache)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, client.Close)
			primaryExtractor = assistant.NewCachedExtractor(primaryExtractor, client, config.Cache, log)
		}

		log.Info("remote assistant enabled", zap.String("model", generator.Model()))
	}

	a.service = assistant.NewService(
		a.store,
		assistant.ExtractorWithFallback(primaryExtractor, rules.NewExtractor(), log),
		assistant.ResponderWithFallback(primaryResponder, rules.NewResponder(nil), log),
		matching.NewScorer(variant),
		config.Filters,
		log,
	)

	return a, nil
}

// sheetsConfig resolves the spreadsheet API key from a file when configured.
func (a *application) sheetsConfig() (sheets.Config, error) {
	cfg := a.config.Sheets
	if cfg.APIKeyFile == "" {
		return cfg, nil
	}

	key, err := secrets.Load(secrets.Source{Name: "sheets api key", Value: cfg.APIKey, File: cfg.APIKeyFile})
	if err != nil {
		return cfg, err
	}
	cfg.APIKey = key
	return cfg, nil
}
