package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/lendmatch/internal/assistant"
	"github.com/spigell/lendmatch/internal/assistant/gemini"
	"github.com/spigell/lendmatch/internal/filtering"
	"github.com/spigell/lendmatch/internal/server"
	"github.com/spigell/lendmatch/internal/sheets"
)

const (
	app       = "lendmatch"
	envPrefix = "LENDMATCH"
)

type Config struct {
	Seed    bool                  `mapstructure:"seed"`
	Server  server.Config         `mapstructure:"server"`
	Scoring ScoringConfig         `mapstructure:"scoring"`
	Filters filtering.Config      `mapstructure:"filters"`
	AI      AIConfig              `mapstructure:"ai"`
	Cache   assistant.CacheConfig `mapstructure:"cache"`
	Sheets  sheets.Config         `mapstructure:"sheets"`
}

type ScoringConfig struct {
	Variant string `mapstructure:"variant"`
}

type AIConfig struct {
	Enabled  bool         `mapstructure:"enabled"`
	Provider string       `mapstructure:"provider"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey        string `mapstructure:"api_key"`
	APIKeyFile    string `mapstructure:"api_key_file"`
	gemini.Config `mapstructure:",squash"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "lendmatch qualifies small business loan leads and matches them with lending partners",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is lendmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("variant", "", "scoring formula: a (additive) or b (averaged)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("scoring.variant", rootCmd.PersistentFlags().Lookup("variant"))

	setDefaults()
}

// setDefaults registers every key so environment overrides reach viper.Unmarshal.
func setDefaults() {
	viper.SetDefault("seed", true)

	viper.SetDefault("server.address", ":5000")
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)

	viper.SetDefault("scoring.variant", "a")

	viper.SetDefault("filters.include_inactive", false)
	viper.SetDefault("filters.excluded_partners", []int{})
	viper.SetDefault("filters.loan_types", []string{})

	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.api_key", "")
	viper.SetDefault("ai.gemini.api_key_file", "")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max_retries", 3)
	viper.SetDefault("ai.gemini.max_log_length", 200)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.address", "localhost:6379")
	viper.SetDefault("cache.password", "")
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.ttl", 24*time.Hour)
	viper.SetDefault("cache.prefix", "lendmatch:extract:")

	viper.SetDefault("sheets.spreadsheet_id", "")
	viper.SetDefault("sheets.range", sheets.DefaultRange)
	viper.SetDefault("sheets.api_key", "")
	viper.SetDefault("sheets.api_key_file", "")
	viper.SetDefault("sheets.credentials_file", "")
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// The config file is optional unless it was requested explicitly.
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return
	}
	log.Fatal(err)
}

func getConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &config, nil
}
