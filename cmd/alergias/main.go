// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the alergias CLI: it analyzes
// ingredient labels against a dietary profile, manages the synonym
// dictionary and stored scans, and prices vision-model calls.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lukas-andre/alergias-app-sub001/internal/logging"
	"github.com/lukas-andre/alergias-app-sub001/internal/secrets"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets secrets.Secrets

	// cfg is the merged configuration (defaults, file, environment).
	cfg types.Config

	// logger is the process logger, built from cfg.Log.
	logger logging.Logger = logging.NewNop()
)

// rootCmd is the base command for the alergias CLI.
var rootCmd = &cobra.Command{
	Use:   "alergias",
	Short: "Allergen label risk engine",
	Long: `alergias reads the ingredient list of a food label, either as structured
vision-model output or as plain OCR text, and evaluates it against a user's
allergens, diets and intolerances. The verdict is low, medium or high with
reasons that can be checked against the label.

Synonym lookups run against an in-memory dictionary, the local SQLite
store, PostgreSQL pg_trgm or a remote RPC endpoint, optionally cached in
Redis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("decoding configuration: %w", err)
		}
		if v, _ := cmd.Flags().GetString("log-level"); v != "" {
			cfg.Log.Level = v
		}
		l, err := logging.NewLogger(cfg.Log)
		if err != nil {
			return err
		}
		logger = l

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", logging.Any("keys", s.Keys()))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./alergias.yaml or ~/.config/alergias/alergias.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

func initConfig() {
	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("alergias")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "alergias"))
		}
	}

	viper.SetEnvPrefix("ALERGIAS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
