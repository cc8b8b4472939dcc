package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/iocache"
	"github.com/huangsam/devhealth/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "devhealth",
	Short: "Rate the health of DevOps projects from their build, PR and quality data.",
	Long: `Devhealth scrapes DevOps collections and a Sonar server, caches every raw
response on disk and rates each repository on a 0-100 health scale.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setConfigSource points viper at the explicit config file or the default search paths.
func setConfigSource() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".devhealth") // Name of config file (without extension)
	viper.SetConfigType("yaml")       // We'll use YAML format
	viper.AddConfigPath(".")          // Look in the current directory
	viper.AddConfigPath("$HOME")      // Look in the home directory
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigSource()

	// Set environment variable prefix
	viper.SetEnvPrefix("DEVHEALTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("output", schema.JSONOut)
	viper.SetDefault("output-dir", contract.DefaultOutputDir)
	viper.SetDefault("lookback", contract.DefaultLookback)
	viper.SetDefault("cache-ttl", "1 day")
	viper.SetDefault("request-timeout", contract.DefaultRequestTimeout.String())
	viper.SetDefault("runs-backend", schema.SQLiteBackend)
	viper.SetDefault("runs-db-connect", "")
	viper.SetDefault("color", "yes")
}

// loadConfigFile reads the config file. A missing file is fine; we'll use defaults/env/flags.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// loadInput merges file, env and flags into the raw input struct.
func loadInput() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	contract.SetVerbose(input.Verbose)
	return nil
}

// sharedSetup unmarshals config, runs validation and opens the run store.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	if err := loadInput(); err != nil {
		return err
	}

	// This populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input, time.Now()); err != nil {
		return err
	}

	if err := iocache.InitStores(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
