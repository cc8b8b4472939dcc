// Package cmd defines the command-line interface for devhealth.
package cmd

import (
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("host", "", "DevOps server base URL (e.g., https://devops.example.com)")
	rootCmd.PersistentFlags().String("token", "", "DevOps personal access token (prefer DEVHEALTH_TOKEN)")
	rootCmd.PersistentFlags().String("sonar-host", "", "Sonar server base URL (empty disables code quality)")
	rootCmd.PersistentFlags().String("sonar-token", "", "Sonar token (prefer DEVHEALTH_SONAR_TOKEN)")
	rootCmd.PersistentFlags().String("cache-dir", "", "Directory for cached upstream responses (default ~/.devhealth/cache)")
	rootCmd.PersistentFlags().String("cache-ttl", "1 day", "How long cached responses stay fresh")
	rootCmd.PersistentFlags().String("runs-backend", string(schema.SQLiteBackend), "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every cache hit, fetch and skipped resource")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of scrapeCmd to Viper
	scrapeCmd.Flags().String("lookback", contract.DefaultLookback, "Time window to rate, ending now (e.g., '90 days')")
	scrapeCmd.Flags().Int("workers", contract.DefaultWorkers, "Number of projects scraped concurrently")
	scrapeCmd.Flags().String("request-timeout", contract.DefaultRequestTimeout.String(), "Timeout of a single HTTP request")
	scrapeCmd.Flags().String("output-dir", contract.DefaultOutputDir, "Directory for written artifacts")
	scrapeCmd.Flags().String("output", string(schema.JSONOut), "Artifact format: json or csv or parquet")
	scrapeCmd.Flags().StringSlice("only", nil, "Only scrape these 'collection' or 'collection/project' units")
	if err := viper.BindPFlags(scrapeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding scrape flags", err)
	}

	// Bind all flags of runsExportCmd to Viper
	runsExportCmd.Flags().String("output-file", "", "File prefix of the exported Parquet files")
	if err := viper.BindPFlags(runsExportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs export flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
