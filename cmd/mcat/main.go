package main

import (
	"fmt"
	"os"

	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "mcat",
		Short: "Music Catalog - score metadata store and batch lookup",
		Long: `mcat manages a relational catalog of musical works (composers, eras,
work types, tags) and the dataset files they were encoded in, and answers
batch lookups of joined metadata by dataset name and filename.

The catalog lives in SQLite by default; MySQL and PostgreSQL are supported
through --driver and --dsn.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/mcat.yaml)")
	rootCmd.PersistentFlags().String("db", "mcat.db", "SQLite catalog file")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database engine: sqlite, mysql or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "connection string for mysql/postgres")
	rootCmd.PersistentFlags().Bool("network-db", false, "tune SQLite for a catalog on network storage")
	rootCmd.PersistentFlags().String("events-dir", "", "directory for JSONL event logs (disabled when empty)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored log output")

	// Bind flags to viper
	for _, name := range []string{"db", "driver", "dsn", "network-db", "events-dir", "verbose", "quiet", "no-color"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common locations
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("mcat")
		viper.SetConfigType("yaml")
	}

	// Nested keys such as lookup.format map to MCAT_LOOKUP_FORMAT
	viper.SetEnvPrefix("MCAT")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
