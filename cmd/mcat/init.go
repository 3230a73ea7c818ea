package main

import (
	"context"

	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or upgrade the catalog schema",
	Long: `Create the catalog tables on the configured engine, or bring an existing
catalog up to the current schema version. Running it twice is harmless.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	applyLogSettings()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := db.EngineVersion(ctx)
	if err != nil {
		return err
	}

	util.SuccessLog("Catalog ready (%s %s)", db.Dialect(), version)
	return nil
}
