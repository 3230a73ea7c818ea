package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog row counts",
	Long: `Show how many composers, eras, work types, source files, works, tags and
tag relations the catalog holds, and how many works carry no tag (those
are hidden from lookups unless --include-untagged is used).

With --markdown the same summary is written as a Markdown report; pass
--event-log to include lookup and delete activity from a JSONL event log.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().String("markdown", "", "write a Markdown summary to this path")
	statsCmd.Flags().String("event-log", "", "JSONL event log to summarize (optional)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	applyLogSettings()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	eventLogPath, _ := cmd.Flags().GetString("event-log")

	summary, err := report.GenerateSummaryReport(ctx, db, eventLogPath)
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}
	if db.Dialect() == store.DialectSQLite {
		summary.DatabasePath = viper.GetString("db")
	}

	util.InfoLog("=== Catalog (%s %s) ===", summary.Engine, summary.EngineVersion)
	for _, line := range summary.CountLines() {
		util.InfoLog("  %-14s %s", line[0]+":", line[1])
	}
	if summary.UntaggedWorks > 0 {
		util.WarnLog("  %s works have no tags", humanize.Comma(summary.UntaggedWorks))
	}
	if eventLogPath != "" {
		util.InfoLog("")
		util.InfoLog("Activity (%s):", eventLogPath)
		util.InfoLog("  Lookups: %d", summary.Lookups)
		util.InfoLog("  Deletes: %d", summary.Deletes)
		if summary.Errors > 0 {
			util.WarnLog("  Errors: %d", summary.Errors)
		}
	}

	outputPath, _ := cmd.Flags().GetString("markdown")
	if outputPath != "" {
		if err := report.WriteMarkdownReport(summary, outputPath); err != nil {
			return err
		}
		util.SuccessLog("Report saved to: %s", outputPath)
	}

	return nil
}
