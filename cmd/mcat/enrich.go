package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/franz/music-catalog/internal/musicbrainz"
	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich-composers",
	Short: "Fill in missing composer life years from MusicBrainz",
	Long: `Look up every composer without a birth or death year on MusicBrainz and
store the years of the best matching person. Years already in the catalog
are never overwritten, and matches scoring below --min-score are skipped.

MusicBrainz allows one request per second, so large catalogs take a while.`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().Bool("dry-run", false, "show what would change without writing")
	enrichCmd.Flags().Int("min-score", musicbrainz.DefaultMinScore, "minimum MusicBrainz match score (0-100)")
	enrichCmd.Flags().String("musicbrainz-url", musicbrainz.BaseURL, "MusicBrainz API base URL")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	applyLogSettings()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	minScore, _ := cmd.Flags().GetInt("min-score")
	baseURL, _ := cmd.Flags().GetString("musicbrainz-url")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	client := musicbrainz.NewClient(musicbrainz.WithBaseURL(baseURL))
	defer client.Close()

	if dryRun {
		util.InfoLog("Dry run: no changes will be written")
	}

	result, err := musicbrainz.EnrichComposers(ctx, db, client, musicbrainz.EnrichOptions{
		MinScore: minScore,
		DryRun:   dryRun,
	})
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	for _, c := range result.Changes {
		util.InfoLog("  %s -> %s (score %d): born %s, died %s",
			c.Composer, c.Match, c.Score, yearString(c.Born), yearString(c.Died))
	}

	util.SuccessLog("Checked %d composers: %d updated, %d without match, %d low confidence",
		result.Checked, len(result.Changes), result.NoMatch, result.LowScore)
	if len(result.Errors) > 0 {
		util.WarnLog("  Errors: %d", len(result.Errors))
	}

	return nil
}

func yearString(y *int) string {
	if y == nil {
		return "unchanged"
	}
	return strconv.Itoa(*y)
}
