package main

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/franz/music-catalog/internal/batch"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up joined metadata for dataset files",
	Long: `Return the joined metadata (work, composer, era, work type, tag) of every
work stored in one of the given datasets under one of the given filenames.

--datasets and --files are comma-delimited batches of at most 500
characters. Longer file lists can be read from a file with --files-from
(one filename per line); they are split into batches and looked up one
batch at a time.

By default works without any tag are left out, matching the catalog's
original behavior; --include-untagged returns them with an empty tag.`,
	Args: cobra.NoArgs,
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	lookupCmd.Flags().String("datasets", "", "comma-delimited dataset names (required)")
	lookupCmd.Flags().String("files", "", "comma-delimited filenames")
	lookupCmd.Flags().String("files-from", "", "file with one filename per line")
	lookupCmd.Flags().Bool("include-untagged", false, "include works that have no tags")
	lookupCmd.Flags().String("format", "table", "output format: table, json, csv or yaml")
	lookupCmd.Flags().StringP("out", "o", "", "write results to a file instead of stdout")

	lookupCmd.MarkFlagRequired("datasets")
	lookupCmd.MarkFlagsMutuallyExclusive("files", "files-from")
	lookupCmd.MarkFlagsOneRequired("files", "files-from")

	viper.BindPFlag("lookup.include-untagged", lookupCmd.Flags().Lookup("include-untagged"))
	viper.BindPFlag("lookup.format", lookupCmd.Flags().Lookup("format"))
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	applyLogSettings()

	format, err := report.ParseFormat(GetConfigString("lookup.format", "table"))
	if err != nil {
		return err
	}
	opts := store.LookupOptions{IncludeUntagged: GetConfigBool("lookup.include-untagged")}

	datasets, _ := cmd.Flags().GetString("datasets")
	files, _ := cmd.Flags().GetString("files")
	filesFrom, _ := cmd.Flags().GetString("files-from")
	outPath, _ := cmd.Flags().GetString("out")

	logger := openEventLogger()
	defer logger.Close()

	// Reject a bad batch before touching the database
	in, err := prepareLookup(datasets, files, filesFrom)
	if err != nil {
		logger.LogError(report.EventLookup, err)
		return err
	}

	db, err := openStore()
	if err != nil {
		logger.LogError(report.EventError, err)
		return err
	}
	defer db.Close()

	start := time.Now()
	rows, err := lookupChunks(ctx, db, in.datasets, in.chunks, opts)
	logger.LogLookup(in.datasetSet, in.fileSet, len(rows), time.Since(start), err)
	if err != nil {
		return err
	}

	util.SuccessLog("%d rows for %d datasets x %d filenames in %v",
		len(rows), len(in.datasetSet), len(in.fileSet), time.Since(start).Round(time.Millisecond))

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := report.WriteRows(out, rows, format); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if outPath != "" {
		util.InfoLog("Results written to: %s", outPath)
	}

	return nil
}

// lookupInput is a validated lookup request
type lookupInput struct {
	datasets   string   // canonical dataset batch
	datasetSet []string
	fileSet    []string
	chunks     []string // canonical filename batches
}

// prepareLookup validates the dataset and filename arguments and re-encodes
// them as canonical batches. Filenames come from --files, or from
// --files-from split into as many batches as needed.
func prepareLookup(datasets, files, filesFrom string) (*lookupInput, error) {
	in := &lookupInput{}

	var err error
	in.datasetSet, err = batch.Parse(datasets)
	if err != nil {
		return nil, fmt.Errorf("dataset names: %w", err)
	}
	in.datasets, err = batch.Encode(in.datasetSet)
	if err != nil {
		return nil, fmt.Errorf("dataset names: %w", err)
	}

	if filesFrom != "" {
		in.fileSet, err = readFileList(filesFrom)
		if err != nil {
			return nil, err
		}
		in.chunks, err = batch.Chunk(in.fileSet, batch.MaxLength)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filesFrom, err)
		}
		util.InfoLog("Read %d filenames from %s (%d batches)", len(in.fileSet), filesFrom, len(in.chunks))
		return in, nil
	}

	in.fileSet, err = batch.Parse(files)
	if err != nil {
		return nil, fmt.Errorf("filenames: %w", err)
	}
	encoded, err := batch.Encode(in.fileSet)
	if err != nil {
		return nil, fmt.Errorf("filenames: %w", err)
	}
	in.chunks = []string{encoded}

	return in, nil
}

// lookupChunks runs one lookup per filename batch and merges the results
// into a single ordered result set
func lookupChunks(ctx context.Context, db *store.Store, datasets string, chunks []string, opts store.LookupOptions) ([]*store.MetadataRow, error) {
	if len(chunks) == 1 {
		return db.GetJoinedMetadata(ctx, datasets, chunks[0], opts)
	}

	// Progress bar goes to stderr so it never mixes with piped results
	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stderr.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(len(chunks),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Looking up"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	rows := []*store.MetadataRow{}
	for i, chunk := range chunks {
		part, err := db.GetJoinedMetadata(ctx, datasets, chunk, opts)
		if err != nil {
			return nil, fmt.Errorf("batch %d of %d: %w", i+1, len(chunks), err)
		}
		rows = append(rows, part...)
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	sortRows(rows)
	return rows, nil
}

// sortRows restores the single-query ordering after batches are merged
func sortRows(rows []*store.MetadataRow) {
	slices.SortStableFunc(rows, func(a, b *store.MetadataRow) int {
		return cmp.Or(
			strings.Compare(a.DatasetName, b.DatasetName),
			strings.Compare(a.Filename, b.Filename),
			strings.Compare(a.Title, b.Title),
			compareOptional(a.Tag, b.Tag),
		)
	})
}

// compareOptional orders a missing value first, like NULLS FIRST
func compareOptional(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return strings.Compare(*a, *b)
}

// readFileList reads one filename per line, skipping blank lines and
// lines starting with #
func readFileList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file list: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file list: %w", err)
	}

	return names, nil
}
