package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
)

// deleteTarget maps a CLI entity name to its table and delete operation
type deleteTarget struct {
	table   string
	cascade string
	remove  func(db *store.Store, ctx context.Context, id int64) error
}

var deleteTargets = map[string]deleteTarget{
	"composer":  {"composers", "their works and tag relations", (*store.Store).DeleteComposer},
	"era":       {"eras", "works in the era and their tag relations", (*store.Store).DeleteEra},
	"work-type": {"work_type", "works of the type and their tag relations", (*store.Store).DeleteWorkType},
	"tag":       {"tags", "its tag relations", (*store.Store).DeleteTag},
	"dataset":   {"dataset_contents", "works stored in the file and their tag relations", (*store.Store).DeleteDatasetContents},
	"work":      {"works", "its tag relations", (*store.Store).DeleteWork},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <" + strings.Join(deleteTargetNames(), "|") + "> <id>",
	Short: "Delete a catalog row and everything that depends on it",
	Long: `Delete a row by id. Dependent rows are removed by the database's
cascading foreign keys:

  composer   removes the composer's works and their tag relations
  era        removes works in the era (not just the era reference)
  work-type  removes works of the type
  tag        removes the tag's relations; works are kept
  dataset    removes the source file row and works stored in it
  work       removes the work and its tag relations`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: deleteTargetNames(),
	RunE:      runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func deleteTargetNames() []string {
	names := make([]string, 0, len(deleteTargets))
	for name := range deleteTargets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	applyLogSettings()

	target, ok := deleteTargets[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown entity %q (expected one of %s)",
			util.ErrInvalidConfig, args[0], strings.Join(deleteTargetNames(), ", "))
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("%w: id must be a positive integer, got %q", util.ErrInvalidConfig, args[1])
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	err = target.remove(db, ctx, id)
	logger.LogDelete(target.table, id, err)
	if errors.Is(err, util.ErrNotFound) {
		return fmt.Errorf("%s %d does not exist", args[0], id)
	}
	if err != nil {
		return err
	}

	util.SuccessLog("Deleted %s %d (and %s)", args[0], id, target.cascade)
	return nil
}
