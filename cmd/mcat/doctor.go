package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the configuration and catalog",
	Long: `Run diagnostic checks to ensure mcat can operate correctly.

This command checks:
- Driver and connection settings
- Database file accessibility (SQLite)
- Engine connectivity and version
- Schema integrity and foreign key consistency

Use this command to troubleshoot issues before running lookups.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	applyLogSettings()

	util.InfoLog("=== mcat Doctor - Catalog Diagnostics ===")
	util.InfoLog("")

	results := []checkResult{}

	// 1. Configuration
	dbPath, opts, cfgErr := storeOptions()
	results = append(results, checkConfig(opts, cfgErr))

	if cfgErr == nil {
		// 2. Database file
		if opts.Driver == "" || opts.Driver == string(store.DialectSQLite) {
			results = append(results, checkDatabaseFile(dbPath))
		}

		// 3. Engine and integrity
		results = append(results, checkCatalog(dbPath, opts)...)
	}

	// Print results
	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	// Summary
	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before using the catalog.")
		return fmt.Errorf("catalog diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed! The catalog is ready.")
	}

	return nil
}

// checkConfig reports the resolved driver, or why it could not be resolved
func checkConfig(opts *store.OpenOptions, err error) checkResult {
	if err != nil {
		return checkResult{
			name:    "Configuration",
			error:   true,
			message: err.Error(),
		}
	}

	dialect, _ := store.ParseDialect(opts.Driver)
	msg := fmt.Sprintf("driver %s", dialect)
	if opts.NetworkOptimized {
		msg += " (network storage tuning)"
	}

	return checkResult{
		name:    "Configuration",
		message: msg,
	}
}

// checkDatabaseFile verifies the SQLite file is accessible
func checkDatabaseFile(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database file",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database file",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{
			name:    "Database file",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database file",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	return checkResult{
		name:    "Database file",
		message: fmt.Sprintf("%s (%s)", dbPath, humanize.Bytes(uint64(info.Size()))),
	}
}

// checkCatalog opens the catalog and verifies engine, integrity and contents
func checkCatalog(dbPath string, opts *store.OpenOptions) []checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.OpenWithOptions(dbPath, opts)
	if err != nil {
		return []checkResult{{
			name:    "Engine",
			error:   true,
			message: fmt.Sprintf("cannot open catalog: %v", err),
		}}
	}
	defer db.Close()

	results := []checkResult{}

	version, err := db.EngineVersion(ctx)
	if err != nil {
		results = append(results, checkResult{name: "Engine", error: true, message: err.Error()})
	} else {
		results = append(results, checkResult{name: "Engine", message: fmt.Sprintf("%s %s", db.Dialect(), version)})
	}

	if err := db.CheckIntegrity(ctx); err != nil {
		results = append(results, checkResult{
			name:    "Integrity",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		})
	} else {
		results = append(results, checkResult{name: "Integrity", message: "ok"})
	}

	counts, err := db.CountRows(ctx)
	if err != nil {
		results = append(results, checkResult{name: "Contents", error: true, message: err.Error()})
		return results
	}

	contents := checkResult{
		name: "Contents",
		message: fmt.Sprintf("%s works in %s source files",
			humanize.Comma(counts.Works), humanize.Comma(counts.DatasetContents)),
	}
	if counts.Works == 0 {
		contents.warning = true
		contents.message = "catalog is empty; lookups will return no rows"
	}
	results = append(results, contents)

	return results
}
