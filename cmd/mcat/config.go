package main

import (
	"fmt"
	"strings"

	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (MCAT_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value
func GetConfigBool(key string) bool {
	return viper.GetBool(key)
}

// applyLogSettings configures the logger from verbose/quiet/no-color
func applyLogSettings() {
	util.SetVerbose(GetConfigBool("verbose"))
	util.SetQuiet(GetConfigBool("quiet"))
	if GetConfigBool("no-color") {
		util.SetColors(false)
	}
}

// storeOptions resolves the engine settings; dbPath is only used by SQLite
func storeOptions() (dbPath string, opts *store.OpenOptions, err error) {
	opts = &store.OpenOptions{
		Driver:           GetConfigString("driver", "sqlite"),
		DSN:              GetConfigString("dsn", ""),
		NetworkOptimized: GetConfigBool("network-db"),
	}

	dialect, err := store.ParseDialect(opts.Driver)
	if err != nil {
		return "", nil, err
	}
	if dialect != store.DialectSQLite && opts.DSN == "" {
		return "", nil, fmt.Errorf("%w: --dsn (or MCAT_DSN) is required for driver %s", util.ErrInvalidConfig, dialect)
	}

	return GetConfigString("db", "mcat.db"), opts, nil
}

// openStore opens the configured catalog, applying the schema if needed
func openStore() (*store.Store, error) {
	dbPath, opts, err := storeOptions()
	if err != nil {
		return nil, err
	}

	if opts.Driver == "" || opts.Driver == string(store.DialectSQLite) {
		util.InfoLog("Opening catalog: %s", dbPath)
	} else {
		util.InfoLog("Connecting to %s catalog", opts.Driver)
	}

	db, err := store.OpenWithOptions(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return db, nil
}

// openEventLogger returns the JSONL audit logger, or a no-op logger when
// events-dir is unset
func openEventLogger() *report.EventLogger {
	dir := GetConfigString("events-dir", "")
	if dir == "" {
		return report.NullLogger()
	}

	logLevel := report.LevelInfo // Default
	if GetConfigBool("quiet") {
		logLevel = report.LevelWarning // Only warnings and errors
	} else if GetConfigBool("verbose") {
		logLevel = report.LevelDebug // Everything
	}

	logger, err := report.NewEventLogger(dir, logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}

	util.DebugLog("Event log: %s", logger.Path())
	return logger
}
