package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/franz/music-catalog/internal/util"
)

const (
	currentSchemaVersion = 1
)

// Store is the catalog's metadata store
type Store struct {
	db      *sql.DB
	dialect Dialect
	retry   *util.RetryConfig
}

// OpenOptions holds options for opening a database
type OpenOptions struct {
	Driver           string // sqlite (default), mysql or postgres
	DSN              string // Connection string for mysql/postgres; ignored for sqlite
	NetworkOptimized bool   // Apply SQLite pragmas for databases on network storage
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens or creates a SQLite catalog at the given path with default options
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions opens a catalog on the configured engine and applies the schema
func OpenWithOptions(path string, opts *OpenOptions) (*Store, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}

	dialect, err := ParseDialect(opts.Driver)
	if err != nil {
		return nil, err
	}

	db, err := openDB(dialect, path, opts.DSN)
	if err != nil {
		return nil, err
	}

	store := &Store{db: db, dialect: dialect, retry: util.DefaultRetryConfig()}

	if dialect == DialectSQLite {
		// One writer keeps SQLite from returning SQLITE_BUSY on our own connections
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)

		if opts.NetworkOptimized {
			store.retry = util.NetworkRetryConfig()
			if err := store.applyNetworkPragmas(); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to apply network pragmas: %w", err)
			}
		}
	} else {
		store.retry = util.NetworkRetryConfig()
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to %s: %w", dialect, err)
		}
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// openDB builds the driver-specific connection for a dialect
func openDB(dialect Dialect, path, dsn string) (*sql.DB, error) {
	switch dialect {
	case DialectSQLite:
		if path == "" {
			return nil, fmt.Errorf("%w: sqlite requires a database path", util.ErrInvalidConfig)
		}
		// Foreign keys are off by default in SQLite and must be enabled per
		// connection, otherwise no cascade happens
		sqliteDSN := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
		db, err := sql.Open("sqlite", sqliteDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil

	case DialectMySQL:
		if dsn == "" {
			return nil, fmt.Errorf("%w: mysql requires a dsn", util.ErrInvalidConfig)
		}
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: bad mysql dsn: %v", util.ErrInvalidConfig, err)
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		if _, ok := cfg.Params["charset"]; !ok {
			cfg.Params["charset"] = "utf8mb4"
		}
		// Match the tables' binary collation unless the DSN picks one
		if !strings.Contains(dsn, "collation=") {
			cfg.Collation = "utf8mb4_bin"
		}
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create mysql connector: %w", err)
		}
		return sql.OpenDB(connector), nil

	case DialectPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("%w: postgres requires a dsn", util.ErrInvalidConfig)
		}
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: bad postgres dsn: %v", util.ErrInvalidConfig, err)
		}
		return stdlib.OpenDB(*cfg), nil
	}

	return nil, fmt.Errorf("%w: driver %q", util.ErrUnsupported, dialect)
}

// applyNetworkPragmas applies SQLite optimizations for network filesystems
func (s *Store) applyNetworkPragmas() error {
	pragmas := []string{
		// NORMAL is safe with WAL and only fsyncs at checkpoints
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		// Negative value is KiB (~64 MB)
		"PRAGMA cache_size = -64000",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the engine the store is connected to
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// EngineVersion returns the version string reported by the engine
func (s *Store) EngineVersion(ctx context.Context) (string, error) {
	query := "SELECT version()"
	if s.dialect == DialectSQLite {
		query = "SELECT sqlite_version()"
	}

	var version string
	if err := s.db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read engine version: %w", err)
	}
	return version, nil
}

// CheckIntegrity verifies the database is readable and no row points at a
// missing parent
func (s *Store) CheckIntegrity(ctx context.Context) error {
	if s.dialect != DialectSQLite {
		if err := s.db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		return nil
	}

	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	rows, err := s.db.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("foreign key check query failed: %w", err)
	}
	defer rows.Close()

	var violations []string
	for rows.Next() {
		var table, parent string
		var rowID sql.NullInt64
		var fkid int64
		if err := rows.Scan(&table, &rowID, &parent, &fkid); err != nil {
			return fmt.Errorf("failed to scan foreign key check: %w", err)
		}
		violations = append(violations, fmt.Sprintf("%s row %d -> %s", table, rowID.Int64, parent))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(violations) > 0 {
		return fmt.Errorf("foreign key check failed: %s", strings.Join(violations, "; "))
	}

	return nil
}

// migrate applies database migrations
func (s *Store) migrate() error {
	if _, err := s.db.Exec(s.dialect.schemaVersionTable()); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		for _, stmt := range s.dialect.schemaV1() {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply schema v1: %w", err)
			}
		}
		if err := s.setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec(s.dialect.Rebind("INSERT INTO schema_version (version) VALUES (?)"), version)
	return err
}

// Transaction executes a function within a transaction. The whole function
// is retried when the engine reports lock contention.
func (s *Store) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	return util.Retry(s.retry, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		return nil
	}, "transaction")
}

// insert runs an INSERT and returns the new surrogate id
func (s *Store) insert(ctx context.Context, q queryer, query string, args ...any) (int64, error) {
	if s.dialect == DialectPostgres {
		var id int64
		err := q.QueryRowContext(ctx, s.dialect.Rebind(query+" RETURNING id"), args...).Scan(&id)
		if err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// insertTop runs a single-statement insert outside any transaction, retrying
// on lock contention
func (s *Store) insertTop(ctx context.Context, op string, query string, args ...any) (int64, error) {
	id, err := util.RetryWithBackoff(s.retry, func() (int64, error) {
		id, err := s.insert(ctx, s.db, query, args...)
		return id, classifyError(err)
	}, op)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", op, err)
	}
	return id, nil
}

// deleteByID removes one row by id; the engine cascades to dependents
func (s *Store) deleteByID(ctx context.Context, table string, id int64) error {
	query := s.dialect.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table))

	affected, err := util.RetryWithBackoff(s.retry, func() (int64, error) {
		result, err := s.db.ExecContext(ctx, query, id)
		if err != nil {
			return 0, classifyError(err)
		}
		return result.RowsAffected()
	}, "delete from "+table)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s id %d: %w", table, id, util.ErrNotFound)
	}

	return nil
}

// getOne runs a single-row query; sql.ErrNoRows is reported as found=false
func getOne(row *sql.Row, dest ...any) (bool, error) {
	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
