package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/franz/music-catalog/internal/util"
)

// ConstraintKind names the constraint a write violated
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign key"
	ConstraintNotNull    ConstraintKind = "not null"
	ConstraintCheck      ConstraintKind = "check"
)

// ConstraintError is returned when the engine rejects a write because of a
// schema constraint. It matches util.ErrConstraint and unwraps to the
// driver error.
type ConstraintError struct {
	Kind ConstraintKind
	Err  error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s constraint violation: %v", e.Kind, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Is makes ConstraintError match util.ErrConstraint
func (e *ConstraintError) Is(target error) bool {
	return target == util.ErrConstraint
}

// IsConstraintKind reports whether err is a constraint violation of the given kind
func IsConstraintKind(err error, kind ConstraintKind) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Kind == kind
}

// classifyError wraps driver constraint errors in ConstraintError and
// returns every other error unchanged
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var ce *ConstraintError
	if errors.As(err, &ce) {
		return err
	}

	if kind, ok := constraintKind(err); ok {
		return &ConstraintError{Kind: kind, Err: err}
	}
	return err
}

func constraintKind(err error) (ConstraintKind, bool) {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ConstraintUnique, true
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ConstraintForeignKey, true
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return ConstraintNotNull, true
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return ConstraintCheck, true
		}
		if sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return constraintKindFromMessage(sqliteErr.Error())
		}
		return "", false
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062, 1586: // ER_DUP_ENTRY, ER_DUP_ENTRY_WITH_KEY_NAME
			return ConstraintUnique, true
		case 1216, 1217, 1451, 1452: // ER_NO_REFERENCED_ROW, ER_ROW_IS_REFERENCED (and _2 variants)
			return ConstraintForeignKey, true
		case 1048, 1364: // ER_BAD_NULL_ERROR, ER_NO_DEFAULT_FOR_FIELD
			return ConstraintNotNull, true
		case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
			return ConstraintCheck, true
		}
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ConstraintUnique, true
		case "23503": // foreign_key_violation
			return ConstraintForeignKey, true
		case "23502": // not_null_violation
			return ConstraintNotNull, true
		case "23514": // check_violation
			return ConstraintCheck, true
		}
		return "", false
	}

	return "", false
}

func constraintKindFromMessage(msg string) (ConstraintKind, bool) {
	msg = strings.ToUpper(msg)
	switch {
	case strings.Contains(msg, "UNIQUE CONSTRAINT"):
		return ConstraintUnique, true
	case strings.Contains(msg, "FOREIGN KEY CONSTRAINT"):
		return ConstraintForeignKey, true
	case strings.Contains(msg, "NOT NULL CONSTRAINT"):
		return ConstraintNotNull, true
	case strings.Contains(msg, "CHECK CONSTRAINT"):
		return ConstraintCheck, true
	}
	return "", false
}
