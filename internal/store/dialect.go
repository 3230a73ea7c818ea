package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/franz/music-catalog/internal/util"
)

// Dialect identifies the relational engine behind a Store
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect maps a configured driver name to a Dialect.
// An empty name selects SQLite.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("%w: driver %q (supported: sqlite, mysql, postgres)", util.ErrUnsupported, name)
}

// Rebind rewrites ? placeholders into the engine's native form.
// Queries in this package never carry ? inside string literals.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// memberOf renders a "column is one of values" predicate with ? placeholders.
// PostgreSQL binds the whole set as one text[] parameter; the other engines
// get one placeholder per value.
func (d Dialect) memberOf(column string, values []string) (string, []any) {
	if d == DialectPostgres {
		return column + " = ANY(?)", []any{values}
	}

	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return column + " IN (" + strings.Join(placeholders, ", ") + ")", args
}
