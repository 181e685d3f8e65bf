package testhelpers

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// People is the fixture most scoring tests search: a mix of exact, prefix,
// acronym, StudlyCase and non-matching names plus a NULL.
var People = []any{
	"Jon",
	"Jonathan",
	"John Doe",
	"Jane Dough",
	"FooBar",
	"Mary",
	"O'Brien",
	"50% off",
	nil,
}

// SQLitePath returns a fresh database file path inside the test's temp dir.
// A file is used rather than :memory: so every pooled connection sees the
// same data.
func SQLitePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "fuzzysql-test.db")
}

// OpenSQLite opens the database at path and closes it when the test ends.
func OpenSQLite(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Ping())
	return db
}

// SeedTable creates table with an integer id and one TEXT column and inserts
// values in order (nil inserts NULL). Ids start at 1.
func SeedTable(t *testing.T, db *sql.DB, table, column string, values ...any) {
	t.Helper()

	_, err := db.Exec(fmt.Sprintf(`CREATE TABLE %q (id INTEGER PRIMARY KEY, %q TEXT)`, table, column))
	require.NoError(t, err)

	stmt, err := db.Prepare(fmt.Sprintf(`INSERT INTO %q (%q) VALUES (?)`, table, column))
	require.NoError(t, err)
	defer stmt.Close()

	for _, v := range values {
		_, err := stmt.Exec(v)
		require.NoError(t, err)
	}
}

// NewPeopleDB creates a database file with a people(name) table seeded from
// People and returns its path and an open handle.
func NewPeopleDB(t *testing.T) (string, *sql.DB) {
	t.Helper()

	path := SQLitePath(t)
	db := OpenSQLite(t, path)
	SeedTable(t, db, "people", "name", People...)
	return path, db
}

// ScoreRows runs query and collects the named relevance column keyed by the
// row's name column (NULL names are keyed by "").
func ScoreRows(t *testing.T, db *sql.DB, query string, args []any, alias string) map[string]float64 {
	t.Helper()

	rows, err := db.Query(query, args...)
	require.NoError(t, err)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)

	nameIdx, scoreIdx := -1, -1
	for i, c := range cols {
		switch {
		case strings.EqualFold(c, "name"):
			nameIdx = i
		case c == alias:
			scoreIdx = i
		}
	}
	require.NotEqual(t, -1, nameIdx, "query must select name")
	require.NotEqual(t, -1, scoreIdx, "query must select %s", alias)

	out := make(map[string]float64)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		require.NoError(t, rows.Scan(ptrs...))

		name, _ := values[nameIdx].(string)
		out[name] = toFloat(t, values[scoreIdx])
	}
	require.NoError(t, rows.Err())
	return out
}

func toFloat(t *testing.T, v any) float64 {
	t.Helper()
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	case nil:
		return 0
	default:
		t.Fatalf("unexpected score type %T", v)
		return 0
	}
}
