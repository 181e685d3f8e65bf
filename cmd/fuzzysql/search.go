package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	_ "modernc.org/sqlite"

	"github.com/standardbeagle/fuzzysql/internal/debug"
	"github.com/standardbeagle/fuzzysql/internal/dialect"
	"github.com/standardbeagle/fuzzysql/internal/fuzzy"
)

// searchRow is one result row: its columns in select order plus the best
// relevance across the searched fields.
type searchRow struct {
	Columns   []string       `json:"-"`
	Values    map[string]any `json:"values"`
	Relevance float64        `json:"relevance"`
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: fuzzysql search --db <file> --table <table> --field <field> <value>")
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	// the database is SQLite whatever the config targets
	cfg.Dialect = dialect.SQLite{}.Name()
	b, err := fuzzy.FromConfig(cfg)
	if err != nil {
		return err
	}

	dbPath := c.String("db")
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("database %s: %w", dbPath, err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", dbPath, err)
	}
	defer db.Close()

	limit := c.Int("limit")
	if limit <= 0 {
		limit = cfg.Search.Limit
	}
	minRelevance := cfg.Search.MinRelevance
	if c.IsSet("min-relevance") {
		minRelevance = c.Float64("min-relevance")
	}

	q, aliases, err := buildSearchQuery(b, c.String("table"), c.StringSlice("field"), c.StringSlice("columns"), c.Args().First(), cfg.Extended, limit, minRelevance)
	if err != nil {
		return err
	}
	query, args, err := q.ToSQL(b.Dialect())
	if err != nil {
		return err
	}

	results, err := runSearch(db, query, args, aliases)
	if err != nil {
		return err
	}
	debug.LogQuery("search returned %d rows (min relevance %g)\n", len(results), minRelevance)

	if c.Bool("json") {
		return writeJSON(c.App.Writer, results)
	}
	return printSearchResults(c.App.Writer, results)
}

func runSearch(db *sql.DB, query string, args []any, aliases []string) ([]searchRow, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	isAlias := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		isAlias[a] = true
	}

	results := []searchRow{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := searchRow{Columns: columns, Values: make(map[string]any, len(columns))}
		for i, col := range columns {
			v := values[i]
			if raw, ok := v.([]byte); ok {
				v = string(raw)
			}
			row.Values[col] = v
			if isAlias[col] {
				if score := toFloat(v); score > row.Relevance {
					row.Relevance = score
				}
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func printSearchResults(w io.Writer, results []searchRow) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := append([]string{"RELEVANCE"}, results[0].Columns...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range results {
		cells := []string{formatScore(r.Relevance)}
		for _, col := range r.Columns {
			v := r.Values[col]
			if v == nil {
				cells = append(cells, "NULL")
				continue
			}
			if f, ok := v.(float64); ok {
				cells = append(cells, formatScore(f))
				continue
			}
			cells = append(cells, fmt.Sprint(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
