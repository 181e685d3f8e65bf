package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	fuzzyerrors "github.com/standardbeagle/fuzzysql/internal/errors"
	"github.com/standardbeagle/fuzzysql/internal/fuzzy"
	"github.com/standardbeagle/fuzzysql/internal/query"
)

var errDominated = errors.New("matcher weights are not dominant")

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exprCommand(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("usage: fuzzysql expr <field> <value>")
	}
	cfg, b, err := loadBuilder(c)
	if err != nil {
		return err
	}

	expr, err := b.Build(c.Args().Get(0), c.Args().Get(1), cfg.Extended)
	if err != nil {
		return err
	}

	out := c.App.Writer
	if c.Bool("json") {
		return writeJSON(out, map[string]interface{}{
			"field":       expr.Field,
			"alias":       expr.Alias,
			"dialect":     b.Dialect().Name(),
			"select":      expr.Select(),
			"terms":       expr.Terms,
			"fingerprint": fmt.Sprintf("%016x", expr.Fingerprint()),
		})
	}

	if c.Bool("terms") {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, t := range expr.Terms {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", t.Kind, t.Weight, t.SQL)
		}
		fmt.Fprintf(tw, "alias\t\t%s\n", expr.Alias)
		return tw.Flush()
	}

	fmt.Fprintln(out, expr.Select())
	return nil
}

// buildSearchQuery attaches one relevance expression per field, the first
// with AND and the rest with OR, and orders by the first. Rows are kept when
// any relevance reaches minRelevance (or is above zero when minRelevance <= 0),
// so LIMIT only counts qualifying rows.
func buildSearchQuery(b *fuzzy.Builder, table string, fields, columns []string, value string, extended bool, limit int, minRelevance float64) (*query.Builder, []string, error) {
	if len(fields) == 0 {
		return nil, nil, errors.New("at least one --field is required")
	}

	q := query.New(table)
	if len(columns) > 0 {
		q.SetColumns(columns)
	}

	aliases := make([]string, 0, len(fields))
	for i, field := range fields {
		attach := b.AttachOr
		if i == 0 {
			attach = b.AttachAnd
		}
		if _, err := attach(q, field, value, extended); err != nil {
			return nil, nil, err
		}
		havings := q.Havings()
		aliases = append(aliases, havings[len(havings)-1].Column)
	}

	if minRelevance > 0 {
		conds := q.Havings()
		for i := range conds {
			conds[i].Operator = ">="
			conds[i].Value = minRelevance
		}
		q.SetHavings(conds)
	}

	q.OrderBy(aliases[0], true).Limit(limit)
	return q, aliases, nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: fuzzysql query --table <table> --field <field> <value>")
	}
	cfg, b, err := loadBuilder(c)
	if err != nil {
		return err
	}

	limit := c.Int("limit")
	if limit <= 0 {
		limit = cfg.Search.Limit
	}
	q, aliases, err := buildSearchQuery(b, c.String("table"), c.StringSlice("field"), c.StringSlice("columns"), c.Args().First(), cfg.Extended, limit, cfg.Search.MinRelevance)
	if err != nil {
		return err
	}
	sql, args, err := q.ToSQL(b.Dialect())
	if err != nil {
		return err
	}

	out := c.App.Writer
	if c.Bool("json") {
		return writeJSON(out, map[string]interface{}{
			"dialect": b.Dialect().Name(),
			"sql":     sql,
			"args":    args,
			"aliases": aliases,
		})
	}
	fmt.Fprintln(out, sql)
	fmt.Fprintf(out, "-- args: %v\n", args)
	return nil
}

func explainCommand(c *cli.Context) error {
	if c.NArg() < 3 {
		return errors.New("usage: fuzzysql explain <field> <value> <subject>...")
	}
	cfg, b, err := loadBuilder(c)
	if err != nil {
		return err
	}

	args := c.Args().Slice()
	explained, err := b.Explain(args[0], args[1], cfg.Extended, args[2:]...)
	if err != nil {
		return err
	}

	out := c.App.Writer
	if c.Bool("json") {
		return writeJSON(out, explained)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := []string{"SUBJECT"}
	if len(explained) > 0 {
		for _, term := range explained[0].Terms {
			header = append(header, strings.ToUpper(term.Kind.String()))
		}
	}
	header = append(header, "RELEVANCE")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, ex := range explained {
		row := []string{fmt.Sprintf("%q", ex.Subject)}
		for _, term := range ex.Terms {
			row = append(row, formatScore(term.Score))
		}
		row = append(row, formatScore(ex.Relevance))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func weightsCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}
	if err := registry.Validate(); err != nil {
		return err
	}

	specs := registry.Specs(cfg.Extended)
	violations := registry.Dominance(cfg.Extended)

	out := c.App.Writer
	if c.Bool("json") {
		rows := make([]map[string]interface{}, len(specs))
		for i, s := range specs {
			rows[i] = map[string]interface{}{"kind": s.Kind, "weight": s.Weight}
		}
		report := make([]map[string]interface{}, len(violations))
		for i, v := range violations {
			report[i] = map[string]interface{}{"kind": v.Kind, "weight": v.Weight, "lower_sum": v.LowerSum}
		}
		if err := writeJSON(out, map[string]interface{}{
			"extended":   cfg.Extended,
			"weights":    rows,
			"dominant":   len(violations) == 0,
			"violations": report,
		}); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MATCHER\tWEIGHT")
		for _, s := range specs {
			fmt.Fprintf(tw, "%s\t%d\n", s.Kind, s.Weight)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if len(violations) == 0 {
			fmt.Fprintln(out, "\nEvery tier outweighs the sum of the tiers below it.")
		} else {
			fmt.Fprintln(out, "\nDominated tiers:")
			for _, v := range violations {
				fmt.Fprintf(out, "  %s\n", v)
			}
		}
	}

	if c.Bool("strict") && len(violations) > 0 {
		errs := make([]error, len(violations))
		for i, v := range violations {
			errs[i] = fmt.Errorf("%w: %s", errDominated, v)
		}
		return fuzzyerrors.NewMultiError(errs)
	}
	return nil
}
