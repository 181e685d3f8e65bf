// Package query is a small SELECT builder. It implements the query object
// the fuzzy builder attaches relevance expressions to and renders it for a
// dialect, with values bound as ? placeholders.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/standardbeagle/fuzzysql/internal/debug"
	"github.com/standardbeagle/fuzzysql/internal/dialect"
)

var (
	ErrInvalidOperator   = errors.New("query: unsupported comparison operator")
	ErrInvalidIdentifier = errors.New("query: invalid identifier")
	ErrNoTable           = errors.New("query: no table")
)

// subqueryAlias names the derived table used when a dialect cannot filter
// select-list aliases with HAVING.
const subqueryAlias = "fuzzy_scored"

var operators = map[string]bool{
	"=": true, "<>": true, "!=": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"LIKE": true, "NOT LIKE": true,
}

// Condition is one WHERE or HAVING predicate.
type Condition struct {
	Boolean  string // AND or OR; ignored on the first condition
	Column   string
	Operator string
	Value    any
}

type order struct {
	column string
	desc   bool
}

// Builder accumulates a single-table SELECT. It is not safe for concurrent
// use.
type Builder struct {
	table   string
	columns []string
	wheres  []Condition
	havings []Condition
	orders  []order
	limit   int
}

// New starts a query on table (optionally schema-qualified).
func New(table string) *Builder {
	return &Builder{table: table}
}

func (b *Builder) Table() string { return b.table }

// Columns returns a copy of the select list.
func (b *Builder) Columns() []string {
	return append([]string(nil), b.columns...)
}

func (b *Builder) SetColumns(columns []string) {
	b.columns = append([]string(nil), columns...)
}

// AddSelect appends raw select-list items.
func (b *Builder) AddSelect(expressions ...string) {
	b.columns = append(b.columns, expressions...)
}

func (b *Builder) Where(column, operator string, value any) *Builder {
	b.wheres = append(b.wheres, Condition{Boolean: "AND", Column: column, Operator: operator, Value: value})
	return b
}

func (b *Builder) OrWhere(column, operator string, value any) *Builder {
	b.wheres = append(b.wheres, Condition{Boolean: "OR", Column: column, Operator: operator, Value: value})
	return b
}

func (b *Builder) Having(column, operator string, value any) {
	b.havings = append(b.havings, Condition{Boolean: "AND", Column: column, Operator: operator, Value: value})
}

func (b *Builder) OrHaving(column, operator string, value any) {
	b.havings = append(b.havings, Condition{Boolean: "OR", Column: column, Operator: operator, Value: value})
}

// Havings returns a copy of the HAVING predicates in order.
func (b *Builder) Havings() []Condition {
	return append([]Condition(nil), b.havings...)
}

// SetHavings replaces the HAVING predicates.
func (b *Builder) SetHavings(conds []Condition) {
	b.havings = append([]Condition(nil), conds...)
}

func (b *Builder) OrderBy(column string, desc bool) *Builder {
	b.orders = append(b.orders, order{column: column, desc: desc})
	return b
}

// Limit caps the row count; 0 means no limit.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// ToSQL renders the query for d. Alias predicates become HAVING where the
// dialect allows it, and an outer WHERE over a derived table otherwise.
func (b *Builder) ToSQL(d dialect.Dialect) (string, []any, error) {
	if d == nil {
		d = dialect.Default()
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, ErrNoTable
	}
	table, err := quoteName(d, b.table)
	if err != nil {
		return "", nil, err
	}

	columns := b.columns
	if len(columns) == 0 {
		columns = []string{"*"}
	}

	var args []any
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	if len(b.wheres) > 0 {
		clause, whereArgs, err := renderConditions(d, b.wheres)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(clause)
		args = append(args, whereArgs...)
	}

	if len(b.havings) > 0 {
		clause, havingArgs, err := renderConditions(d, b.havings)
		if err != nil {
			return "", nil, err
		}
		if d.HavingOnAlias() {
			sb.WriteString(" HAVING ")
			sb.WriteString(clause)
		} else {
			inner := sb.String()
			sb.Reset()
			sb.WriteString("SELECT * FROM (")
			sb.WriteString(inner)
			sb.WriteString(") AS ")
			sb.WriteString(subqueryAlias)
			sb.WriteString(" WHERE ")
			sb.WriteString(clause)
		}
		args = append(args, havingArgs...)
	}

	if len(b.orders) > 0 {
		parts := make([]string, len(b.orders))
		for i, o := range b.orders {
			col, err := quoteName(d, o.column)
			if err != nil {
				return "", nil, err
			}
			if o.desc {
				col += " DESC"
			}
			parts[i] = col
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	if b.limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}

	sql := sb.String()
	debug.LogQuery("%s args=%v\n", sql, args)
	return sql, args, nil
}

func renderConditions(d dialect.Dialect, conds []Condition) (string, []any, error) {
	var sb strings.Builder
	args := make([]any, 0, len(conds))
	for i, c := range conds {
		op := strings.ToUpper(strings.TrimSpace(c.Operator))
		if !operators[op] {
			return "", nil, fmt.Errorf("%w: %q", ErrInvalidOperator, c.Operator)
		}
		col, err := quoteName(d, c.Column)
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(c.Boolean)
			sb.WriteString(" ")
		}
		sb.WriteString(col)
		sb.WriteString(" ")
		sb.WriteString(op)
		sb.WriteString(" ?")
		args = append(args, c.Value)
	}
	return sb.String(), args, nil
}

// quoteName quotes a dotted identifier after checking each segment.
func quoteName(d dialect.Dialect, name string) (string, error) {
	segments := strings.Split(strings.TrimSpace(name), ".")
	for _, seg := range segments {
		if seg == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
		for _, r := range seg {
			if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
			}
		}
	}
	return dialect.QuoteQualified(d, segments), nil
}
