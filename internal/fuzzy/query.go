package fuzzy

// Query is the query object a relevance expression is attached to. The
// builder only ever appends to it.
type Query interface {
	Columns() []string
	SetColumns(columns []string)
	AddSelect(expressions ...string)
	Having(column, operator string, value any)
	OrHaving(column, operator string, value any)
}

// Quoter is the driver escaping primitive: it returns raw as a quoted SQL
// string literal. Errors are passed through to the caller untouched.
type Quoter func(raw string) (string, error)
