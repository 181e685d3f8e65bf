package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/fuzzysql/internal/debug"
	"github.com/standardbeagle/fuzzysql/internal/dialect"
	"github.com/standardbeagle/fuzzysql/internal/fuzzy"
	"github.com/standardbeagle/fuzzysql/internal/matcher"
	"github.com/standardbeagle/fuzzysql/internal/query"
	"github.com/standardbeagle/fuzzysql/internal/version"
)

var (
	errNoFields  = errors.New("at least one field is required")
	errNoTable   = errors.New("table is required")
	errNoSubject = errors.New("at least one subject is required")
)

type InfoParams struct {
	Tool string `json:"tool,omitempty"`
}

type ExpressionParams struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Extended bool   `json:"extended,omitempty"`
}

type QueryParams struct {
	Table    string   `json:"table"`
	Fields   []string `json:"fields"`
	Value    string   `json:"value"`
	Extended bool     `json:"extended,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

type ExplainParams struct {
	Field    string   `json:"field"`
	Value    string   `json:"value"`
	Extended bool     `json:"extended,omitempty"`
	Subjects []string `json:"subjects"`
}

type WeightsParams struct {
	Extended bool `json:"extended,omitempty"`
}

type TermResult struct {
	Kind   matcher.Kind `json:"kind"`
	Weight int          `json:"weight"`
	SQL    string       `json:"sql"`
}

type ExpressionResult struct {
	Field       string       `json:"field"`
	Alias       string       `json:"alias"`
	Column      string       `json:"column"`
	Value       string       `json:"value"`
	Terms       []TermResult `json:"terms"`
	SQL         string       `json:"sql"`
	Select      string       `json:"select"`
	Fingerprint string       `json:"fingerprint"`
}

type QueryResult struct {
	Dialect string   `json:"dialect"`
	SQL     string   `json:"sql"`
	Args    []any    `json:"args"`
	Aliases []string `json:"aliases"`
}

type WeightRow struct {
	Kind   matcher.Kind `json:"kind"`
	Weight int          `json:"weight"`
}

type ViolationResult struct {
	Kind     matcher.Kind `json:"kind"`
	Weight   int          `json:"weight"`
	LowerSum int          `json:"lower_sum"`
}

type WeightsResult struct {
	Extended   bool              `json:"extended"`
	Weights    []WeightRow       `json:"weights"`
	Dominant   bool              `json:"dominant"`
	Violations []ViolationResult `json:"violations"`
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "info",
		Description: "Describe the server and its tools. Use {\"tool\": \"<name>\"} for one tool or {\"tool\": \"version\"} for build info.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"tool": {
					Type:        "string",
					Description: "Tool name to describe (e.g. 'fuzzy_expression', 'version')",
				},
			},
		},
	}, s.logged("info", false, s.handleInfo))

	s.server.AddTool(&mcp.Tool{
		Name:        "fuzzy_expression",
		Description: "Build the fuzzy relevance SQL expression for one field and search value.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"field": {
					Type:        "string",
					Description: "Column name, optionally qualified (e.g. 'users.name')",
				},
				"value": {
					Type:        "string",
					Description: "Search term",
				},
				"extended": {
					Type:        "boolean",
					Description: "Use all eight matchers instead of the four core ones",
				},
			},
			Required: []string{"field", "value"},
		},
	}, s.logged("fuzzy_expression", true, s.handleExpression))

	s.server.AddTool(&mcp.Tool{
		Name:        "fuzzy_query",
		Description: "Render a complete SELECT that scores and filters a table by fuzzy relevance over one or more fields. Fields after the first are OR-ed in.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"table": {
					Type:        "string",
					Description: "Table name, optionally schema-qualified",
				},
				"fields": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Fields to score; results are ordered by the first",
				},
				"value": {
					Type:        "string",
					Description: "Search term",
				},
				"extended": {
					Type:        "boolean",
					Description: "Use all eight matchers",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum rows (default from config)",
				},
			},
			Required: []string{"table", "fields", "value"},
		},
	}, s.logged("fuzzy_query", true, s.handleQuery))

	s.server.AddTool(&mcp.Tool{
		Name:        "explain_match",
		Description: "Score sample column values in process and break the relevance down per matcher.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"field": {
					Type:        "string",
					Description: "Field the expression is built for",
				},
				"value": {
					Type:        "string",
					Description: "Search term",
				},
				"extended": {
					Type:        "boolean",
					Description: "Use all eight matchers",
				},
				"subjects": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Column values to score",
				},
			},
			Required: []string{"field", "value", "subjects"},
		},
	}, s.logged("explain_match", true, s.handleExplain))

	s.server.AddTool(&mcp.Tool{
		Name:        "weights",
		Description: "List the active matcher weights and report tiers that do not outweigh the sum of the tiers below them.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"extended": {
					Type:        "boolean",
					Description: "Report on the full eight-matcher table",
				},
			},
		},
	}, s.logged("weights", false, s.handleWeights))
}

// decodeArgs unmarshals tool arguments; a call without arguments leaves v
// at its zero value.
func decodeArgs(req *mcp.CallToolRequest, v interface{}) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

var toolHelp = map[string]string{
	"fuzzy_expression": "{\"field\": \"users.name\", \"value\": \"jon\", \"extended\": false} returns the relevance expression, its alias and per-matcher terms",
	"fuzzy_query":      "{\"table\": \"users\", \"fields\": [\"name\", \"email\"], \"value\": \"jon\"} returns SQL with ? placeholders and its args",
	"explain_match":    "{\"field\": \"name\", \"value\": \"jon\", \"subjects\": [\"Jon\", \"Jonathan\"]} returns the score of each subject per matcher",
	"weights":          "{\"extended\": true} returns the weight table and any dominance violations",
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params InfoParams
	if err := decodeArgs(req, &params); err != nil {
		return createErrorResponseWithHelp("info", err, "Use: {\"tool\": \"fuzzy_expression\"} or {\"tool\": \"version\"}")
	}

	tool := strings.ToLower(strings.TrimSpace(params.Tool))
	switch tool {
	case "":
		return createJSONResponse(map[string]interface{}{
			"server":   serverName,
			"version":  version.Info(),
			"dialect":  s.builder.Dialect().Name(),
			"dialects": dialect.Names(),
			"tools":    []string{"fuzzy_expression", "fuzzy_query", "explain_match", "weights"},
		})
	case "version":
		return createJSONResponse(map[string]interface{}{
			"server_name":    serverName,
			"server_version": version.FullInfo(),
			"build_id":       version.BuildID(),
			"go_version":     runtime.Version(),
			"platform":       runtime.GOOS + "/" + runtime.GOARCH,
		})
	}

	help, ok := toolHelp[tool]
	if !ok {
		return createErrorResponse("info", fmt.Errorf("unknown tool %q", params.Tool))
	}
	return createJSONResponse(map[string]interface{}{
		"name":    tool,
		"example": help,
	})
}

func (s *Server) handleExpression(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ExpressionParams
	if err := decodeArgs(req, &params); err != nil {
		return createErrorResponse("fuzzy_expression", err)
	}
	debug.LogMCP("fuzzy_expression field=%q value=%q extended=%v\n", params.Field, params.Value, params.Extended)

	expr, err := s.builder.Build(params.Field, params.Value, params.Extended)
	if err != nil {
		return createErrorResponse("fuzzy_expression", err)
	}
	return createJSONResponse(expressionResult(expr))
}

func expressionResult(expr *fuzzy.Expression) ExpressionResult {
	terms := make([]TermResult, len(expr.Terms))
	for i, t := range expr.Terms {
		terms[i] = TermResult{Kind: t.Kind, Weight: t.Weight, SQL: t.SQL}
	}
	return ExpressionResult{
		Field:       expr.Field,
		Alias:       expr.Alias,
		Column:      expr.Column,
		Value:       expr.Value,
		Terms:       terms,
		SQL:         expr.SQL,
		Select:      expr.Select(),
		Fingerprint: strconv.FormatUint(expr.Fingerprint(), 16),
	}
}

func (s *Server) handleQuery(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params QueryParams
	if err := decodeArgs(req, &params); err != nil {
		return createErrorResponse("fuzzy_query", err)
	}
	if strings.TrimSpace(params.Table) == "" {
		return createErrorResponse("fuzzy_query", errNoTable)
	}
	if len(params.Fields) == 0 {
		return createErrorResponse("fuzzy_query", errNoFields)
	}
	debug.LogMCP("fuzzy_query table=%q fields=%v value=%q\n", params.Table, params.Fields, params.Value)

	q := query.New(params.Table)
	aliases := make([]string, 0, len(params.Fields))
	for i, field := range params.Fields {
		attach := s.builder.AttachOr
		if i == 0 {
			attach = s.builder.AttachAnd
		}
		if _, err := attach(q, field, params.Value, params.Extended); err != nil {
			return createErrorResponse("fuzzy_query", err)
		}
		havings := q.Havings()
		aliases = append(aliases, havings[len(havings)-1].Column)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = s.cfg.Search.Limit
	}
	q.OrderBy(aliases[0], true).Limit(limit)

	sql, args, err := q.ToSQL(s.builder.Dialect())
	if err != nil {
		return createErrorResponse("fuzzy_query", err)
	}
	return createJSONResponse(QueryResult{
		Dialect: s.builder.Dialect().Name(),
		SQL:     sql,
		Args:    args,
		Aliases: aliases,
	})
}

func (s *Server) handleExplain(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ExplainParams
	if err := decodeArgs(req, &params); err != nil {
		return createErrorResponse("explain_match", err)
	}
	if len(params.Subjects) == 0 {
		return createErrorResponse("explain_match", errNoSubject)
	}

	explained, err := s.builder.Explain(params.Field, params.Value, params.Extended, params.Subjects...)
	if err != nil {
		return createErrorResponse("explain_match", err)
	}
	return createJSONResponse(map[string]interface{}{
		"field":        params.Field,
		"value":        params.Value,
		"explanations": explained,
	})
}

func (s *Server) handleWeights(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params WeightsParams
	if err := decodeArgs(req, &params); err != nil {
		return createErrorResponse("weights", err)
	}
	return createJSONResponse(weightsResult(s.builder.Registry(), params.Extended))
}

func weightsResult(r matcher.Registry, extended bool) WeightsResult {
	specs := r.Specs(extended)
	result := WeightsResult{
		Extended:   extended,
		Weights:    make([]WeightRow, len(specs)),
		Violations: []ViolationResult{},
	}
	for i, spec := range specs {
		result.Weights[i] = WeightRow{Kind: spec.Kind, Weight: spec.Weight}
	}
	for _, v := range r.Dominance(extended) {
		result.Violations = append(result.Violations, ViolationResult{Kind: v.Kind, Weight: v.Weight, LowerSum: v.LowerSum})
	}
	result.Dominant = len(result.Violations) == 0
	return result
}
