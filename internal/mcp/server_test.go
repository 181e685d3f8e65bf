package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/fuzzysql/internal/config"
	"github.com/standardbeagle/fuzzysql/internal/dialect"
	"github.com/standardbeagle/fuzzysql/internal/fuzzy"
)

var testClientImpl = &mcp.Implementation{Name: "fuzzysql-test", Version: "0.0.1"}

func newTestServer(t *testing.T, opts ...fuzzy.Option) *Server {
	t.Helper()
	return newLoggedTestServer(t, io.Discard, opts...)
}

func newLoggedTestServer(t *testing.T, w io.Writer, opts ...fuzzy.Option) *Server {
	t.Helper()
	b, err := fuzzy.New(opts...)
	require.NoError(t, err)
	s, err := newServer(b, config.Default(), NewCallLog(w))
	require.NoError(t, err)
	return s
}

// connect wires a client session to s over in-memory transports.
func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(testClientImpl, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text.Text), out), text.Text)
	}
	return result
}

func TestNewServer_NilBuilder(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.ErrorIs(t, err, ErrNilBuilder)
}

func TestListTools(t *testing.T) {
	session := connect(t, newTestServer(t))

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, expected := range []string{"info", "fuzzy_expression", "fuzzy_query", "explain_match", "weights"} {
		assert.True(t, names[expected], "missing tool %q", expected)
	}
}

func TestInfoTool(t *testing.T) {
	session := connect(t, newTestServer(t))

	var overview map[string]any
	callTool(t, session, "info", map[string]any{}, &overview)
	assert.Equal(t, "fuzzysql", overview["server"])
	assert.Equal(t, "mysql", overview["dialect"])

	var ver map[string]any
	callTool(t, session, "info", map[string]any{"tool": "version"}, &ver)
	assert.Contains(t, ver["server_version"], "fuzzysql")
	assert.NotEmpty(t, ver["build_id"])

	var tool map[string]any
	callTool(t, session, "info", map[string]any{"tool": "Weights"}, &tool)
	assert.Equal(t, "weights", tool["name"])

	result := callTool(t, session, "info", map[string]any{"tool": "nope"}, nil)
	assert.True(t, result.IsError)
}

func TestExpressionTool(t *testing.T) {
	session := connect(t, newTestServer(t))

	var got ExpressionResult
	callTool(t, session, "fuzzy_expression", map[string]any{"field": "users.name", "value": "Jon"}, &got)

	assert.Equal(t, "users.name", got.Field)
	assert.Equal(t, "fuzzy_relevance_users_name", got.Alias)
	assert.Equal(t, "COALESCE(`users`.`name`, '')", got.Column)
	require.Len(t, got.Terms, 4)
	assert.Equal(t, "exact", got.Terms[0].Kind.String())
	assert.Equal(t, 100, got.Terms[0].Weight)
	assert.Equal(t, got.SQL+" AS "+got.Alias, got.Select)
	assert.NotEmpty(t, got.Fingerprint)

	var extended ExpressionResult
	callTool(t, session, "fuzzy_expression", map[string]any{"field": "name", "value": "Jon", "extended": true}, &extended)
	assert.Len(t, extended.Terms, 8)
}

func TestExpressionTool_InvalidField(t *testing.T) {
	session := connect(t, newTestServer(t))

	var body map[string]any
	result := callTool(t, session, "fuzzy_expression", map[string]any{"field": "name; DROP", "value": "x"}, &body)
	assert.True(t, result.IsError)
	assert.Equal(t, "fuzzy_expression", body["operation"])
	assert.Equal(t, false, body["success"])
}

func TestQueryTool(t *testing.T) {
	session := connect(t, newTestServer(t, fuzzy.WithDialect(dialect.SQLite{})))

	var got QueryResult
	callTool(t, session, "fuzzy_query", map[string]any{
		"table":  "contacts",
		"fields": []string{"name", "email"},
		"value":  "jon",
		"limit":  5,
	}, &got)

	assert.Equal(t, "sqlite", got.Dialect)
	assert.Equal(t, []string{"fuzzy_relevance_name", "fuzzy_relevance_email"}, got.Aliases)
	assert.Contains(t, got.SQL, `SELECT * FROM (SELECT *, `)
	assert.Contains(t, got.SQL, `WHERE "fuzzy_relevance_name" > ? OR "fuzzy_relevance_email" > ?`)
	assert.Contains(t, got.SQL, `ORDER BY "fuzzy_relevance_name" DESC LIMIT 5`)
	assert.Len(t, got.Args, 2)
}

func TestQueryTool_DefaultLimit(t *testing.T) {
	session := connect(t, newTestServer(t))

	var got QueryResult
	callTool(t, session, "fuzzy_query", map[string]any{
		"table":  "users",
		"fields": []string{"name"},
		"value":  "jon",
	}, &got)
	assert.Contains(t, got.SQL, "HAVING `fuzzy_relevance_name` > ?")
	assert.Contains(t, got.SQL, "LIMIT 50")
}

func TestQueryTool_Errors(t *testing.T) {
	session := connect(t, newTestServer(t))

	tests := []struct {
		name string
		args map[string]any
	}{
		{"no table", map[string]any{"fields": []string{"name"}, "value": "x"}},
		{"no fields", map[string]any{"table": "users", "value": "x"}},
		{"bad field", map[string]any{"table": "users", "fields": []string{"a b"}, "value": "x"}},
		{"bad table", map[string]any{"table": "users;", "fields": []string{"name"}, "value": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, session, "fuzzy_query", tt.args, nil)
			assert.True(t, result.IsError)
		})
	}
}

func TestExplainTool(t *testing.T) {
	session := connect(t, newTestServer(t))

	var got struct {
		Explanations []fuzzy.Explanation `json:"explanations"`
	}
	callTool(t, session, "explain_match", map[string]any{
		"field":    "name",
		"value":    "Jon",
		"subjects": []string{"Jon", "Jonathan", "Mary"},
	}, &got)

	require.Len(t, got.Explanations, 3)
	assert.InDelta(t, 190.0, got.Explanations[0].Relevance, 1e-9)
	assert.InDelta(t, 65.0, got.Explanations[1].Relevance, 1e-9)
	assert.False(t, got.Explanations[2].Matched)

	result := callTool(t, session, "explain_match", map[string]any{"field": "name", "value": "Jon"}, nil)
	assert.True(t, result.IsError)
}

func TestWeightsTool(t *testing.T) {
	session := connect(t, newTestServer(t))

	var core WeightsResult
	callTool(t, session, "weights", map[string]any{}, &core)
	assert.False(t, core.Extended)
	require.Len(t, core.Weights, 4)
	assert.False(t, core.Dominant)
	require.Len(t, core.Violations, 2)
	assert.Equal(t, "exact", core.Violations[0].Kind.String())
	assert.Equal(t, 132, core.Violations[0].LowerSum)

	var full WeightsResult
	callTool(t, session, "weights", map[string]any{"extended": true}, &full)
	assert.Len(t, full.Weights, 8)
	assert.Len(t, full.Violations, 6)
}

func TestCallLog_RecordsToolCalls(t *testing.T) {
	var buf bytes.Buffer
	s := newLoggedTestServer(t, &buf, fuzzy.WithDialect(dialect.SQLite{}))
	session := connect(t, s)

	callTool(t, session, "fuzzy_expression", map[string]any{"field": "users.name", "value": "jon"}, nil)
	callTool(t, session, "fuzzy_query", map[string]any{"table": "users", "fields": []string{"name", "email"}, "value": "jon", "extended": true}, nil)
	callTool(t, session, "fuzzy_expression", map[string]any{"field": "bad field", "value": "jon"}, nil)
	callTool(t, session, "weights", map[string]any{}, nil)

	calls, failed := s.calls.Stats()
	assert.Equal(t, 4, calls)
	assert.Equal(t, 1, failed)

	require.NoError(t, s.Close())
	out := buf.String()
	assert.Contains(t, out, "MCP server initialized (dialect sqlite)")
	assert.Contains(t, out, "tool=fuzzy_expression dialect=sqlite fields=users.name terms=4 took=")
	assert.Contains(t, out, "tool=fuzzy_query dialect=sqlite fields=name,email terms=8 took=")
	assert.Contains(t, out, "tool=fuzzy_expression dialect=sqlite fields=bad field terms=4 took=")
	assert.Contains(t, out, "status=error err=")
	assert.Contains(t, out, "tool=weights dialect=sqlite took=")
	assert.Contains(t, out, "session: 4 calls, 1 failed")
}

func TestOpenCallLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := OpenCallLog(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(l.Path()))

	l.Record(ToolCall{Tool: "info", Dialect: "mysql"})
	require.NoError(t, l.Close())

	content, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), "tool=info dialect=mysql took=0s status=ok")
	assert.Contains(t, string(content), "session: 1 calls, 0 failed")
}
