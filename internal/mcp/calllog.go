package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CallLog records one line per tool call while stdio carries the protocol:
//
//	tool=fuzzy_query dialect=sqlite fields=name,email terms=8 took=412µs status=ok
//
// Close appends a session summary.
type CallLog struct {
	mu     sync.Mutex
	logger *log.Logger
	closer io.Closer
	path   string
	calls  int
	failed int
}

// ToolCall describes a finished tool call.
type ToolCall struct {
	Tool     string
	Dialect  string
	Fields   []string
	Terms    int
	Duration time.Duration
	Err      string // empty on success
}

// NewCallLog writes call records to w.
func NewCallLog(w io.Writer) *CallLog {
	return &CallLog{logger: log.New(w, "", log.LstdFlags)}
}

// OpenCallLog creates a timestamped log file under dir.
func OpenCallLog(dir string) (*CallLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("mcp-%s.log", time.Now().Format("2006-01-02T150405")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	l := NewCallLog(file)
	l.closer = file
	l.path = path
	return l, nil
}

// defaultCallLog logs under the temp dir, or nowhere if that fails.
func defaultCallLog() *CallLog {
	l, err := OpenCallLog(filepath.Join(os.TempDir(), "fuzzysql-mcp-logs"))
	if err != nil {
		return NewCallLog(io.Discard)
	}
	return l
}

// Path is the log file, empty when logging to a writer.
func (l *CallLog) Path() string { return l.path }

func (l *CallLog) Printf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf(format, v...)
}

func (l *CallLog) Record(c ToolCall) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tool=%s dialect=%s", c.Tool, c.Dialect)
	if len(c.Fields) > 0 {
		fmt.Fprintf(&sb, " fields=%s", strings.Join(c.Fields, ","))
	}
	if c.Terms > 0 {
		fmt.Fprintf(&sb, " terms=%d", c.Terms)
	}
	fmt.Fprintf(&sb, " took=%s", c.Duration.Round(time.Microsecond))
	if c.Err != "" {
		fmt.Fprintf(&sb, " status=error err=%q", c.Err)
	} else {
		sb.WriteString(" status=ok")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if c.Err != "" {
		l.failed++
	}
	l.logger.Print(sb.String())
}

// Stats returns the number of calls recorded and how many failed.
func (l *CallLog) Stats() (calls, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls, l.failed
}

func (l *CallLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("session: %d calls, %d failed", l.calls, l.failed)
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// callArgs are the arguments shared by the expression-building tools.
type callArgs struct {
	Field    string   `json:"field"`
	Fields   []string `json:"fields"`
	Extended bool     `json:"extended"`
}

// logged wraps h so every call is timed and recorded. Tools that build
// expressions also report their fields and the number of terms per field.
func (s *Server) logged(tool string, buildsTerms bool, h mcp.ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := h(ctx, req)

		call := ToolCall{
			Tool:     tool,
			Dialect:  s.builder.Dialect().Name(),
			Duration: time.Since(start),
		}
		var args callArgs
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			_ = json.Unmarshal(req.Params.Arguments, &args)
		}
		call.Fields = args.Fields
		if args.Field != "" {
			call.Fields = []string{args.Field}
		}
		if buildsTerms {
			call.Terms = len(s.builder.Registry().Specs(args.Extended))
		}
		switch {
		case err != nil:
			call.Err = err.Error()
		case result != nil && result.IsError:
			call.Err = errorText(result)
		}

		s.calls.Record(call)
		return result, err
	}
}

// errorText pulls the message out of an error response.
func errorText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "error"
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return "error"
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(text.Text), &body) != nil || body.Error == "" {
		return "error"
	}
	return body.Error
}
