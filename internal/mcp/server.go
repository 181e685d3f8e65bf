// Package mcp exposes the fuzzy relevance builder as Model Context Protocol
// tools over stdio.
package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/fuzzysql/internal/config"
	"github.com/standardbeagle/fuzzysql/internal/debug"
	"github.com/standardbeagle/fuzzysql/internal/fuzzy"
	"github.com/standardbeagle/fuzzysql/internal/version"
)

const serverName = "fuzzysql"

var ErrNilBuilder = errors.New("mcp: builder is nil")

type Server struct {
	server  *mcp.Server
	builder *fuzzy.Builder
	cfg     *config.Config
	calls   *CallLog
}

// NewServer creates an MCP server that builds expressions with b. cfg
// supplies search defaults and may be nil.
func NewServer(b *fuzzy.Builder, cfg *config.Config) (*Server, error) {
	return newServer(b, cfg, defaultCallLog())
}

func newServer(b *fuzzy.Builder, cfg *config.Config, calls *CallLog) (*Server, error) {
	if b == nil {
		return nil, ErrNilBuilder
	}
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		builder: b,
		cfg:     cfg,
		calls:   calls,
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: version.Info(),
	}, nil)
	s.registerTools()

	calls.Printf("MCP server initialized (dialect %s)", b.Dialect().Name())
	if calls.Path() != "" {
		debug.LogMCP("tool calls logged to %s\n", calls.Path())
	}
	return s, nil
}

// Start serves on stdio until ctx is done or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	debug.SetMCPMode(true)
	s.calls.Printf("Starting MCP server with stdio transport")
	err := s.Run(ctx, &mcp.StdioTransport{})
	if err != nil && ctx.Err() == nil {
		s.calls.Printf("ERROR: server stopped: %v", err)
	}
	return err
}

// Run serves on an arbitrary transport.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.server.Run(ctx, t)
}

// Close writes the call summary and releases the call log.
func (s *Server) Close() error {
	return s.calls.Close()
}
