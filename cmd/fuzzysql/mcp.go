package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fuzzysql/internal/debug"
	"github.com/standardbeagle/fuzzysql/internal/mcp"
)

func mcpCommand(c *cli.Context) error {
	// stdio belongs to the protocol from here on
	debug.SetMCPMode(true)

	cfg, b, err := loadBuilder(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mcpServer, err := mcp.NewServer(b, cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer mcpServer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug.LogMCP("Starting MCP server with stdio transport...\n")
	if err := mcpServer.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	debug.LogMCP("Server shutdown completed\n")
	return nil
}
