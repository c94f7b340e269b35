package cli

import (
	"context"

	"github.com/aretw0/foldtable/internal/config"
	"github.com/aretw0/foldtable/pkg/adapters/mcp"
)

// MCPOptions configures the MCP server.
type MCPOptions struct {
	// SSEPort serves SSE instead of stdio when positive.
	SSEPort int
}

// NewMCPServer wires rules and store into an MCP server.
// The returned App must be closed by the caller.
func NewMCPServer(cfg *config.Config, opts Options) (*mcp.Server, *App, error) {
	app, err := NewApp(cfg, opts)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := app.NewManager()
	if err != nil {
		_ = app.Close()
		return nil, nil, err
	}
	return mcp.NewServer(mgr, app.Keys(), app.Sanitizer), app, nil
}

// ServeMCP runs the MCP server over stdio, or SSE when a port is given.
func ServeMCP(ctx context.Context, cfg *config.Config, opts Options, mcpOpts MCPOptions) error {
	srv, app, err := NewMCPServer(cfg, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	if mcpOpts.SSEPort > 0 {
		err := srv.ServeSSE(ctx, mcpOpts.SSEPort)
		if reason := StopReason(ctx); reason != "" {
			app.Logger.Info("MCP Server stopped", "reason", reason)
		}
		return err
	}
	// Logs go to stderr; stdout carries the protocol.
	app.Logger.Info("MCP Server listening (stdio)", "rules", opts.RulesPath)
	return srv.ServeStdio()
}
