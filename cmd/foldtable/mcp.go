package main

import (
	"fmt"

	"github.com/aretw0/foldtable/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [rules]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the handler table and streams as MCP tools (dispatch_event,
get_stream, list_handlers).

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, opts, err := commonOptions(cmd, args)
		if err != nil {
			return err
		}

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		mcpOpts := cli.MCPOptions{}
		switch transport {
		case "stdio":
		case "sse":
			mcpOpts.SSEPort = port
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}

		ctx := cli.WithStopSignals(cmd.Context())
		defer ctx.Stop()

		return cli.ServeMCP(ctx, cfg, opts, mcpOpts)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
