package main

import (
	"context"
	"fmt"
	"os"

	"tusharemcp/internal/mcp"

	"github.com/spf13/cobra"
)

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Start the MCP server in stdio mode",
	Long: `Start the Tushare MCP server using stdio transport for direct
communication. This is the mode MCP clients such as agent runtimes use:
JSON-RPC over stdin/stdout, with all logging kept on stderr.`,
	RunE: runStdioServer,
}

func runStdioServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadGatewayConfig(cmd)
	if err != nil {
		return err
	}

	store, effective, exec, err := buildGateway(cfg)
	if err != nil {
		return err
	}

	server := mcp.New(store, exec, effective)

	// Startup message on stderr so it does not interfere with the
	// stdio protocol.
	fmt.Fprintf(os.Stderr, "Tushare MCP Gateway starting in stdio mode (%d apis)\n", store.Len())

	if err := server.StartStdio(context.Background()); err != nil {
		return fmt.Errorf("failed to start MCP stdio server: %w", err)
	}
	return nil
}
