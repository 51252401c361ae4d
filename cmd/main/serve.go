package main

import (
	"context"
	"fmt"

	"tusharemcp/internal/mcp"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over streamable HTTP",
	Long: `Start the Tushare MCP server using the streamable HTTP transport.
The MCP endpoint is served at http://localhost:<port>/mcp.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (default 3000, or TUSHARE_MCP_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadGatewayConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.MCPPort, _ = cmd.Flags().GetInt("port")
	}

	store, effective, exec, err := buildGateway(cfg)
	if err != nil {
		return err
	}

	server := mcp.New(store, exec, effective)
	if err := server.Start(context.Background(), cfg.MCPPort); err != nil {
		return fmt.Errorf("failed to start MCP server: %w", err)
	}
	return nil
}
