package mcp

import (
	"context"
	"fmt"

	"tusharemcp/internal/catalog"
	"tusharemcp/internal/executor"
	"tusharemcp/internal/limits"
	"tusharemcp/internal/logging"
	"tusharemcp/internal/version"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the gateway's tools over MCP. It owns the
// process-wide singletons: the loaded catalog, the resolved limits and
// the executor holding the single rate limiter.
type Server struct {
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	store      *catalog.Store
	exec       *executor.Executor
	limits     limits.EffectiveLimits
}

func New(store *catalog.Store, exec *executor.Executor, effective limits.EffectiveLimits) *Server {
	mcpServer := server.NewMCPServer(
		"Tushare MCP Gateway",
		version.GetVersion(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		httpServer: server.NewStreamableHTTPServer(mcpServer),
		store:      store,
		exec:       exec,
		limits:     effective,
	}
	s.setupTools()
	return s
}

func (s *Server) setupTools() {
	searchTool := mcp.NewTool("search_api_docs",
		mcp.WithDescription("Fuzzy-search the Tushare API catalog by keyword. Returns ranked api names with descriptions and required parameters. Free and fast; never throttled."),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("Search keyword, e.g. 'daily quotes' or 'income statement'")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default: 10)")),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchAPIDocs)

	docTool := mcp.NewTool("get_api_doc",
		mcp.WithDescription("Return the full catalog entry for one Tushare api: parameters, required flags and return fields."),
		mcp.WithString("api_name", mcp.Required(), mcp.Description("Exact api name, e.g. 'daily'")),
	)
	s.mcpServer.AddTool(docTool, s.handleGetAPIDoc)

	executeTool := mcp.NewTool("execute_tushare_query",
		mcp.WithDescription("Execute any cataloged Tushare api by name. Validates required parameters, applies the process-wide rate limit and truncates oversized tabular results."),
		mcp.WithString("api_name", mcp.Required(), mcp.Description("Api name as listed in the catalog, e.g. 'daily'")),
		mcp.WithObject("params", mcp.Description("Parameters passed through to the upstream api, e.g. {\"ts_code\": \"000001.SZ\"}")),
	)
	s.mcpServer.AddTool(executeTool, s.handleExecuteQuery)
}

// Start serves MCP over streamable HTTP.
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting MCP server on %s (catalog: %d apis, limits: %s)",
		addr, s.store.Len(), s.limits.Source)

	if err := s.httpServer.Start(addr); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// StartStdio serves MCP over stdin/stdout.
func (s *Server) StartStdio(ctx context.Context) error {
	logging.Info("starting MCP server on stdio (catalog: %d apis, limits: %s)",
		s.store.Len(), s.limits.Source)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("MCP server shutting down")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
