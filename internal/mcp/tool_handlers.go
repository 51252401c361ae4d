package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tusharemcp/internal/catalog"
	"tusharemcp/internal/executor"
	"tusharemcp/internal/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// Error kind prefixes, stable so calling agents can branch on them.
const (
	kindInvalidArgument  = "invalid_argument"
	kindUnknownAPI       = "unknown_api"
	kindMissingParameter = "missing_parameter"
	kindUpstreamError    = "upstream_error"
	kindInternalError    = "internal_error"
)

func toolError(kind string, format string, args ...interface{}) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", kind, fmt.Sprintf(format, args...)))
}

func (s *Server) handleSearchAPIDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword, err := request.RequireString("keyword")
	if err != nil {
		return toolError(kindInvalidArgument, "missing 'keyword' parameter: %v", err), nil
	}
	limit := request.GetInt("limit", catalog.DefaultSearchLimit)

	results, err := s.store.Search(keyword, limit)
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyKeyword) {
			return toolError(kindInvalidArgument, "%v", err), nil
		}
		return toolError(kindInternalError, "search failed: %v", err), nil
	}

	response := map[string]interface{}{
		"keyword": keyword,
		"count":   len(results),
		"results": results,
	}
	resultJSON, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return toolError(kindInternalError, "encoding search results: %v", err), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleGetAPIDoc(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apiName, err := request.RequireString("api_name")
	if err != nil {
		return toolError(kindInvalidArgument, "missing 'api_name' parameter: %v", err), nil
	}

	spec, ok := s.store.Get(apiName)
	if !ok {
		unknown := &executor.UnknownAPIError{
			Name:        apiName,
			Suggestions: s.store.Suggest(apiName, 3),
		}
		return toolError(kindUnknownAPI, "%v", unknown), nil
	}

	resultJSON, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return toolError(kindInternalError, "encoding api doc: %v", err), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleExecuteQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apiName, err := request.RequireString("api_name")
	if err != nil {
		return toolError(kindInvalidArgument, "missing 'api_name' parameter: %v", err), nil
	}

	var params map[string]interface{}
	if raw, ok := request.GetArguments()["params"]; ok && raw != nil {
		params, ok = raw.(map[string]interface{})
		if !ok {
			return toolError(kindInvalidArgument, "'params' must be an object"), nil
		}
	}

	result, err := s.exec.Execute(ctx, apiName, params)
	if err != nil {
		return mapExecuteError(apiName, err), nil
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return toolError(kindInternalError, "encoding result: %v", err), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// mapExecuteError translates the executor's error taxonomy into tool
// errors the agent can branch on. Per-call failures never surface as
// raw Go errors.
func mapExecuteError(apiName string, err error) *mcp.CallToolResult {
	var unknownErr *executor.UnknownAPIError
	if errors.As(err, &unknownErr) {
		return toolError(kindUnknownAPI, "%v", unknownErr)
	}
	var missingErr *executor.MissingParameterError
	if errors.As(err, &missingErr) {
		return toolError(kindMissingParameter, "%v", missingErr)
	}
	var upstreamErr *executor.UpstreamError
	if errors.As(err, &upstreamErr) {
		return toolError(kindUpstreamError, "%v", upstreamErr)
	}
	logging.Error("execute %s failed: %v", apiName, err)
	return toolError(kindInternalError, "%v", err)
}
