// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"strings"

	"github.com/huangsam/devhealth/core/rating"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the devhealth MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"devhealth Ratings Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{mgr: mgr}

	// --- 1. Tool: get_run_history ---
	s.AddTool(mcp.NewTool("get_run_history",
		mcp.WithDescription("List stored scrape runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of runs returned.")),
	), h.handleGetRunHistory)

	// --- 2. Tool: get_repo_ratings ---
	s.AddTool(mcp.NewTool("get_repo_ratings",
		mcp.WithDescription("Get the repository health ratings of a scrape run, lowest rating first."),
		mcp.WithNumber("run_id", mcp.Description("Run to read (defaults to the latest run).")),
		mcp.WithString("project", mcp.Description("Only return repositories of this project, as 'project' or 'collection/project'.")),
	), h.handleGetRepoRatings)

	// --- 3. Tool: rate_value ---
	s.AddTool(mcp.NewTool("rate_value",
		mcp.WithDescription("Rate a raw indicator value on the 0-100 health scale. Valid formulas: "+strings.Join(rating.FormulaNames(), ", ")+"."),
		mcp.WithString("formula", mcp.Description("Rating formula."), mcp.Required(), mcp.Enum(rating.FormulaNames()...)),
		mcp.WithNumber("baseline", mcp.Description("Baseline of the formula."), mcp.Required()),
		mcp.WithNumber("value", mcp.Description("Raw value to rate."), mcp.Required()),
		mcp.WithNumber("factor", mcp.Description("Points lost per unit above baseline (deviation only, defaults to 10).")),
	), h.handleRateValue)

	return s
}

// StartMCPServer starts the devhealth MCP server on stdio.
func StartMCPServer(_ context.Context, mgr contract.StoreManager) error {
	s := NewMCPServer(mgr)
	return server.ServeStdio(s)
}
