// Package mcpserver exposes a site's webagents.md API to MCP clients.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jhaveripatric/webagents/internal/client"
	"github.com/jhaveripatric/webagents/internal/sandbox"
)

// Tool names registered on the server.
const (
	ToolExecute = client.ExecuteToolName
	ToolContext = "webagents_context"
	ToolList    = "webagents_tools"
)

// NewServer creates an MCP server for the manifest loaded in agent. Code is
// run with ev.
func NewServer(version string, agent *client.AgentClient, ev sandbox.Evaluator) *server.MCPServer {
	h := &Handlers{agent: agent, evaluator: ev}
	exec := client.ExecuteTool()

	s := server.NewMCPServer(
		"webagents",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool(ToolExecute,
			mcp.WithDescription(exec.Function.Description),
			mcp.WithString("code", mcp.Required(), mcp.Description("JavaScript code to execute in the browser.")),
		),
		h.HandleExecute,
	)

	s.AddTool(
		mcp.NewTool(ToolContext,
			mcp.WithDescription("Return the site's TypeScript API declarations and instructions. Read this before calling "+ToolExecute+"."),
		),
		h.HandleContext,
	)

	s.AddTool(
		mcp.NewTool(ToolList,
			mcp.WithDescription("List the functions the site exposes on global, or describe one of them"),
			mcp.WithString("name", mcp.Description("Function name to describe (optional)")),
		),
		h.HandleTools,
	)

	return s
}
