package mcpserver

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jhaveripatric/webagents/internal/client"
	"github.com/jhaveripatric/webagents/internal/manifest"
	"github.com/jhaveripatric/webagents/internal/sandbox"
)

// Handlers implements the MCP tools.
type Handlers struct {
	agent     *client.AgentClient
	evaluator sandbox.Evaluator
}

// HandleExecute implements the execute_js MCP tool.
func (h *Handlers) HandleExecute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, _ := req.GetArguments()["code"].(string)
	if strings.TrimSpace(code) == "" {
		return errorResult("code argument is required"), nil
	}
	return textResult(h.agent.Execute(ctx, h.evaluator, code)), nil
}

// HandleContext implements the webagents_context MCP tool.
func (h *Handlers) HandleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := h.agent.ContextForLLM()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(text), nil
}

// HandleTools implements the webagents_tools MCP tool.
func (h *Handlers) HandleTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, _ := req.GetArguments()["name"].(string)
	if name == "" {
		names, err := h.agent.ListTools()
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(strings.Join(names, "\n")), nil
	}

	tool, err := h.agent.Tool(name)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	single := &manifest.Manifest{Tools: []manifest.Tool{*tool}}
	return textResult(manifest.GenerateTypeScript(single)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
