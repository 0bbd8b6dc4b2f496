package client

// ExecuteToolName is the name of the single tool an agent is given.
const ExecuteToolName = "execute_js"

// FunctionTool is a tool descriptor in OpenAI function-calling format.
type FunctionTool struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec describes a callable function and its JSON Schema parameters.
type FunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ExecuteTool returns the execute_js descriptor. Every call returns a
// fresh value.
func ExecuteTool() FunctionTool {
	return FunctionTool{
		Type: "function",
		Function: FunctionSpec{
			Name: ExecuteToolName,
			Description: "Execute JavaScript code in the browser. " +
				"Use the global.* functions from the TypeScript API. " +
				"Use `await` for async calls and `return` the final result. " +
				"You can chain multiple calls in one code block.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"code": map[string]any{
						"type":        "string",
						"description": "JavaScript code to execute in the browser.",
					},
				},
				"required": []any{"code"},
			},
		},
	}
}

// ExecuteTool returns the execute_js descriptor.
func (c *AgentClient) ExecuteTool() FunctionTool {
	return ExecuteTool()
}
