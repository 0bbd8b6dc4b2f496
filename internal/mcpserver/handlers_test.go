package mcpserver

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhaveripatric/webagents/internal/client"
	"github.com/jhaveripatric/webagents/internal/manifest"
)

type echoEvaluator struct{ scripts []string }

func (e *echoEvaluator) Evaluate(_ context.Context, script string) (any, error) {
	e.scripts = append(e.scripts, script)
	return map[string]any{"ok": true}, nil
}

func newHandlers(loaded bool) (*Handlers, *echoEvaluator) {
	agent := client.New(nil)
	if loaded {
		agent.LoadManifest(manifest.Build("Store", "",
			manifest.BuildTool("search", "Search books.", "", manifest.ParamSpec{Name: "query"}),
			manifest.BuildTool("cart", "Show the cart.", "return await global.cart();"),
		))
	}
	ev := &echoEvaluator{}
	return &Handlers{agent: agent, evaluator: ev}, ev
}

func request(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandleExecute(t *testing.T) {
	h, ev := newHandlers(true)

	res, err := h.HandleExecute(context.Background(), request(map[string]any{"code": "return 1"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, `{"ok":true}`, text(t, res))
	assert.Len(t, ev.scripts, 1)

	res, err = h.HandleExecute(context.Background(), request(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Len(t, ev.scripts, 1)
}

func TestHandleContext(t *testing.T) {
	h, _ := newHandlers(true)

	res, err := h.HandleContext(context.Background(), request(nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "declare const global: {")

	empty, _ := newHandlers(false)
	res, err = empty.HandleContext(context.Background(), request(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "no manifest loaded")
}

func TestHandleTools(t *testing.T) {
	h, _ := newHandlers(true)

	res, err := h.HandleTools(context.Background(), request(map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, "search\ncart", text(t, res))

	res, err = h.HandleTools(context.Background(), request(map[string]any{"name": "search"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "search(query: string): Promise<any>;")
	assert.NotContains(t, text(t, res), "cart(")

	res, err = h.HandleTools(context.Background(), request(map[string]any{"name": "refund"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "available: [search, cart]")
}

func TestNewServer(t *testing.T) {
	h, ev := newHandlers(true)
	assert.NotNil(t, NewServer("test", h.agent, ev))
}
