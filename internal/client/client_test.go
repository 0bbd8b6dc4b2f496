package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhaveripatric/webagents/internal/discovery"
	"github.com/jhaveripatric/webagents/internal/manifest"
)

const storeManifest = `# Store

Use search before ordering.

## search
Search books.

### Params
- ` + "`query`" + ` (string, required): The query.

## order
Order a book.

### Sample Code
` + "```js\nawait global.order('1');\n```\n"

type fakeFetcher map[string]string

func (f fakeFetcher) Get(_ context.Context, url string) (*discovery.Response, error) {
	body, ok := f[url]
	if !ok {
		return &discovery.Response{StatusCode: http.StatusNotFound}, nil
	}
	return &discovery.Response{StatusCode: http.StatusOK, Body: body}, nil
}

func newTestClient() *AgentClient {
	return New(discovery.New(fakeFetcher{
		"https://shop.example/":             `<meta name="webagents-md" content="/webagents.md">`,
		"https://shop.example/webagents.md": storeManifest,
		"https://plain.example/":            `<p>no tag</p>`,
	}))
}

func TestAccessorsBeforeLoad(t *testing.T) {
	c := newTestClient()

	assert.Nil(t, c.Manifest())

	_, err := c.ListTools()
	assert.ErrorIs(t, err, ErrNoManifest)
	_, err = c.Tool("search")
	assert.ErrorIs(t, err, ErrNoManifest)
	_, err = c.TypeScript()
	assert.ErrorIs(t, err, ErrNoManifest)
	_, err = c.ContextForLLM()
	assert.ErrorIs(t, err, ErrNoManifest)
	_, err = c.SystemPrompt("")
	assert.ErrorIs(t, err, ErrNoManifest)
}

func TestDetect(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()

	m, err := c.Detect(ctx, "https://shop.example/")
	require.NoError(t, err)
	assert.Equal(t, "Store", m.Name)
	assert.Same(t, m, c.Manifest())

	tools, err := c.ListTools()
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "order"}, tools)

	u, err := c.DetectURL(ctx, "https://shop.example/")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/webagents.md", u)

	m, err = c.Detect(ctx, "https://plain.example/")
	assert.Nil(t, m)
	assert.ErrorIs(t, err, discovery.ErrNotFound)
	assert.Nil(t, c.Manifest(), "not found clears the loaded manifest")
}

func TestDetectFetchErrorKeepsManifest(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()

	_, err := c.Load(ctx, "https://shop.example/webagents.md")
	require.NoError(t, err)

	_, err = c.Detect(ctx, "https://down.example/")
	var fetchErr *discovery.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.NotNil(t, c.Manifest())
}

func TestTool(t *testing.T) {
	c := newTestClient()
	c.LoadManifest(manifest.Parse(storeManifest))

	tool, err := c.Tool("order")
	require.NoError(t, err)
	assert.Equal(t, "Order a book.", tool.Description)

	_, err = c.Tool("refund")
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "refund", unknown.Name)
	assert.Equal(t, []string{"search", "order"}, unknown.Available)
	assert.Equal(t, `tool "refund" not found, available: [search, order]`, err.Error())
}

func TestContextForLLM(t *testing.T) {
	c := newTestClient()
	m := manifest.Parse(storeManifest)
	c.LoadManifest(m)

	ts, err := c.TypeScript()
	require.NoError(t, err)
	assert.Equal(t, manifest.GenerateTypeScript(m), ts)

	ctxText, err := c.ContextForLLM()
	require.NoError(t, err)
	assert.Equal(t, ts+"\n/*\n"+m.Content+"\n*/\n", ctxText)

	bare := manifest.Build("Bare", "", manifest.BuildTool("ping", "Ping.", ""))
	c.LoadManifest(bare)
	ctxText, err = c.ContextForLLM()
	require.NoError(t, err)
	assert.Equal(t, manifest.GenerateTypeScript(bare), ctxText, "no content means declarations only")
}

func TestSystemPrompt(t *testing.T) {
	c := newTestClient()
	c.LoadManifest(manifest.Parse(storeManifest))

	prompt, err := c.SystemPrompt("Find Dune")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt,
		"You are interacting with a website called 'Store'. You have access to the following TypeScript API that runs in the browser:\n\ndeclare const global: {"))
	assert.Contains(t, prompt, "Use the execute_js tool")
	assert.True(t, strings.HasSuffix(prompt, "briefly summarize what you did.\n\nTask: Find Dune"))

	noTask, err := c.SystemPrompt("")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(noTask, "briefly summarize what you did."))

	c.LoadManifest(&manifest.Manifest{Version: manifest.DefaultVersion})
	anon, err := c.SystemPrompt("")
	require.NoError(t, err)
	assert.Contains(t, anon, "a website called 'this website'")
}

func TestExecuteTool(t *testing.T) {
	data, err := json.Marshal(newTestClient().ExecuteTool())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "function", got["type"])

	fn := got["function"].(map[string]any)
	assert.Equal(t, "execute_js", fn["name"])
	assert.Contains(t, fn["description"], "global.*")

	params := fn["parameters"].(map[string]any)
	assert.Equal(t, []any{"code"}, params["required"])
	code := params["properties"].(map[string]any)["code"].(map[string]any)
	assert.Equal(t, "string", code["type"])

	// Callers may mutate their copy.
	a := ExecuteTool()
	a.Function.Parameters["type"] = "mutated"
	assert.Equal(t, "object", ExecuteTool().Function.Parameters["type"])
}

type stubEvaluator struct{ err error }

func (s stubEvaluator) Evaluate(context.Context, string) (any, error) {
	return []any{"a", 1.0}, s.err
}

func TestExecute(t *testing.T) {
	c := newTestClient()

	assert.Equal(t, `["a",1]`, c.Execute(context.Background(), stubEvaluator{}, "return x"))
	assert.Equal(t, `{"error":"boom"}`, c.Execute(context.Background(), stubEvaluator{err: errors.New("boom")}, "x"))
}

func TestConcurrentLoad(t *testing.T) {
	c := newTestClient()
	m := manifest.Parse(storeManifest)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.LoadManifest(m)
		}()
		go func() {
			defer wg.Done()
			c.ListTools()
		}()
	}
	wg.Wait()
	assert.Same(t, m, c.Manifest())
}
