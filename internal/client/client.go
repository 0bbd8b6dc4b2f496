// Package client is the agent side of webagents.md: it finds a site's
// manifest and turns it into LLM context and an execute_js tool.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jhaveripatric/webagents/internal/discovery"
	"github.com/jhaveripatric/webagents/internal/manifest"
	"github.com/jhaveripatric/webagents/internal/sandbox"
)

// ErrNoManifest is returned by accessors called before a manifest is loaded.
var ErrNoManifest = errors.New("no manifest loaded: call Detect or Load first")

// UnknownToolError reports a lookup of a tool the manifest does not define.
type UnknownToolError struct {
	Name      string
	Available []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %q not found, available: [%s]", e.Name, strings.Join(e.Available, ", "))
}

// AgentClient holds the manifest of the site an agent is working with.
// It is safe for concurrent use.
type AgentClient struct {
	discoverer *discovery.Discoverer

	mu       sync.RWMutex
	manifest *manifest.Manifest
}

// New creates a client that discovers manifests through d. A nil d uses
// a default HTTP discoverer.
func New(d *discovery.Discoverer) *AgentClient {
	if d == nil {
		d = discovery.New(nil)
	}
	return &AgentClient{discoverer: d}
}

// Detect finds and loads the manifest advertised by pageURL. When the page
// has no meta tag the loaded manifest is cleared and discovery.ErrNotFound
// is returned.
func (c *AgentClient) Detect(ctx context.Context, pageURL string) (*manifest.Manifest, error) {
	m, err := c.discoverer.Discover(ctx, pageURL)
	if errors.Is(err, discovery.ErrNotFound) {
		c.set(nil)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	c.set(m)
	return m, nil
}

// DetectURL returns the manifest URL advertised by pageURL without
// fetching the manifest.
func (c *AgentClient) DetectURL(ctx context.Context, pageURL string) (string, error) {
	return c.discoverer.ManifestURL(ctx, pageURL)
}

// Load fetches and loads the manifest at a known URL.
func (c *AgentClient) Load(ctx context.Context, manifestURL string) (*manifest.Manifest, error) {
	m, err := c.discoverer.FetchManifest(ctx, manifestURL)
	if err != nil {
		return nil, err
	}
	c.set(m)
	return m, nil
}

// LoadManifest loads an already parsed manifest.
func (c *AgentClient) LoadManifest(m *manifest.Manifest) {
	c.set(m)
}

// Manifest returns the loaded manifest, or nil.
func (c *AgentClient) Manifest() *manifest.Manifest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.manifest
}

func (c *AgentClient) set(m *manifest.Manifest) {
	c.mu.Lock()
	c.manifest = m
	c.mu.Unlock()
}

func (c *AgentClient) loaded() (*manifest.Manifest, error) {
	m := c.Manifest()
	if m == nil {
		return nil, ErrNoManifest
	}
	return m, nil
}

// ListTools returns the loaded manifest's tool names in order.
func (c *AgentClient) ListTools() ([]string, error) {
	m, err := c.loaded()
	if err != nil {
		return nil, err
	}
	return m.ToolNames(), nil
}

// Tool returns the first tool called name.
func (c *AgentClient) Tool(name string) (*manifest.Tool, error) {
	m, err := c.loaded()
	if err != nil {
		return nil, err
	}
	t, ok := m.Tool(name)
	if !ok {
		return nil, &UnknownToolError{Name: name, Available: m.ToolNames()}
	}
	return t, nil
}

// TypeScript returns the declarations for the loaded manifest.
func (c *AgentClient) TypeScript() (string, error) {
	m, err := c.loaded()
	if err != nil {
		return "", err
	}
	return manifest.GenerateTypeScript(m), nil
}

// ContextForLLM returns the declarations followed by the manifest's raw
// markdown in a block comment.
func (c *AgentClient) ContextForLLM() (string, error) {
	m, err := c.loaded()
	if err != nil {
		return "", err
	}
	return contextFor(m), nil
}

func contextFor(m *manifest.Manifest) string {
	ts := manifest.GenerateTypeScript(m)
	if m.Content == "" {
		return ts
	}
	return ts + "\n/*\n" + m.Content + "\n*/\n"
}

// SystemPrompt returns a complete system prompt for an agent working on
// the loaded site. task is appended when set.
func (c *AgentClient) SystemPrompt(task string) (string, error) {
	m, err := c.loaded()
	if err != nil {
		return "", err
	}

	name := m.Name
	if name == "" {
		name = "this website"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are interacting with a website called '%s'. ", name)
	b.WriteString("You have access to the following TypeScript API that runs in the browser:\n\n")
	b.WriteString(contextFor(m))
	b.WriteString("\n\n")
	b.WriteString(promptInstructions)
	if task != "" {
		b.WriteString("\n\nTask: ")
		b.WriteString(task)
	}
	return b.String(), nil
}

const promptInstructions = "Use the execute_js tool to write JavaScript code that calls these functions. " +
	"Use `await` for async calls and `return` the final result. " +
	"Chain multiple calls in a single code block when needed. " +
	"Avoid asking the user for clarification. If you need information to complete a request, " +
	"use the available tools to look it up yourself whenever possible. " +
	"When you're done, briefly summarize what you did."

// Execute runs code against ev the way the execute_js tool does.
func (c *AgentClient) Execute(ctx context.Context, ev sandbox.Evaluator, code string) string {
	return sandbox.Execute(ctx, ev, code)
}
