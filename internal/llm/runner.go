package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jhaveripatric/webagents/internal/client"
	"github.com/jhaveripatric/webagents/internal/sandbox"
)

// ErrMaxTurns is returned when the model is still calling tools after the
// turn limit.
var ErrMaxTurns = errors.New("maximum tool execution turns exceeded")

// RunnerConfig controls a Runner.
type RunnerConfig struct {
	Model       string
	MaxTurns    int
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration // per model call
}

// Execution records one execute_js call.
type Execution struct {
	Code   string `json:"code"`
	Output string `json:"output"`
}

// Result is the outcome of a Run.
type Result struct {
	Response   string      `json:"response"`
	Turns      int         `json:"turns"`
	Executions []Execution `json:"executions,omitempty"`
	Usage      Usage       `json:"usage"`
}

// Runner runs the agent loop: the model writes code, the sandbox runs it,
// the output goes back to the model.
type Runner struct {
	provider  Provider
	agent     *client.AgentClient
	evaluator sandbox.Evaluator
	cfg       RunnerConfig
	tool      client.FunctionTool
	schema    *gojsonschema.Schema
	logger    zerolog.Logger
}

// NewRunner creates a runner for the manifest loaded in agent.
func NewRunner(provider Provider, agent *client.AgentClient, ev sandbox.Evaluator, cfg RunnerConfig, logger zerolog.Logger) (*Runner, error) {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 10
	}

	tool := client.ExecuteTool()
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.Function.Parameters))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", tool.Function.Name, err)
	}

	return &Runner{
		provider:  provider,
		agent:     agent,
		evaluator: ev,
		cfg:       cfg,
		tool:      tool,
		schema:    schema,
		logger:    logger.With().Str("component", "agent").Str("provider", provider.Name()).Logger(),
	}, nil
}

// Run works on task until the model answers without calling a tool.
func (r *Runner) Run(ctx context.Context, task string) (*Result, error) {
	systemPrompt, err := r.agent.SystemPrompt("")
	if err != nil {
		return nil, err
	}

	messages := []Message{{Role: "user", Content: task}}
	result := &Result{}

	for turn := 0; turn < r.cfg.MaxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Turns = turn + 1

		resp, err := r.complete(ctx, Request{
			Model:        r.cfg.Model,
			SystemPrompt: systemPrompt,
			Messages:     messages,
			Tools:        []client.FunctionTool{r.tool},
			Temperature:  r.cfg.Temperature,
			MaxTokens:    r.cfg.MaxTokens,
		})
		if err != nil {
			return result, fmt.Errorf("turn %d: %w", turn+1, err)
		}
		result.Usage.add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			result.Response = resp.Content
			return result, nil
		}

		messages = append(messages, Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			output := r.dispatch(ctx, call, result)
			messages = append(messages, Message{Role: "tool", Content: output, ToolCallID: call.ID})
		}
	}

	return result, ErrMaxTurns
}

func (r *Runner) complete(ctx context.Context, req Request) (*Response, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	return r.provider.Complete(ctx, req)
}

func (r *Runner) dispatch(ctx context.Context, call ToolCall, result *Result) string {
	if call.Name != client.ExecuteToolName {
		r.logger.Warn().Str("tool", call.Name).Msg("Model called unknown tool")
		return sandbox.Render(map[string]string{
			"error": fmt.Sprintf("unknown tool '%s', only %s is available", call.Name, client.ExecuteToolName),
		})
	}
	if err := r.validate(call.Arguments); err != nil {
		r.logger.Warn().Err(err).Msg("Invalid tool arguments")
		return sandbox.Render(map[string]string{"error": err.Error()})
	}

	code := call.Arguments["code"].(string)
	start := time.Now()
	output := sandbox.Execute(ctx, r.evaluator, code)
	r.logger.Debug().
		Str("call_id", call.ID).
		Dur("duration", time.Since(start)).
		Int("output_bytes", len(output)).
		Msg("Executed code")

	result.Executions = append(result.Executions, Execution{Code: code, Output: output})
	return output
}

func (r *Runner) validate(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	res, err := r.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return err
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
	}
	return nil
}
