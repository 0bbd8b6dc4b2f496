package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/jhaveripatric/webagents/internal/client"
	"github.com/jhaveripatric/webagents/internal/discovery"
	"github.com/jhaveripatric/webagents/internal/llm"
	"github.com/jhaveripatric/webagents/internal/mcpserver"
	"github.com/jhaveripatric/webagents/internal/rpc"
	"github.com/jhaveripatric/webagents/internal/sandbox"
)

func (a *app) newAgentClient() *client.AgentClient {
	opts := []discovery.Option{discovery.WithTimeout(a.cfg.Agent.Timeout)}
	if a.cfg.Agent.BearerToken != "" {
		opts = append(opts, discovery.WithBearerToken(a.cfg.Agent.BearerToken))
	}
	return client.New(discovery.New(discovery.NewHTTPFetcher(opts...)))
}

// openEvaluator returns an evaluator for pageURL: a local browser tab, or a
// remote worker when browser.remote is set. The returned func releases it.
func (a *app) openEvaluator(ctx context.Context, pageURL string) (sandbox.Evaluator, func(), error) {
	if a.cfg.Browser.Remote {
		rc, err := rpc.NewClient(rpc.Config{
			URL:      a.cfg.RabbitMQ.URL,
			Exchange: a.cfg.RabbitMQ.Exchange,
			Queue:    a.cfg.RabbitMQ.Queue,
		}, a.log.Logger)
		if err != nil {
			return nil, nil, err
		}
		return sandbox.NewRemoteEvaluator(rc, pageURL, a.cfg.Browser.Timeout), func() { rc.Close() }, nil
	}

	b, err := sandbox.Launch(ctx, a.cfg.Browser)
	if err != nil {
		return nil, nil, err
	}
	page, err := b.Open(ctx, pageURL)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return page, func() { b.Close() }, nil
}

func (a *app) discoverCmd() *cobra.Command {
	var asJSON, types bool

	cmd := &cobra.Command{
		Use:   "discover <page-url>",
		Short: "Find and fetch the manifest a page advertises",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := a.newAgentClient()

			manifestURL, err := c.DetectURL(ctx, args[0])
			if err != nil {
				return err
			}
			m, err := c.Load(ctx, manifestURL)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"url": manifestURL, "manifest": m})
			case types:
				ts, err := c.TypeScript()
				if err != nil {
					return err
				}
				fmt.Fprint(w, ts)
			default:
				fmt.Fprintf(w, "%s %s\n", okStyle.Render(m.Name), dimStyle.Render(manifestURL))
				for _, t := range m.Tools {
					fmt.Fprintf(w, "  %s  %s\n", t.Name, dimStyle.Render(t.Description))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the manifest as JSON")
	cmd.Flags().BoolVar(&types, "types", false, "print TypeScript declarations")
	return cmd
}

func (a *app) agentCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "agent <page-url> <task>",
		Short: "Run an LLM agent against a site's webagents.md API",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pageURL, task := args[0], args[1]

			c := a.newAgentClient()
			m, err := c.Detect(ctx, pageURL)
			if err != nil {
				return fmt.Errorf("detect manifest: %w", err)
			}
			a.log.Info().Str("site", m.Name).Int("tools", len(m.Tools)).Msg("Manifest detected")

			provider, err := llm.NewProvider(a.cfg.Agent)
			if err != nil {
				return err
			}

			ev, release, err := a.openEvaluator(ctx, pageURL)
			if err != nil {
				return err
			}
			defer release()

			runner, err := llm.NewRunner(provider, c, ev, llm.RunnerConfig{
				Model:       a.cfg.Agent.Model,
				MaxTurns:    a.cfg.Agent.MaxTurns,
				MaxTokens:   a.cfg.Agent.MaxTokens,
				Temperature: a.cfg.Agent.Temperature,
				Timeout:     a.cfg.Agent.Timeout,
			}, a.log.Logger)
			if err != nil {
				return err
			}

			res, err := runner.Run(ctx, task)
			if res != nil && verbose {
				for i, e := range res.Executions {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s\n%s\n%s %s\n\n",
						dimStyle.Render(fmt.Sprintf("--- execution %d ---", i+1)), e.Code, dimStyle.Render("=>"), e.Output)
				}
			}
			if err != nil {
				return err
			}

			a.log.Info().
				Int("turns", res.Turns).
				Int("input_tokens", res.Usage.InputTokens).
				Int("output_tokens", res.Usage.OutputTokens).
				Msg("Agent finished")
			fmt.Fprintln(cmd.OutOrStdout(), res.Response)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print executed code and results")
	return cmd
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp <page-url>",
		Short: "Serve a site's webagents.md API to MCP clients over stdio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pageURL := args[0]

			c := a.newAgentClient()
			if _, err := c.Detect(ctx, pageURL); err != nil {
				return fmt.Errorf("detect manifest: %w", err)
			}

			ev, release, err := a.openEvaluator(ctx, pageURL)
			if err != nil {
				return err
			}
			defer release()

			return server.ServeStdio(mcpserver.NewServer(version, c, ev))
		},
	}
}
