package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/jhaveripatric/webagents/internal/rpc"
	"github.com/jhaveripatric/webagents/internal/sandbox"
	"github.com/jhaveripatric/webagents/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		port  int
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve [manifest]",
		Short: "Publish a manifest over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				a.cfg.Site.ManifestPath = args[0]
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Site.Port = port
			}
			if cmd.Flags().Changed("watch") {
				a.cfg.Site.Watch = watch
			}

			srv, err := server.New(a.cfg, a.log.Logger)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the manifest when the file changes")
	return cmd
}

func (a *app) workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run a browser worker that executes agent code sent over RabbitMQ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if a.cfg.RabbitMQ.URL == "" {
				return errors.New("rabbitmq.url is required")
			}

			w, err := rpc.NewWorker(rpc.Config{
				URL:      a.cfg.RabbitMQ.URL,
				Exchange: a.cfg.RabbitMQ.Exchange,
				Queue:    a.cfg.RabbitMQ.Queue,
			}, a.log.Logger, rpc.EventExecuteRequested)
			if err != nil {
				return err
			}
			defer w.Close()

			b, err := sandbox.Launch(ctx, a.cfg.Browser)
			if err != nil {
				return err
			}
			defer b.Close()

			pages := sandbox.NewWorker(func(ctx context.Context, pageURL string) (sandbox.PageEvaluator, error) {
				return b.Open(ctx, pageURL)
			}, a.log.Logger)
			defer pages.Close()

			err = w.Serve(ctx, pages.Handle)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
