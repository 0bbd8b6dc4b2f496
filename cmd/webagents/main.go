package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhaveripatric/webagents/internal/config"
	"github.com/jhaveripatric/webagents/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by every command.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "webagents",
		Short:         "Publish and consume webagents.md tool manifests",
		Long:          "webagents parses, generates and serves webagents.md manifests, and runs agents against sites that publish them.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config file (defaults when empty)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.parseCmd(),
		a.fmtCmd(),
		a.typesCmd(),
		a.validateCmd(),
		a.showCmd(),
		a.metaCmd(),
		a.discoverCmd(),
		a.serveCmd(),
		a.agentCmd(),
		a.mcpCmd(),
		a.workerCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	l, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, l
	return nil
}
