package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pbrown/agent-transcripts/internal/config"
	"github.com/pbrown/agent-transcripts/internal/debuglog"
	"github.com/pbrown/agent-transcripts/internal/loader"
	"github.com/pbrown/agent-transcripts/internal/transcript"
)

// App encapsulates CLI state and dependencies for testability
type App struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string         // Path to config.json
	dataDir    string         // --data override
	cfg        *config.Config // Loaded lazily unless preset
	ctx        context.Context
}

// NewApp creates a new App with default stdout/stderr
func NewApp() *App {
	return &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// initConfig loads config if not already set
func (a *App) initConfig() error {
	if a.cfg == nil {
		path := a.configPath
		if path == "" {
			path = config.DefaultPath()
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		a.cfg = cfg
	}
	if a.dataDir != "" {
		a.cfg.DataDir = a.dataDir
	}
	return nil
}

func (a *App) logger() *debuglog.Logger {
	return debuglog.New(a.cfg.StateDir, a.cfg.DebugLevel)
}

func (a *App) parser() (*transcript.Parser, error) {
	c, err := a.cfg.Classifier.Build()
	if err != nil {
		return nil, err
	}
	return transcript.NewParser(c), nil
}

func (a *App) loader() (*loader.Loader, error) {
	p, err := a.parser()
	if err != nil {
		return nil, err
	}
	return loader.New(a.cfg.DataDir, a.cfg.Phases, p, a.logger()), nil
}

// context returns the preset context or one cancelled on SIGINT/SIGTERM.
func (a *App) context() (context.Context, context.CancelFunc) {
	if a.ctx != nil {
		return context.WithCancel(a.ctx)
	}
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Run parses arguments and dispatches to commands
func (a *App) Run(args []string) int {
	root := a.rootCommand()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "transcripts",
		Short:         "Normalize and inspect Claude Code and Codex session transcripts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/agent-transcripts/config.json)")
	root.PersistentFlags().StringVar(&a.dataDir, "data", "", "data directory (overrides config)")

	root.AddCommand(
		a.showCommand(),
		a.listCommand(),
		a.annotationsCommand(),
		a.plansCommand(),
		a.parseCommand(),
		a.exportCommand(),
		a.serveCommand(),
		a.mcpCommand(),
		a.watchCommand(),
	)
	return root
}
