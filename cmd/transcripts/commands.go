package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pbrown/agent-transcripts/internal/lock"
	"github.com/pbrown/agent-transcripts/internal/mcpserver"
	"github.com/pbrown/agent-transcripts/internal/server"
	"github.com/pbrown/agent-transcripts/internal/store"
	"github.com/pbrown/agent-transcripts/internal/transcript"
	"github.com/pbrown/agent-transcripts/internal/watch"
)

// showCommand renders one phase/tool transcript with its annotations.
func (a *App) showCommand() *cobra.Command {
	var filter transcript.Filter
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <phase> <tool>",
		Short: "Show one transcript with its annotations",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase := args[0]
			tool, err := transcript.ParseTool(args[1])
			if err != nil {
				return err
			}
			l, err := a.loader()
			if err != nil {
				return err
			}

			bundle := l.LoadPhase(phase)
			t := bundle.Transcript(tool)
			rows := transcript.BuildView(t, tool, bundle.Annotations, filter)

			if asJSON {
				return writeJSON(a.stdout, rows)
			}
			renderView(a.stdout, phase, tool, t, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&filter.ShowThinking, "thinking", false, "include thinking messages")
	cmd.Flags().BoolVar(&filter.ShowToolCalls, "tools", false, "include tool call messages")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print rows as JSON")
	return cmd
}

// listCommand batch loads every configured phase.
func (a *App) listCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load every phase and tool and summarize the transcripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loader()
			if err != nil {
				return err
			}
			all := l.LoadAll()

			if asJSON {
				return writeJSON(a.stdout, all)
			}

			s := newStyles(a.stdout)
			for _, phase := range l.Phases() {
				for _, tool := range transcript.Tools() {
					key := transcript.Key(phase, tool)
					t := all[key]
					model := t.Model
					if model == "" {
						model = "-"
					}
					fmt.Fprintf(a.stdout, "%-24s %s %s %d messages\n",
						key, s.tool(tool).Render(t.Tool), s.dim.Render(model), len(t.Messages))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full mapping as JSON")
	return cmd
}

// annotationsCommand prints the annotations for a phase.
func (a *App) annotationsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "annotations <phase>",
		Short: "Print the annotations for a phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loader()
			if err != nil {
				return err
			}
			annotations := l.LoadAnnotations(args[0])

			if asJSON {
				return writeJSON(a.stdout, annotations)
			}
			if len(annotations) == 0 {
				fmt.Fprintln(a.stdout, "No annotations found.")
				return nil
			}
			for _, ann := range annotations {
				fmt.Fprintf(a.stdout, "[%s #%d] %s\n", ann.Tool, ann.MessageIndex, ann.Content)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// plansCommand prints both plan files.
func (a *App) plansCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Print the plan written by each tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loader()
			if err != nil {
				return err
			}
			plans := l.LoadPlans()

			if asJSON {
				return writeJSON(a.stdout, plans)
			}

			s := newStyles(a.stdout)
			for _, tool := range transcript.Tools() {
				content := plans.Claude
				if tool == transcript.ToolCodex {
					content = plans.Codex
				}
				fmt.Fprintln(a.stdout, s.tool(tool).Render(tool.DisplayName()))
				if content == "" {
					fmt.Fprintln(a.stdout, s.dim.Render("(no plan)"))
				} else {
					fmt.Fprintln(a.stdout, content)
				}
				fmt.Fprintln(a.stdout)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// parseCommand parses an arbitrary JSONL file outside the data directory.
func (a *App) parseCommand() *cobra.Command {
	var toolName string
	var asJSON, showStats bool
	filter := transcript.Filter{ShowThinking: true, ShowToolCalls: true}

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a session log file, detecting its format unless --tool is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			content := string(data)

			var tool transcript.Tool
			if toolName != "" {
				if tool, err = transcript.ParseTool(toolName); err != nil {
					return err
				}
			} else {
				var ok bool
				if tool, ok = transcript.DetectTool(content); !ok {
					return fmt.Errorf("cannot detect transcript format of %s (use --tool)", path)
				}
			}

			p, err := a.parser()
			if err != nil {
				return err
			}
			msgs, stats := p.Parse(tool, content)
			t := transcript.New(tool, msgs)

			if showStats {
				fmt.Fprintf(a.stderr, "lines=%d malformed=%d dropped=%d emitted=%d\n",
					stats.Lines, stats.Malformed, stats.Dropped, stats.Emitted)
			}

			if asJSON {
				return writeJSON(a.stdout, t)
			}
			renderView(a.stdout, path, tool, t, transcript.BuildView(t, tool, nil, filter))
			return nil
		},
	}

	cmd.Flags().StringVar(&toolName, "tool", "", "log format: claude or codex")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the transcript as JSON")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print parse statistics to stderr")
	cmd.Flags().BoolVar(&filter.ShowThinking, "thinking", true, "include thinking messages")
	cmd.Flags().BoolVar(&filter.ShowToolCalls, "tools", true, "include tool call messages")
	return cmd
}

// exportCommand writes everything the loader sees to SQLite.
func (a *App) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <db>",
		Short: "Export transcripts, annotations and plans to a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loader()
			if err != nil {
				return err
			}

			fl, err := lock.TryAcquire(args[0])
			if err != nil {
				return err
			}
			defer fl.Release()

			s, err := store.Open(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			sum, err := s.Export(l)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Exported %d transcripts (%d messages) and %d annotations to %s\n",
				sum.Transcripts, sum.Messages, sum.Annotations, args[0])
			return nil
		},
	}
}

// serveCommand runs the HTTP read API.
func (a *App) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve transcripts over a read-only JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loader()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			ctx, cancel := a.context()
			defer cancel()

			fmt.Fprintf(a.stderr, "Serving %s on http://%s\n", a.cfg.DataDir, addr)
			return server.Run(ctx, addr, server.New(l, a.logger()))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// mcpCommand runs the MCP server on stdio.
func (a *App) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve transcripts as MCP tools on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loader()
			if err != nil {
				return err
			}

			ctx, cancel := a.context()
			defer cancel()

			return mcpserver.Run(ctx, mcpserver.New(l, version))
		},
	}
}

// watchCommand reloads and summarizes whatever changes under the data dir.
func (a *App) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the data directory and summarize each change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loader()
			if err != nil {
				return err
			}
			w, err := watch.New(a.cfg.DataDir, watch.DefaultDebounce, a.logger())
			if err != nil {
				return err
			}

			ctx, cancel := a.context()
			defer cancel()

			fmt.Fprintf(a.stderr, "Watching %s\n", a.cfg.DataDir)
			return w.Run(ctx, func(ev watch.Event) {
				fmt.Fprintln(a.stdout, summarizeChange(l, ev))
			})
		},
	}
}

type reloader interface {
	LoadTranscript(phase string, tool transcript.Tool) transcript.Transcript
	LoadAnnotations(phase string) []transcript.Annotation
	LoadPlans() transcript.Plans
}

// summarizeChange reloads the input behind ev and describes it in one line.
func summarizeChange(l reloader, ev watch.Event) string {
	switch ev.Kind {
	case watch.KindTranscript:
		t := l.LoadTranscript(ev.Phase, ev.Tool)
		model := t.Model
		if model == "" {
			model = "-"
		}
		return fmt.Sprintf("%s: %d messages (%s)", transcript.Key(ev.Phase, ev.Tool), len(t.Messages), model)
	case watch.KindAnnotations:
		return fmt.Sprintf("%s annotations: %d", ev.Phase, len(l.LoadAnnotations(ev.Phase)))
	case watch.KindPlan:
		plans := l.LoadPlans()
		content := plans.Claude
		if ev.Tool == transcript.ToolCodex {
			content = plans.Codex
		}
		return fmt.Sprintf("%s plan: %d bytes", ev.Tool, len(content))
	default:
		return ev.Path
	}
}
