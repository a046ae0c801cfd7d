package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pbrown/agent-transcripts/internal/transcript"
)

// styles are bound to one output so colors drop out when it is not a terminal.
type styles struct {
	title      lipgloss.Style
	dim        lipgloss.Style
	annotation lipgloss.Style
	roles      map[transcript.Role]lipgloss.Style
	tools      map[transcript.Tool]lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		dim: r.NewStyle().
			Foreground(lipgloss.Color("242")),
		annotation: r.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("226")),
		roles: map[transcript.Role]lipgloss.Style{
			transcript.RoleUser: r.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("255")).
				Background(lipgloss.Color("28")),
			transcript.RoleAssistant: r.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("255")).
				Background(lipgloss.Color("208")),
			transcript.RoleThinking: r.NewStyle().
				Foreground(lipgloss.Color("245")).
				Italic(true),
			transcript.RoleTool: r.NewStyle().
				Foreground(lipgloss.Color("242")).
				Italic(true),
		},
		tools: map[transcript.Tool]lipgloss.Style{
			transcript.ToolClaude: r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
			transcript.ToolCodex:  r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		},
	}
}

func (s styles) role(r transcript.Role) lipgloss.Style {
	if st, ok := s.roles[r]; ok {
		return st
	}
	return s.dim
}

func (s styles) tool(t transcript.Tool) lipgloss.Style {
	if st, ok := s.tools[t]; ok {
		return st
	}
	return s.dim
}

// renderView prints a transcript header followed by one block per row.
func renderView(w io.Writer, phase string, tool transcript.Tool, t transcript.Transcript, rows []transcript.ViewRow) {
	s := newStyles(w)

	header := s.title.Render(phase) + " " + s.tool(tool).Render(t.Tool)
	if t.Model != "" {
		header += " " + s.dim.Render(t.Model)
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w)

	if len(rows) == 0 {
		fmt.Fprintln(w, s.dim.Render("No messages."))
		return
	}

	for _, row := range rows {
		m := row.Message
		label := s.role(m.Role).Render(" " + strings.ToUpper(string(m.Role)) + " ")
		fmt.Fprintf(w, "%s %s\n", label, s.dim.Render(fmt.Sprintf("#%d", m.OriginalIndex)))
		fmt.Fprintln(w, m.Content)

		if m.Raw != "" {
			rawLabel := m.RawLabel
			if rawLabel == "" {
				rawLabel = "Raw"
			}
			fmt.Fprintln(w, s.dim.Render(rawLabel+":"))
			fmt.Fprintln(w, renderLines(s.dim, m.Raw, "  "))
		}

		if row.Annotation != nil {
			note := "Note: " + row.Annotation.Content
			if row.Annotation.Highlight != "" {
				note += " [" + row.Annotation.Highlight + "]"
			}
			fmt.Fprintln(w, s.annotation.Render(note))
		}
		fmt.Fprintln(w)
	}
}

// renderLines styles each line of text separately, so no line is padded to
// the width of the longest.
func renderLines(style lipgloss.Style, text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = style.Render(prefix + line)
	}
	return strings.Join(lines, "\n")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
