// Package mcpserver exposes the loader as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pbrown/agent-transcripts/internal/transcript"
)

// Source is the read API the tools call. Every call re-reads storage.
type Source interface {
	Phases() []string
	LoadTranscript(phase string, tool transcript.Tool) transcript.Transcript
	LoadAnnotations(phase string) []transcript.Annotation
	LoadPlans() transcript.Plans
}

// Tools holds the tool handlers.
type Tools struct {
	src Source
}

// NewTools creates the handlers for src.
func NewTools(src Source) *Tools {
	return &Tools{src: src}
}

// New creates an MCP server with every transcript tool registered.
func New(src Source, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "agent-transcripts", Version: version}, &mcp.ServerOptions{})
	t := NewTools(src)

	server.AddTool(&mcp.Tool{
		Name:        "list_phases",
		Description: "List the configured phase names in load order.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, t.ListPhases)

	server.AddTool(&mcp.Tool{
		Name:        "load_transcript",
		Description: "Load the normalized transcript for one phase and tool. Thinking and tool-call messages are hidden unless requested.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"phase":           {Type: "string", Description: "Phase name, e.g. research"},
				"tool":            {Type: "string", Description: "claude or codex"},
				"show_thinking":   {Type: "boolean", Description: "Include thinking messages"},
				"show_tool_calls": {Type: "boolean", Description: "Include tool call messages"},
			},
			Required: []string{"phase", "tool"},
		},
	}, t.LoadTranscript)

	server.AddTool(&mcp.Tool{
		Name:        "load_annotations",
		Description: "Load the annotations written for a phase.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"phase": {Type: "string", Description: "Phase name"},
			},
			Required: []string{"phase"},
		},
	}, t.LoadAnnotations)

	server.AddTool(&mcp.Tool{
		Name:        "load_plans",
		Description: "Load the markdown plan written by each tool.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, t.LoadPlans)

	return server
}

// Run serves the MCP protocol on stdio until ctx is cancelled or the
// client disconnects.
func Run(ctx context.Context, server *mcp.Server) error {
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// ListPhases handles the list_phases tool.
func (t *Tools) ListPhases(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[map[string]any]) (*mcp.CallToolResultFor[any], error) {
	return jsonResult(map[string]any{"phases": t.src.Phases()})
}

// LoadTranscript handles the load_transcript tool.
func (t *Tools) LoadTranscript(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[map[string]any]) (*mcp.CallToolResultFor[any], error) {
	args := arguments(params)

	phase, ok := args["phase"].(string)
	if !ok || phase == "" {
		return errorResult("phase is required"), nil
	}
	toolName, _ := args["tool"].(string)
	tool, err := transcript.ParseTool(toolName)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	tr := t.src.LoadTranscript(phase, tool)
	filter := transcript.Filter{
		ShowThinking:  boolArg(args, "show_thinking"),
		ShowToolCalls: boolArg(args, "show_tool_calls"),
	}
	tr.Messages = filter.Apply(tr.Messages)

	return jsonResult(tr)
}

// LoadAnnotations handles the load_annotations tool.
func (t *Tools) LoadAnnotations(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[map[string]any]) (*mcp.CallToolResultFor[any], error) {
	phase, ok := arguments(params)["phase"].(string)
	if !ok || phase == "" {
		return errorResult("phase is required"), nil
	}
	return jsonResult(t.src.LoadAnnotations(phase))
}

// LoadPlans handles the load_plans tool.
func (t *Tools) LoadPlans(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[map[string]any]) (*mcp.CallToolResultFor[any], error) {
	return jsonResult(t.src.LoadPlans())
}

func arguments(params *mcp.CallToolParamsFor[map[string]any]) map[string]any {
	if params == nil || params.Arguments == nil {
		return map[string]any{}
	}
	return params.Arguments
}

func boolArg(args map[string]any, name string) bool {
	switch v := args[name].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}

func jsonResult(v any) (*mcp.CallToolResultFor[any], error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

func errorResult(msg string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
