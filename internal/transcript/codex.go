package transcript

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Codex line types.
const (
	codexTypeTurnContext  = "turn_context"
	codexTypeResponseItem = "response_item"
	codexTypeSessionMeta  = "session_meta"
	codexTypeEventMsg     = "event_msg"
)

// Codex response_item payload types.
const (
	codexItemMessage      = "message"
	codexItemReasoning    = "reasoning"
	codexItemFunctionCall = "function_call"
)

// Markers of harness-injected user input.
var codexUserDropMarkers = []string{
	"<INSTRUCTIONS>",
	"<environment_context>",
	"<skill>",
}

// codexLine is a single record of a Codex rollout file.
type codexLine struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type codexPart struct {
	Type string
	Text string
}

// codexItem covers every response_item payload subtype we read.
type codexItem struct {
	Type      string
	Role      string
	Content   []codexPart
	Summary   []codexPart
	Name      string
	Arguments string
	CallID    string
}

// decodeCodexItem reads a response_item payload field by field, so a field
// of an unexpected type only loses that field. A payload that is not an
// object reports false.
func decodeCodexItem(payload json.RawMessage) (codexItem, bool) {
	p := gjson.ParseBytes(payload)
	if !p.IsObject() {
		return codexItem{}, false
	}
	return codexItem{
		Type:      stringField(p, "type"),
		Role:      stringField(p, "role"),
		Content:   codexParts(p.Get("content")),
		Summary:   codexParts(p.Get("summary")),
		Name:      stringField(p, "name"),
		Arguments: stringField(p, "arguments"),
		CallID:    stringField(p, "call_id"),
	}, true
}

func codexParts(arr gjson.Result) []codexPart {
	if !arr.IsArray() {
		return nil
	}
	var parts []codexPart
	arr.ForEach(func(_, part gjson.Result) bool {
		if part.IsObject() {
			parts = append(parts, codexPart{
				Type: stringField(part, "type"),
				Text: stringField(part, "text"),
			})
		}
		return true
	})
	return parts
}

// turnContextModel returns the model label of a turn_context payload, or ""
// when it names none.
func turnContextModel(payload json.RawMessage) string {
	p := gjson.ParseBytes(payload)
	model := stringField(p, "model")
	if model == "" {
		return ""
	}
	if effort := stringField(p, "effort"); effort != "" {
		model += " " + effort
	}
	return model
}

// stringField returns the string at path, or "" if it is missing or not a string.
func stringField(r gjson.Result, path string) string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func parseCodex(content string) ([]RenderedMessage, Stats) {
	e := newEmitter()
	// The active model carries forward until the next turn_context changes it.
	var model string

	for _, line := range nonBlankLines(content) {
		e.stats.Lines++

		var cl codexLine
		if err := json.Unmarshal([]byte(line), &cl); err != nil {
			e.stats.Malformed++
			continue
		}

		switch cl.Type {
		case codexTypeTurnContext:
			if m := turnContextModel(cl.Payload); m != "" {
				model = m
			}
			e.stats.Dropped++

		case codexTypeResponseItem:
			item, ok := decodeCodexItem(cl.Payload)
			if !ok {
				e.stats.Malformed++
				continue
			}
			e.record(func() { emitCodexItem(e, item, model) })

		default:
			e.stats.Dropped++
		}
	}

	return e.result()
}

func emitCodexItem(e *emitter, item codexItem, model string) {
	if item.Role == "user" {
		for _, part := range item.Content {
			if part.Type != "input_text" || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if containsAny(part.Text, codexUserDropMarkers) {
				continue
			}
			e.emit(RenderedMessage{Role: RoleUser, Content: strings.TrimSpace(part.Text)})
		}
	}

	switch item.Type {
	case codexItemMessage:
		if item.Role != "assistant" {
			return
		}
		for _, part := range item.Content {
			if part.Type != "output_text" || strings.TrimSpace(part.Text) == "" {
				continue
			}
			e.emit(RenderedMessage{
				Role:    RoleAssistant,
				Content: strings.TrimSpace(part.Text),
				Model:   model,
			})
		}

	case codexItemReasoning:
		for _, part := range item.Summary {
			if part.Type != "summary_text" || strings.TrimSpace(part.Text) == "" {
				continue
			}
			e.emit(RenderedMessage{Role: RoleThinking, Content: strings.TrimSpace(part.Text)})
		}

	case codexItemFunctionCall:
		name := item.Name
		if name == "" {
			name = codexItemFunctionCall
		}
		e.emit(RenderedMessage{
			Role:       RoleTool,
			Content:    name,
			Raw:        item.Arguments,
			RawLabel:   "Arguments",
			ToolCallID: item.CallID,
		})
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
