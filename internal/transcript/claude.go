package transcript

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Claude Code line types.
const (
	claudeTypeSummary      = "summary"
	claudeTypeFileSnapshot = "file-history-snapshot"
	claudeTypeUser         = "user"
	claudeTypeAssistant    = "assistant"
)

// Claude Code content part types.
const (
	claudePartText     = "text"
	claudePartThinking = "thinking"
	claudePartToolUse  = "tool_use"
)

// claudeLine is the top-level structure of a Claude Code JSONL line.
type claudeLine struct {
	Type    string          `json:"type"`
	IsMeta  json.RawMessage `json:"isMeta,omitempty"`
	Message *claudeMessage  `json:"message,omitempty"`
}

// claudeMessage is the message field within a line. Content is either a
// plain string or an array of parts.
type claudeMessage struct {
	Role    string          `json:"role"`
	Model   string          `json:"model,omitempty"`
	Content json.RawMessage `json:"content"`
}

type claudePart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Thinking string          `json:"thinking,omitempty"`
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
}

// Markers that make a user record internal rather than typed by a person.
var claudeUserDropMarkers = []string{
	"tool_result",
	"Use the `",
	"<skill>",
}

var (
	commandArgsPattern    = regexp.MustCompile(`(?s)<command-args>(.*?)</command-args>`)
	commandWrapperPattern = regexp.MustCompile(`(?s)<command-(?:message|name)>.*?</command-(?:message|name)>`)
	systemReminderPattern = regexp.MustCompile(`(?s)<system-reminder>.*?</system-reminder>`)
	strayCommandPattern   = regexp.MustCompile(`</?command-[^>]+>`)
	blankRunPattern       = regexp.MustCompile(`\n{3,}`)
)

func parseClaude(content string, classifier *Classifier) ([]RenderedMessage, Stats) {
	e := newEmitter()

	for _, line := range nonBlankLines(content) {
		e.stats.Lines++

		var cl claudeLine
		if err := json.Unmarshal([]byte(line), &cl); err != nil {
			e.stats.Malformed++
			continue
		}

		e.record(func() {
			switch {
			case cl.Type == claudeTypeSummary || cl.Type == claudeTypeFileSnapshot:
				// bookkeeping records, never displayed
			case cl.Type == claudeTypeUser && cl.Message != nil && cl.Message.Role == "user":
				emitClaudeUser(e, cl)
			case cl.Type == claudeTypeAssistant && cl.Message != nil && cl.Message.Role == "assistant":
				emitClaudeAssistant(e, cl.Message, classifier)
			}
		})
	}

	return e.result()
}

func emitClaudeUser(e *emitter, cl claudeLine) {
	text := cleanClaudeUserText(claudeUserText(cl.Message.Content))

	if truthy(cl.IsMeta) || text == "" {
		return
	}
	for _, marker := range claudeUserDropMarkers {
		if strings.Contains(text, marker) {
			return
		}
	}

	e.emit(RenderedMessage{Role: RoleUser, Content: text})
}

// claudeUserText flattens user content. Part arrays contribute each text part
// followed by a newline.
func claudeUserText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '[':
		var b strings.Builder
		for _, part := range claudeParts(raw) {
			if part.Type == claudePartText {
				b.WriteString(part.Text)
				b.WriteString("\n")
			}
		}
		return b.String()
	default:
		return ""
	}
}

// cleanClaudeUserText unwraps slash-command markup and strips injected
// system reminders.
func cleanClaudeUserText(text string) string {
	cleaned := commandArgsPattern.ReplaceAllStringFunc(text, func(block string) string {
		m := commandArgsPattern.FindStringSubmatch(block)
		return strings.TrimSpace(m[1])
	})
	cleaned = commandWrapperPattern.ReplaceAllString(cleaned, "")
	cleaned = systemReminderPattern.ReplaceAllString(cleaned, "")
	cleaned = strayCommandPattern.ReplaceAllString(cleaned, "")
	cleaned = blankRunPattern.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// claudeParts decodes a content array one part at a time. A part that does
// not decode is skipped without affecting its neighbours.
func claudeParts(raw json.RawMessage) []claudePart {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	parts := make([]claudePart, 0, len(elems))
	for _, elem := range elems {
		var part claudePart
		if err := json.Unmarshal(elem, &part); err != nil {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

func emitClaudeAssistant(e *emitter, msg *claudeMessage, classifier *Classifier) {
	for _, part := range claudeParts(msg.Content) {
		switch part.Type {
		case claudePartText:
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			role := RoleAssistant
			if classifier.IsMeta(text) {
				role = RoleThinking
			}
			e.emit(RenderedMessage{Role: role, Content: text, Model: msg.Model})

		case claudePartThinking:
			thought := strings.TrimSpace(part.Thinking)
			if thought == "" {
				continue
			}
			e.emit(RenderedMessage{Role: RoleThinking, Content: thought, Model: msg.Model})

		case claudePartToolUse:
			name := part.Name
			if name == "" {
				name = claudePartToolUse
			}
			e.emit(RenderedMessage{
				Role:       RoleTool,
				Content:    name,
				Raw:        prettyJSON(part.Input),
				RawLabel:   "Input",
				ToolCallID: part.ID,
			})
		}
	}
}

// prettyJSON indents raw with two spaces, keeping the source key order.
func prettyJSON(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// truthy reports whether a raw JSON value would count as true in a loosely
// typed reader: anything except absent, null, false, "" and numeric zero.
func truthy(raw json.RawMessage) bool {
	v := string(bytes.TrimSpace(raw))
	switch v {
	case "", "null", "false", `""`:
		return false
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n != 0
	}
	return true
}
