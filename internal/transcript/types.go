package transcript

import "fmt"

// Role tags a rendered message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleThinking  Role = "thinking"
	RoleSystem    Role = "system"
)

// Tool identifies the agent that produced a session log.
type Tool string

const (
	ToolClaude Tool = "claude"
	ToolCodex  Tool = "codex"
)

// Tools lists every supported tool in load order.
func Tools() []Tool {
	return []Tool{ToolClaude, ToolCodex}
}

// ParseTool converts a command-line or URL value into a Tool.
func ParseTool(s string) (Tool, error) {
	switch Tool(s) {
	case ToolClaude, ToolCodex:
		return Tool(s), nil
	default:
		return "", fmt.Errorf("unknown tool %q (expected claude or codex)", s)
	}
}

// DisplayName is the label shown for the tool's transcript.
func (t Tool) DisplayName() string {
	switch t {
	case ToolClaude:
		return "Claude Code"
	case ToolCodex:
		return "Codex"
	default:
		return string(t)
	}
}

// RenderedMessage is one unit of conversation in chronological order.
//
// OriginalIndex is assigned once at emission time and is the join key for
// annotations. Later filtering must carry it through untouched.
type RenderedMessage struct {
	Role          Role   `json:"role"`
	Content       string `json:"content"`
	Raw           string `json:"raw,omitempty"`
	RawLabel      string `json:"raw_label,omitempty"`
	ToolCallID    string `json:"tool_use_id,omitempty"`
	Model         string `json:"model,omitempty"`
	OriginalIndex int    `json:"originalIndex"`
}

// Transcript is one tool's parsed session for one phase.
type Transcript struct {
	Tool     string            `json:"tool"` // display name, e.g. "Claude Code"
	Model    string            `json:"model,omitempty"`
	Messages []RenderedMessage `json:"messages"`
}

// Empty returns the transcript used when no log exists for a tool.
func Empty(tool Tool) Transcript {
	return Transcript{Tool: tool.DisplayName(), Messages: []RenderedMessage{}}
}

// New builds a transcript for tool, taking the model from the first message
// that carries one.
func New(tool Tool, messages []RenderedMessage) Transcript {
	if messages == nil {
		messages = []RenderedMessage{}
	}
	t := Transcript{Tool: tool.DisplayName(), Messages: messages}
	for _, m := range messages {
		if m.Model != "" {
			t.Model = m.Model
			break
		}
	}
	return t
}

// Annotation is an externally authored note attached to one message.
type Annotation struct {
	MessageIndex int    `json:"messageIndex"`
	Tool         Tool   `json:"tool"`
	Phase        string `json:"phase"`
	Content      string `json:"content"`
	Highlight    string `json:"highlight,omitempty"`
}

// Plans holds the markdown plan written by each tool.
type Plans struct {
	Claude string `json:"claude"`
	Codex  string `json:"codex"`
}

// Key is the batch-load key for a phase and tool, e.g. "research-claude".
func Key(phase string, tool Tool) string {
	return phase + "-" + string(tool)
}
