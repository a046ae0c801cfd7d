package transcript

import (
	"github.com/tidwall/gjson"
)

var lineTypeTools = map[string]Tool{
	claudeTypeSummary:      ToolClaude,
	claudeTypeFileSnapshot: ToolClaude,
	claudeTypeUser:         ToolClaude,
	claudeTypeAssistant:    ToolClaude,
	codexTypeTurnContext:   ToolCodex,
	codexTypeResponseItem:  ToolCodex,
	codexTypeSessionMeta:   ToolCodex,
	codexTypeEventMsg:      ToolCodex,
}

// DetectTool guesses which tool wrote content from the type of its first
// recognizable line. Lines that are not JSON or carry an unknown type are
// skipped.
func DetectTool(content string) (Tool, bool) {
	for _, line := range nonBlankLines(content) {
		if !gjson.Valid(line) {
			continue
		}
		if tool, ok := lineTypeTools[gjson.Get(line, "type").Str]; ok {
			return tool, true
		}
	}
	return "", false
}
