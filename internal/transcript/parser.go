// Package transcript normalizes Claude Code and Codex JSONL session logs into
// a single ordered message model.
//
// Parsing is permissive: malformed lines are skipped, unknown records are
// ignored, and no input causes an error.
package transcript

import (
	"strings"
)

// Stats describes what a parser did with its input.
type Stats struct {
	Lines     int // non-blank lines seen
	Malformed int // lines that were not valid JSON
	Dropped   int // records that parsed but emitted nothing
	Emitted   int // messages produced
}

// Parser turns raw JSONL content into rendered messages.
// The zero value is not usable; use NewParser.
type Parser struct {
	classifier *Classifier
}

// NewParser returns a Parser that uses c to classify Claude assistant text.
// A nil classifier falls back to DefaultClassifier.
func NewParser(c *Classifier) *Parser {
	if c == nil {
		c = DefaultClassifier()
	}
	return &Parser{classifier: c}
}

// Parse dispatches to the parser for tool. An unknown tool yields no messages.
func (p *Parser) Parse(tool Tool, content string) ([]RenderedMessage, Stats) {
	switch tool {
	case ToolClaude:
		return parseClaude(content, p.classifier)
	case ToolCodex:
		return parseCodex(content)
	default:
		return []RenderedMessage{}, Stats{}
	}
}

// ParseClaude parses a Claude Code session log with the default classifier.
func ParseClaude(content string) []RenderedMessage {
	msgs, _ := parseClaude(content, DefaultClassifier())
	return msgs
}

// ParseCodex parses a Codex CLI session log.
func ParseCodex(content string) []RenderedMessage {
	msgs, _ := parseCodex(content)
	return msgs
}

// emitter assigns original indices in emission order.
type emitter struct {
	msgs  []RenderedMessage
	stats Stats
}

func newEmitter() *emitter {
	return &emitter{msgs: []RenderedMessage{}}
}

func (e *emitter) emit(m RenderedMessage) {
	m.OriginalIndex = len(e.msgs)
	e.msgs = append(e.msgs, m)
	e.stats.Emitted++
}

// record runs one line's handler and counts it as dropped if nothing came out.
func (e *emitter) record(handle func()) {
	before := len(e.msgs)
	handle()
	if len(e.msgs) == before {
		e.stats.Dropped++
	}
}

func (e *emitter) result() ([]RenderedMessage, Stats) {
	return e.msgs, e.stats
}

// nonBlankLines splits content on newlines and drops whitespace-only lines.
func nonBlankLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
