package transcript

// Filter controls which message roles a reader sees. System messages are
// never shown.
type Filter struct {
	ShowThinking  bool `json:"showThinking"`
	ShowToolCalls bool `json:"showToolCalls"`
}

// Allows reports whether m passes the filter.
func (f Filter) Allows(m RenderedMessage) bool {
	switch m.Role {
	case RoleSystem:
		return false
	case RoleThinking:
		return f.ShowThinking
	case RoleTool:
		return f.ShowToolCalls
	default:
		return true
	}
}

// Apply returns the messages that pass the filter. OriginalIndex values are
// copied as-is.
func (f Filter) Apply(messages []RenderedMessage) []RenderedMessage {
	out := make([]RenderedMessage, 0, len(messages))
	for _, m := range messages {
		if f.Allows(m) {
			out = append(out, m)
		}
	}
	return out
}

// FindAnnotation returns the first annotation for tool at index.
func FindAnnotation(annotations []Annotation, tool Tool, index int) (Annotation, bool) {
	for _, a := range annotations {
		if a.Tool == tool && a.MessageIndex == index {
			return a, true
		}
	}
	return Annotation{}, false
}

// ViewRow is one visible message with its annotation, if any.
type ViewRow struct {
	Message    RenderedMessage `json:"message"`
	Annotation *Annotation     `json:"annotation,omitempty"`
}

// BuildView filters t and joins annotations by original index.
func BuildView(t Transcript, tool Tool, annotations []Annotation, f Filter) []ViewRow {
	visible := f.Apply(t.Messages)
	rows := make([]ViewRow, 0, len(visible))
	for _, m := range visible {
		row := ViewRow{Message: m}
		if a, ok := FindAnnotation(annotations, tool, m.OriginalIndex); ok {
			row.Annotation = &a
		}
		rows = append(rows, row)
	}
	return rows
}
