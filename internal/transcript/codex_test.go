package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func codexRecord(payload map[string]any) map[string]any {
	return map[string]any{"type": "response_item", "payload": payload}
}

func codexTurn(model, effort string) map[string]any {
	payload := map[string]any{"model": model}
	if effort != "" {
		payload["effort"] = effort
	}
	return map[string]any{"type": "turn_context", "payload": payload}
}

func codexAssistant(text string) map[string]any {
	return codexRecord(map[string]any{
		"type":    "message",
		"role":    "assistant",
		"content": []any{map[string]any{"type": "output_text", "text": text}},
	})
}

func codexFixture(t *testing.T) string {
	t.Helper()
	return jsonl(t,
		codexTurn("gpt-4.1", ""),
		codexRecord(map[string]any{
			"role": "user",
			"content": []any{
				map[string]any{"type": "input_text", "text": "<INSTRUCTIONS>skip</INSTRUCTIONS>"},
				map[string]any{"type": "input_text", "text": "Hello there"},
			},
		}),
		codexAssistant("Hi back"),
		codexRecord(map[string]any{
			"type":    "reasoning",
			"summary": []any{map[string]any{"type": "summary_text", "text": "Thinking out loud"}},
		}),
		codexRecord(map[string]any{
			"type":      "function_call",
			"name":      "doThing",
			"arguments": `{"a":1}`,
			"call_id":   "call-1",
		}),
	)
}

func Test_ParseCodex_Fixture(t *testing.T) {
	msgs := ParseCodex(codexFixture(t))

	require.Equal(t, []RenderedMessage{
		{Role: RoleUser, Content: "Hello there", OriginalIndex: 0},
		{Role: RoleAssistant, Content: "Hi back", Model: "gpt-4.1", OriginalIndex: 1},
		{Role: RoleThinking, Content: "Thinking out loud", OriginalIndex: 2},
		{Role: RoleTool, Content: "doThing", Raw: `{"a":1}`, RawLabel: "Arguments", ToolCallID: "call-1", OriginalIndex: 3},
	}, msgs)
}

func Test_ParseCodex_Stats(t *testing.T) {
	_, stats := NewParser(nil).Parse(ToolCodex, codexFixture(t)+"\n{oops")
	require.Equal(t, Stats{Lines: 6, Malformed: 1, Dropped: 1, Emitted: 4}, stats)
}

func Test_ParseCodex_ModelWithEffort(t *testing.T) {
	msgs := ParseCodex(jsonl(t, codexTurn("gpt-5-codex", "high"), codexAssistant("done")))

	require.Len(t, msgs, 1)
	require.Equal(t, "gpt-5-codex high", msgs[0].Model)
}

func Test_ParseCodex_ModelCarriesForwardUntilChanged(t *testing.T) {
	msgs := ParseCodex(jsonl(t,
		codexAssistant("before any context"),
		codexTurn("gpt-4.1", ""),
		codexAssistant("first"),
		map[string]any{"type": "turn_context", "payload": map[string]any{"cwd": "/tmp"}},
		codexAssistant("second"),
		codexTurn("gpt-5", "low"),
		codexAssistant("third"),
	))

	require.Len(t, msgs, 4)
	require.Empty(t, msgs[0].Model)
	require.Equal(t, "gpt-4.1", msgs[1].Model)
	require.Equal(t, "gpt-4.1", msgs[2].Model)
	require.Equal(t, "gpt-5 low", msgs[3].Model)
}

func Test_ParseCodex_ModelStateIsPerCall(t *testing.T) {
	first := ParseCodex(jsonl(t, codexTurn("gpt-4.1", ""), codexAssistant("a")))
	second := ParseCodex(jsonl(t, codexAssistant("b")))

	require.Equal(t, "gpt-4.1", first[0].Model)
	require.Empty(t, second[0].Model)
}

func Test_ParseCodex_DropsInjectedUserInput(t *testing.T) {
	msgs := ParseCodex(jsonl(t, codexRecord(map[string]any{
		"type": "message",
		"role": "user",
		"content": []any{
			map[string]any{"type": "input_text", "text": "<environment_context>cwd</environment_context>"},
			map[string]any{"type": "input_text", "text": "<skill>body</skill>"},
			map[string]any{"type": "input_text", "text": "   "},
			map[string]any{"type": "input_image", "image_url": "data:"},
			map[string]any{"type": "input_text", "text": "  keep me  "},
		},
	})))

	require.Len(t, msgs, 1)
	require.Equal(t, RenderedMessage{Role: RoleUser, Content: "keep me", OriginalIndex: 0}, msgs[0])
}

func Test_ParseCodex_MultipleOutputParts(t *testing.T) {
	msgs := ParseCodex(jsonl(t, codexRecord(map[string]any{
		"type": "message",
		"role": "assistant",
		"content": []any{
			map[string]any{"type": "output_text", "text": "one"},
			map[string]any{"type": "output_text", "text": ""},
			map[string]any{"type": "refusal", "text": "nope"},
			map[string]any{"type": "output_text", "text": "two"},
		},
	})))

	require.Len(t, msgs, 2)
	requireContiguousIndices(t, msgs)
	require.Equal(t, "two", msgs[1].Content)
}

func Test_ParseCodex_FunctionCallWithoutName(t *testing.T) {
	msgs := ParseCodex(jsonl(t, codexRecord(map[string]any{"type": "function_call", "call_id": "c9"})))

	require.Len(t, msgs, 1)
	require.Equal(t, "function_call", msgs[0].Content)
	require.Empty(t, msgs[0].Raw)
	require.Equal(t, "Arguments", msgs[0].RawLabel)
	require.Equal(t, "c9", msgs[0].ToolCallID)
}

func Test_ParseCodex_IgnoresOtherRecords(t *testing.T) {
	content := jsonl(t,
		map[string]any{"type": "session_meta", "payload": map[string]any{"id": "abc"}},
		map[string]any{"type": "event_msg", "payload": map[string]any{"type": "user_message", "message": "dup"}},
		codexRecord(map[string]any{"type": "function_call_output", "call_id": "c1", "output": "ok"}),
		codexRecord(map[string]any{"type": "message", "role": "developer", "content": []any{
			map[string]any{"type": "input_text", "text": "rules"},
		}}),
		codexRecord(map[string]any{"type": "reasoning", "summary": []any{}, "encrypted_content": "xyz"}),
		"not json at all",
		codexAssistant("visible"),
	)

	msgs := ParseCodex(content)
	require.Len(t, msgs, 1)
	require.Equal(t, "visible", msgs[0].Content)
	require.Equal(t, 0, msgs[0].OriginalIndex)
}

func Test_ParseCodex_Deterministic(t *testing.T) {
	content := codexFixture(t)
	require.Equal(t, ParseCodex(content), ParseCodex(content))
}

func Test_ParseCodex_OddEffortKeepsModel(t *testing.T) {
	content := `{"type":"turn_context","payload":{"model":"gpt-5","effort":1}}` + "\n" +
		jsonl(t, codexAssistant("answer"))

	msgs := ParseCodex(content)
	require.Len(t, msgs, 1)
	require.Equal(t, "gpt-5", msgs[0].Model)
}

func Test_ParseCodex_NonStringModelIgnored(t *testing.T) {
	content := jsonl(t,
		codexTurn("gpt-4.1", ""),
		map[string]any{"type": "turn_context", "payload": map[string]any{"model": 5}},
		codexAssistant("answer"),
	)

	msgs := ParseCodex(content)
	require.Len(t, msgs, 1)
	require.Equal(t, "gpt-4.1", msgs[0].Model)
}

func Test_ParseCodex_BadFieldKeepsRecord(t *testing.T) {
	content := jsonl(t,
		codexRecord(map[string]any{
			"type": "message",
			"role": "assistant",
			"content": []any{
				map[string]any{"type": "output_text", "text": 42},
				"stray",
				map[string]any{"type": "output_text", "text": "kept"},
			},
		}),
		codexRecord(map[string]any{"type": "function_call", "name": 3, "arguments": "{}", "call_id": "c2"}),
	)

	msgs := ParseCodex(content)
	require.Len(t, msgs, 2)
	require.Equal(t, "kept", msgs[0].Content)
	require.Equal(t, "function_call", msgs[1].Content)
	require.Equal(t, "c2", msgs[1].ToolCallID)
	requireContiguousIndices(t, msgs)
}

func Test_ParseCodex_NonObjectPayloadIsMalformed(t *testing.T) {
	content := `{"type":"response_item","payload":"text"}` + "\n" + jsonl(t, codexAssistant("ok"))

	msgs, stats := NewParser(nil).Parse(ToolCodex, content)
	require.Len(t, msgs, 1)
	require.Equal(t, Stats{Lines: 2, Malformed: 1, Emitted: 1}, stats)
}
