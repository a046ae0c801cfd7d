package debuglog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func Test_Logger_WritesJSONLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	l := New(dir, 3)

	l.LogTranscriptLoaded("research", "claude", "/data/research-claude.jsonl",
		ParseCounts{Lines: 4, Malformed: 1, Dropped: 1, Emitted: 2}, "claude-test", 7)
	l.LogBatchLoaded(2, []Lap{{Name: "research-claude", Ms: 3}}, "research-claude", 5)
	l.LogRequest("GET", "/api/phases", 200, 1)

	entries := readEntries(t, filepath.Join(dir, FileName))
	require.Len(t, entries, 3)

	require.Equal(t, "transcript_loaded", entries[0]["event"])
	require.Equal(t, "claude-test", entries[0]["model"])
	counts := entries[0]["counts"].(map[string]any)
	require.EqualValues(t, 2, counts["emitted"])
	require.NotEmpty(t, entries[0]["timestamp"])

	require.Equal(t, "batch_loaded", entries[1]["event"])
	laps := entries[1]["laps"].([]any)
	require.Equal(t, "research-claude", laps[0].(map[string]any)["name"])
	require.Equal(t, "research-claude", entries[1]["slowest"])

	require.Equal(t, "request", entries[2]["event"])
	require.EqualValues(t, 200, entries[2]["status"])
}

func Test_Logger_LevelGating(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, 1)

	l.LogTranscriptMissing("research", "codex", "/x")
	l.LogPlanMissing("codex", "/y")
	l.LogWatchEvent("/z", "WRITE")
	l.LogRequest("GET", "/", 200, 0)
	l.LogAnnotationsFallback("research", "/a", "missing", "")

	_, err := os.Stat(filepath.Join(dir, FileName))
	require.True(t, os.IsNotExist(err))

	l.LogAnnotationsFallback("research", "/a", "malformed", "unexpected EOF")
	entries := readEntries(t, filepath.Join(dir, FileName))
	require.Len(t, entries, 1)
	require.Equal(t, "malformed", entries[0]["reason"])
}

func Test_Logger_DisabledIsNoop(t *testing.T) {
	New("", 3).LogTranscriptLoaded("p", "claude", "", ParseCounts{}, "", 0)

	var nilLogger *Logger
	nilLogger.LogRequest("GET", "/", 200, 0)
	require.Empty(t, nilLogger.Path())

	dir := t.TempDir()
	New(dir, 0).LogBatchLoaded(1, nil, "", 0)
	_, err := os.Stat(filepath.Join(dir, FileName))
	require.True(t, os.IsNotExist(err))
}
