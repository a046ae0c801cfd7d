// Package debuglog provides structured JSONL logging for the transcript tools.
// Writes to {stateDir}/transcripts.log at configurable debug levels.
package debuglog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileName is the log file created under the state directory.
const FileName = "transcripts.log"

// Logger writes structured log entries to the debug log file.
// A nil Logger is valid and logs nothing.
type Logger struct {
	stateDir   string
	debugLevel int
}

// New creates a Logger. Logging is a no-op if debugLevel < minLevel on each call.
func New(stateDir string, debugLevel int) *Logger {
	return &Logger{stateDir: stateDir, debugLevel: debugLevel}
}

// Path returns the log file path, or "" when logging is disabled.
func (l *Logger) Path() string {
	if l == nil || l.stateDir == "" {
		return ""
	}
	return filepath.Join(l.stateDir, FileName)
}

// ParseCounts mirrors the parser statistics without importing the parser.
type ParseCounts struct {
	Lines     int `json:"lines"`
	Malformed int `json:"malformed"`
	Dropped   int `json:"dropped"`
	Emitted   int `json:"emitted"`
}

// Lap is one timed step of a batch load.
type Lap struct {
	Name string `json:"name"`
	Ms   int64  `json:"ms"`
}

// LogTranscriptLoaded logs a parsed transcript file.
func (l *Logger) LogTranscriptLoaded(phase, tool, path string, counts ParseCounts, model string, ms int64) {
	if !l.enabled(1) {
		return
	}

	l.write(map[string]interface{}{
		"event":       "transcript_loaded",
		"level":       "info",
		"phase":       phase,
		"tool":        tool,
		"path":        path,
		"counts":      counts,
		"model":       model,
		"duration_ms": ms,
	})
}

// LogTranscriptMissing logs a transcript file that does not exist.
func (l *Logger) LogTranscriptMissing(phase, tool, path string) {
	if !l.enabled(2) {
		return
	}

	l.write(map[string]interface{}{
		"event": "transcript_missing",
		"level": "debug",
		"phase": phase,
		"tool":  tool,
		"path":  path,
	})
}

// LogAnnotationsFallback logs when annotations fell back to an empty list.
// reason: "missing" or "malformed"
func (l *Logger) LogAnnotationsFallback(phase, path, reason, detail string) {
	level := 1
	if reason == "missing" {
		level = 2
	}
	if !l.enabled(level) {
		return
	}

	l.write(map[string]interface{}{
		"event":  "annotations_fallback",
		"level":  "warn",
		"phase":  phase,
		"path":   path,
		"reason": reason,
		"detail": detail,
	})
}

// LogPlanMissing logs a plan file that could not be read.
func (l *Logger) LogPlanMissing(tool, path string) {
	if !l.enabled(2) {
		return
	}

	l.write(map[string]interface{}{
		"event": "plan_missing",
		"level": "debug",
		"tool":  tool,
		"path":  path,
	})
}

// LogBatchLoaded logs the per-transcript timings of a batch load.
// slowest names the longest lap, "" if there were none.
func (l *Logger) LogBatchLoaded(count int, laps []Lap, slowest string, totalMs int64) {
	if !l.enabled(1) {
		return
	}

	l.write(map[string]interface{}{
		"event":       "batch_loaded",
		"level":       "info",
		"count":       count,
		"laps":        laps,
		"slowest":     slowest,
		"duration_ms": totalMs,
	})
}

// LogWatchEvent logs a debounced file change seen by the watcher.
func (l *Logger) LogWatchEvent(path, op string) {
	if !l.enabled(2) {
		return
	}

	l.write(map[string]interface{}{
		"event": "watch_event",
		"level": "debug",
		"path":  path,
		"op":    op,
	})
}

// LogRequest logs one served API request.
func (l *Logger) LogRequest(method, path string, status int, ms int64) {
	if !l.enabled(3) {
		return
	}

	l.write(map[string]interface{}{
		"event":       "request",
		"level":       "trace",
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": ms,
	})
}

func (l *Logger) enabled(minLevel int) bool {
	return l != nil && l.stateDir != "" && l.debugLevel >= minLevel
}

func (l *Logger) write(entry map[string]interface{}) {
	entry["timestamp"] = time.Now().Format(time.RFC3339)

	if err := os.MkdirAll(l.stateDir, 0755); err != nil {
		return
	}
	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	f.WriteString(string(data) + "\n")
}
