// Package loader reads transcripts, annotations and plans from a data
// directory laid out as:
//
//	<data>/transcripts/<phase>-<tool>.jsonl
//	<data>/annotations/<phase>.json
//	<data>/plans/claude-plan.md, <data>/plans/codex-plan.md
//
// Nothing here returns an error. A missing or unreadable file is "no data".
// Every call re-reads storage.
package loader

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pbrown/agent-transcripts/internal/debuglog"
	"github.com/pbrown/agent-transcripts/internal/timing"
	"github.com/pbrown/agent-transcripts/internal/transcript"
)

const (
	TranscriptsDir = "transcripts"
	AnnotationsDir = "annotations"
	PlansDir       = "plans"
)

// Loader resolves phase/tool pairs to files under a data directory.
type Loader struct {
	dataDir string
	phases  []string
	parser  *transcript.Parser
	log     *debuglog.Logger
}

// New creates a Loader. A nil parser uses the default classifier and a nil
// logger disables logging.
func New(dataDir string, phases []string, parser *transcript.Parser, log *debuglog.Logger) *Loader {
	if parser == nil {
		parser = transcript.NewParser(nil)
	}
	return &Loader{
		dataDir: dataDir,
		phases:  append([]string(nil), phases...),
		parser:  parser,
		log:     log,
	}
}

// DataDir returns the root directory the loader reads from.
func (l *Loader) DataDir() string {
	return l.dataDir
}

// Phases returns the configured phase list in load order.
func (l *Loader) Phases() []string {
	return append([]string(nil), l.phases...)
}

// TranscriptPath returns the log file for a phase and tool.
func (l *Loader) TranscriptPath(phase string, tool transcript.Tool) string {
	return filepath.Join(l.dataDir, TranscriptsDir, transcript.Key(phase, tool)+".jsonl")
}

// AnnotationsPath returns the annotation file for a phase.
func (l *Loader) AnnotationsPath(phase string) string {
	return filepath.Join(l.dataDir, AnnotationsDir, phase+".json")
}

// PlanPath returns the plan file written by a tool.
func (l *Loader) PlanPath(tool transcript.Tool) string {
	return filepath.Join(l.dataDir, PlansDir, string(tool)+"-plan.md")
}

// LoadTranscript parses the log for one phase and tool. A missing file
// yields an empty transcript carrying the tool's display name.
func (l *Loader) LoadTranscript(phase string, tool transcript.Tool) transcript.Transcript {
	path := l.TranscriptPath(phase, tool)
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		l.log.LogTranscriptMissing(phase, string(tool), path)
		return transcript.Empty(tool)
	}

	msgs, stats := l.parser.Parse(tool, string(data))
	t := transcript.New(tool, msgs)

	l.log.LogTranscriptLoaded(phase, string(tool), path, debuglog.ParseCounts{
		Lines:     stats.Lines,
		Malformed: stats.Malformed,
		Dropped:   stats.Dropped,
		Emitted:   stats.Emitted,
	}, t.Model, time.Since(start).Milliseconds())

	return t
}

// LoadAll loads every configured phase for both tools, keyed by
// transcript.Key. Each combination is loaded independently.
func (l *Loader) LoadAll() map[string]transcript.Transcript {
	timer := timing.New()
	out := make(map[string]transcript.Transcript, len(l.phases)*len(transcript.Tools()))

	for _, phase := range l.phases {
		for _, tool := range transcript.Tools() {
			key := transcript.Key(phase, tool)
			timer.Time(key, func() {
				out[key] = l.LoadTranscript(phase, tool)
			})
		}
	}

	laps := timer.Laps()
	logged := make([]debuglog.Lap, len(laps))
	for i, lap := range laps {
		logged[i] = debuglog.Lap{Name: lap.Name, Ms: lap.Ms}
	}
	var slowest string
	if lap, ok := timer.Slowest(); ok {
		slowest = lap.Name
	}
	l.log.LogBatchLoaded(len(out), logged, slowest, timer.ElapsedMs())

	return out
}

// LoadAnnotations reads the annotation list for a phase. A missing or
// malformed file yields an empty, non-nil list.
func (l *Loader) LoadAnnotations(phase string) []transcript.Annotation {
	path := l.AnnotationsPath(phase)

	data, err := os.ReadFile(path)
	if err != nil {
		reason := "unreadable"
		if errors.Is(err, fs.ErrNotExist) {
			reason = "missing"
		}
		l.log.LogAnnotationsFallback(phase, path, reason, err.Error())
		return []transcript.Annotation{}
	}

	var annotations []transcript.Annotation
	if err := json.Unmarshal(data, &annotations); err != nil {
		l.log.LogAnnotationsFallback(phase, path, "malformed", err.Error())
		return []transcript.Annotation{}
	}
	if annotations == nil {
		return []transcript.Annotation{}
	}
	return annotations
}

// LoadPlans reads both plan files. A missing file yields "".
func (l *Loader) LoadPlans() transcript.Plans {
	return transcript.Plans{
		Claude: l.readPlan(transcript.ToolClaude),
		Codex:  l.readPlan(transcript.ToolCodex),
	}
}

func (l *Loader) readPlan(tool transcript.Tool) string {
	path := l.PlanPath(tool)
	data, err := os.ReadFile(path)
	if err != nil {
		l.log.LogPlanMissing(string(tool), path)
		return ""
	}
	return string(data)
}

// Phase is everything needed to render one phase page.
type Phase struct {
	Phase       string                  `json:"phase"`
	Claude      transcript.Transcript   `json:"claude"`
	Codex       transcript.Transcript   `json:"codex"`
	Annotations []transcript.Annotation `json:"annotations"`
}

// LoadPhase loads both transcripts and the annotations for one phase.
func (l *Loader) LoadPhase(phase string) Phase {
	return Phase{
		Phase:       phase,
		Claude:      l.LoadTranscript(phase, transcript.ToolClaude),
		Codex:       l.LoadTranscript(phase, transcript.ToolCodex),
		Annotations: l.LoadAnnotations(phase),
	}
}

// Transcript returns the transcript for tool within the bundle.
func (p Phase) Transcript(tool transcript.Tool) transcript.Transcript {
	if tool == transcript.ToolCodex {
		return p.Codex
	}
	return p.Claude
}
