// Package watch reports changes to the files under a data directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pbrown/agent-transcripts/internal/debuglog"
	"github.com/pbrown/agent-transcripts/internal/loader"
	"github.com/pbrown/agent-transcripts/internal/transcript"
)

// DefaultDebounce is how long a path must stay quiet before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// Kind says which loader input a changed file feeds.
type Kind string

const (
	KindTranscript  Kind = "transcript"
	KindAnnotations Kind = "annotations"
	KindPlan        Kind = "plan"
)

// Event is one debounced change.
type Event struct {
	Path  string
	Kind  Kind
	Phase string          // set for transcripts and annotations
	Tool  transcript.Tool // set for transcripts and plans
}

// Watcher monitors the transcripts, annotations and plans directories.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dataDir  string
	debounce time.Duration
	log      *debuglog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	fired  chan Event
	done   chan struct{}
}

// New creates a watcher over dataDir. Subdirectories that do not exist are
// skipped.
func New(dataDir string, debounce time.Duration, log *debuglog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fsw,
		dataDir:  dataDir,
		debounce: debounce,
		log:      log,
		timers:   make(map[string]*time.Timer),
		fired:    make(chan Event, 16),
		done:     make(chan struct{}),
	}

	for _, dir := range w.Dirs() {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// Dirs returns the directories the watcher is interested in.
func (w *Watcher) Dirs() []string {
	return []string{
		filepath.Join(w.dataDir, loader.TranscriptsDir),
		filepath.Join(w.dataDir, loader.AnnotationsDir),
		filepath.Join(w.dataDir, loader.PlansDir),
	}
}

// Run delivers debounced events to onChange until ctx is cancelled.
// onChange is always called from Run's goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(Event)) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher: %w", err)

		case ev := <-w.fired:
			onChange(ev)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	ev, ok := Classify(w.dataDir, event.Name)
	if !ok {
		return
	}
	w.log.LogWatchEvent(event.Name, event.Op.String())
	w.debounceEvent(ev)
}

// debounceEvent restarts the quiet period for the event's path.
func (w *Watcher) debounceEvent(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.timers[ev.Path]; exists {
		timer.Stop()
	}

	w.timers[ev.Path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, ev.Path)
		w.mu.Unlock()

		select {
		case w.fired <- ev:
		case <-w.done:
		}
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	close(w.done)
	w.watcher.Close()
}

// Classify maps a path under dataDir to the loader input it feeds.
func Classify(dataDir, path string) (Event, bool) {
	rel, err := filepath.Rel(dataDir, path)
	if err != nil {
		return Event{}, false
	}
	dir, name := filepath.Split(rel)
	dir = filepath.Clean(dir)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	switch {
	case dir == loader.TranscriptsDir && ext == ".jsonl":
		for _, tool := range transcript.Tools() {
			if phase, ok := strings.CutSuffix(base, "-"+string(tool)); ok && phase != "" {
				return Event{Path: path, Kind: KindTranscript, Phase: phase, Tool: tool}, true
			}
		}
	case dir == loader.AnnotationsDir && ext == ".json" && base != "":
		return Event{Path: path, Kind: KindAnnotations, Phase: base}, true
	case dir == loader.PlansDir && ext == ".md":
		if name, ok := strings.CutSuffix(base, "-plan"); ok {
			if tool, err := transcript.ParseTool(name); err == nil {
				return Event{Path: path, Kind: KindPlan, Tool: tool}, true
			}
		}
	}
	return Event{}, false
}
