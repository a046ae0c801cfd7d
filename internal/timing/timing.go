package timing

import (
	"sync"
	"time"
)

// Lap is one named, completed step.
type Lap struct {
	Name string
	Ms   int64
}

// Timer tracks elapsed time and an ordered list of named laps
type Timer struct {
	start time.Time
	laps  []Lap
	mu    sync.Mutex
}

// New creates a new Timer with the current time as the start point
func New() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the number of milliseconds since the timer was created
func (t *Timer) ElapsedMs() int64 {
	return time.Since(t.start).Milliseconds()
}

// Time runs fn and records its duration as a lap named name
func (t *Timer) Time(name string, fn func()) int64 {
	lapStart := time.Now()
	fn()
	ms := time.Since(lapStart).Milliseconds()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.laps = append(t.laps, Lap{Name: name, Ms: ms})
	return ms
}

// Laps returns a copy of the recorded laps in the order they finished
func (t *Timer) Laps() []Lap {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make([]Lap, len(t.laps))
	copy(result, t.laps)
	return result
}

// Slowest returns the longest lap, or false if none were recorded
func (t *Timer) Slowest() (Lap, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.laps) == 0 {
		return Lap{}, false
	}
	slowest := t.laps[0]
	for _, lap := range t.laps[1:] {
		if lap.Ms > slowest.Ms {
			slowest = lap
		}
	}
	return slowest, true
}
