package stikkord

import "sync"

// RunLogSize is how many recent outcomes the interactive log keeps.
const RunLogSize = 20

// RunLog is a bounded, newest-first buffer of recent outcomes. Adding past
// capacity evicts the oldest entry. Safe for concurrent use; never
// persisted.
type RunLog struct {
	mu      sync.Mutex
	size    int
	entries []Outcome
}

// NewRunLog returns a log keeping the newest size entries (RunLogSize when
// size is zero or negative).
func NewRunLog(size int) *RunLog {
	if size <= 0 {
		size = RunLogSize
	}
	return &RunLog{size: size}
}

// Add prepends o, dropping the oldest entry once full.
func (l *RunLog) Add(o Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]Outcome{o}, l.entries...)
	if len(l.entries) > l.size {
		l.entries = l.entries[:l.size]
	}
}

// Snapshot returns the entries newest first.
func (l *RunLog) Snapshot() []Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Outcome(nil), l.entries...)
}

// Len reports how many entries are held.
func (l *RunLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
