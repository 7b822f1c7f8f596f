// Package journal keeps the completion history: one entry per satisfied
// checklist, newest first, pruned to a retention horizon and persisted
// in SQLite so it survives restarts.
package journal

import (
	"time"

	"github.com/google/uuid"
)

// SystemCrashName is the synthetic entry recorded when a previous session
// did not shut down cleanly.
const SystemCrashName = "System (previous session ended unexpectedly)"

// Entry is one completion event.
type Entry struct {
	ID        string
	Name      string
	Timestamp time.Time
}

// NewEntry stamps a completion event for the given person name.
func NewEntry(name string, at time.Time) Entry {
	return Entry{ID: uuid.NewString(), Name: name, Timestamp: at}
}

// Log is the in-memory completion history, newest first.
type Log struct {
	entries []Entry
}

// NewLog wraps already-ordered entries (as returned by Store.LoadEntries).
func NewLog(entries []Entry) *Log {
	return &Log{entries: entries}
}

// Append inserts an entry at the head.
func (l *Log) Append(e Entry) {
	l.entries = append([]Entry{e}, l.entries...)
}

// Prune drops every entry older than the retention horizon before now.
func (l *Log) Prune(now time.Time, retention time.Duration) {
	cutoff := now.Add(-retention)
	kept := l.entries[:0]
	for _, e := range l.entries {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	l.entries = kept
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}
