package server

import (
	"sync"
	"time"
)

// DefaultJournalSize is how many requests the journal keeps when no size is
// configured.
const DefaultJournalSize = 256

// JournalEntry is one request served by the stub.
type JournalEntry struct {
	ID      string            `json:"id"`
	Time    time.Time         `json:"time"`
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   map[string]string `json:"query,omitempty"`
	Matched bool              `json:"matched"`
	// Rule is empty when nothing matched.
	Rule    string `json:"rule,omitempty"`
	Fixture string `json:"fixture,omitempty"`
	Status  int    `json:"status"`
}

// Journal keeps the most recent requests in a fixed-size ring.
type Journal struct {
	mu      sync.Mutex
	entries []JournalEntry
	next    int
	full    bool
}

// NewJournal creates a journal holding at most size entries.
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = DefaultJournalSize
	}
	return &Journal{entries: make([]JournalEntry, size)}
}

// Record appends e, overwriting the oldest entry once the journal is full.
func (j *Journal) Record(e JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[j.next] = e
	j.next = (j.next + 1) % len(j.entries)
	if j.next == 0 {
		j.full = true
	}
}

// Entries returns the recorded requests, oldest first.
func (j *Journal) Entries() []JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.full {
		out := make([]JournalEntry, j.next)
		copy(out, j.entries[:j.next])
		return out
	}
	out := make([]JournalEntry, 0, len(j.entries))
	out = append(out, j.entries[j.next:]...)
	out = append(out, j.entries[:j.next]...)
	return out
}

// CountRule returns how many recorded requests were served by rule.
func (j *Journal) CountRule(rule string) int {
	n := 0
	for _, e := range j.Entries() {
		if e.Rule == rule {
			n++
		}
	}
	return n
}

// Unmatched returns the recorded requests no rule matched.
func (j *Journal) Unmatched() []JournalEntry {
	var out []JournalEntry
	for _, e := range j.Entries() {
		if !e.Matched {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of recorded requests.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.full {
		return len(j.entries)
	}
	return j.next
}

// Clear drops every entry.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = make([]JournalEntry, len(j.entries))
	j.next = 0
	j.full = false
}
