package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Source string

const (
	SourceManual   Source = "manual"
	SourceDetector Source = "detector"
)

type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Edges     []string  `json:"edges"`
	Type      string    `json:"type,omitempty"`
	Source    Source    `json:"source"`
}

// Log is an append-only, time-ordered list of entries.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

func (l *Log) Append(edges []string, typ string, src Source) Entry {
	e := Entry{
		ID:     uuid.NewString(),
		Edges:  append([]string(nil), edges...),
		Type:   typ,
		Source: src,
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e.Timestamp = l.now()
	l.entries = append(l.entries, e)
	return e
}

// List returns a copy of all entries, oldest first.
func (l *Log) List() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Ledger keeps reported and resolved incidents in two independently locked logs.
type Ledger struct {
	Incidents *Log
	Resolved  *Log
}

func NewLedger() *Ledger {
	return &Ledger{
		Incidents: NewLog(),
		Resolved:  NewLog(),
	}
}

func (l *Ledger) RecordIncident(edges []string, typ string, src Source) Entry {
	return l.Incidents.Append(edges, typ, src)
}

func (l *Ledger) RecordResolution(edges []string, src Source) Entry {
	return l.Resolved.Append(edges, "", src)
}
