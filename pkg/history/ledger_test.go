package history

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAppendOrdered(t *testing.T) {
	l := NewLog()
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	edges := []string{"e1", "-e1"}
	first := l.Append(edges, "accident", SourceManual)
	edges[0] = "mutated"
	l.Append([]string{"e2"}, "congestion", SourceDetector)

	entries := l.List()
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, []string{"e1", "-e1"}, entries[0].Edges)
	assert.True(t, entries[0].Timestamp.Before(entries[1].Timestamp))
	assert.Equal(t, SourceDetector, entries[1].Source)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestLedgerLogsAreIndependent(t *testing.T) {
	l := NewLedger()
	l.RecordIncident([]string{"e1"}, "accident", SourceManual)
	l.RecordIncident([]string{"e2"}, "congestion", SourceDetector)
	l.RecordResolution([]string{"e1"}, SourceManual)

	assert.Equal(t, 2, l.Incidents.Len())
	assert.Equal(t, 1, l.Resolved.Len())
	assert.Empty(t, l.Resolved.List()[0].Type)
}

func TestLogConcurrentAppend(t *testing.T) {
	l := NewLog()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Append([]string{"e"}, "", SourceManual)
				_ = l.List()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, l.Len())
}
