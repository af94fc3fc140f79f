package server

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJournal_Ring(t *testing.T) {
	j := NewJournal(3)
	for i := 1; i <= 5; i++ {
		j.Record(JournalEntry{Path: fmt.Sprintf("/%d", i)})
	}

	entries := j.Entries()
	assert.Equal(t, 3, j.Len())
	assert.Equal(t, []string{"/3", "/4", "/5"}, []string{entries[0].Path, entries[1].Path, entries[2].Path})

	j.Clear()
	assert.Empty(t, j.Entries())
	j.Record(JournalEntry{Path: "/6"})
	assert.Equal(t, 1, j.Len())
}

func TestJournal_DefaultSize(t *testing.T) {
	j := NewJournal(0)
	for i := 0; i < DefaultJournalSize+10; i++ {
		j.Record(JournalEntry{})
	}
	assert.Equal(t, DefaultJournalSize, j.Len())
}

func TestJournal_Concurrent(t *testing.T) {
	j := NewJournal(1000)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 10; k++ {
				j.Record(JournalEntry{Rule: "basic", Matched: true})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 500, j.CountRule("basic"))
	assert.Empty(t, j.Unmatched())
}
