package prefetch

import "sync"

// Table is the in-memory entry table, injectable so tests can construct
// isolated instances.
type Table interface {
	Get(trackID string) *Entry
	Put(entry *Entry)
	Purge(keep map[string]struct{})
}

// MemoryTable is the default Table backed by a plain map.
type MemoryTable struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{entries: make(map[string]*Entry)}
}

func (t *MemoryTable) Get(trackID string) *Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[trackID]
}

func (t *MemoryTable) Put(entry *Entry) {
	if entry == nil || entry.TrackID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[entry.TrackID] = entry
}

// Purge drops every entry whose track id is not in keep. Bounded memory:
// ids that left the queue take their state with them.
func (t *MemoryTable) Purge(keep map[string]struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.entries {
		if _, ok := keep[id]; !ok {
			delete(t.entries, id)
		}
	}
}

var _ Table = (*MemoryTable)(nil)
