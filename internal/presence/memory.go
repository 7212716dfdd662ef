package presence

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/pokearena/internal/model"
)

// MemoryTracker keeps presence in process memory; it is empty after a restart
type MemoryTracker struct {
	mu     sync.RWMutex
	online map[model.UserID]uint64
	seq    uint64
}

// NewMemoryTracker creates an empty in-memory tracker
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		online: make(map[model.UserID]uint64),
	}
}

// Ensure MemoryTracker implements Tracker
var _ Tracker = (*MemoryTracker)(nil)

func (t *MemoryTracker) Add(_ context.Context, id model.UserID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.online[id]; ok {
		return nil
	}
	t.seq++
	t.online[id] = t.seq
	return nil
}

func (t *MemoryTracker) Remove(_ context.Context, id model.UserID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.online, id)
	return nil
}

func (t *MemoryTracker) List(_ context.Context) ([]model.UserID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]model.UserID, 0, len(t.online))
	for id := range t.online {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return t.online[ids[i]] < t.online[ids[j]]
	})
	return ids, nil
}

func (t *MemoryTracker) Clear(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online = make(map[model.UserID]uint64)
	return nil
}

func (t *MemoryTracker) Contains(_ context.Context, id model.UserID) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[id]
	return ok, nil
}
