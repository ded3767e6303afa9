package dedup

import (
	"context"
	"sync"
)

// MemoryTier is an in-process URL set seeded from recent storage rows.
type MemoryTier struct {
	mu   sync.RWMutex
	urls map[string]struct{}
}

func NewMemoryTier(seed []string) *MemoryTier {
	urls := make(map[string]struct{}, len(seed))
	for _, u := range seed {
		urls[u] = struct{}{}
	}
	return &MemoryTier{urls: urls}
}

func (m *MemoryTier) Name() string { return "memory" }

func (m *MemoryTier) Lookup(_ context.Context, url string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.urls[url]
	return ok, nil
}

func (m *MemoryTier) Insert(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls[url] = struct{}{}
	return nil
}

func (m *MemoryTier) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.urls)
}
