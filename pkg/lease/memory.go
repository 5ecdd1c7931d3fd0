package lease

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	token     uint64
	expiresAt time.Time
}

// Memory is a process-local Locker.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	next    uint64
	entries map[string]memoryEntry
}

// NewMemory creates an in-memory locker. A nil clock defaults to time.Now.
func NewMemory(clock func() time.Time) *Memory {
	if clock == nil {
		clock = time.Now
	}

	return &Memory{
		now:     clock,
		entries: make(map[string]memoryEntry),
	}
}

// Acquire claims key unless an unexpired lease is held on it.
func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (Release, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if entry, held := m.entries[key]; held && now.Before(entry.expiresAt) {
		return nil, false, nil
	}

	m.next++
	token := m.next
	m.entries[key] = memoryEntry{token: token, expiresAt: now.Add(ttl)}

	release := func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()

		if entry, held := m.entries[key]; held && entry.token == token {
			delete(m.entries, key)
		}

		return nil
	}

	return release, true, nil
}
