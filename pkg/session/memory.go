package session

import (
	"context"
	"sync"
	"time"

	"github.com/vango-dev/chrono/internal/errors"
)

// MemoryStore is an in-memory SnapshotStore, suitable for a single server.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*storedSnapshot
	closed    bool
	done      chan struct{}
	now       func() time.Time
}

type storedSnapshot struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStoreOption configures MemoryStore behavior.
type MemoryStoreOption func(*memoryStoreConfig)

type memoryStoreConfig struct {
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithCleanupInterval sets how often expired snapshots are purged.
// Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(c *memoryStoreConfig) {
		c.cleanupInterval = d
	}
}

// WithStoreClock overrides the clock used for expiry checks.
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(c *memoryStoreConfig) {
		c.now = now
	}
}

// NewMemoryStore creates a new in-memory snapshot store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	cfg := &memoryStoreConfig{
		cleanupInterval: time.Minute,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &MemoryStore{
		snapshots: make(map[string]*storedSnapshot),
		done:      make(chan struct{}),
		now:       cfg.now,
	}
	go m.cleanupLoop(cfg.cleanupInterval)
	return m
}

func errClosed() error {
	return errors.New("E011").WithDetail("snapshot store is closed")
}

// Save stores a copy of data until expiresAt.
func (m *MemoryStore) Save(_ context.Context, sessionID string, data []byte, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed()
	}
	m.snapshots[sessionID] = &storedSnapshot{
		data:      append([]byte(nil), data...),
		expiresAt: expiresAt,
	}
	return nil
}

// Load returns a copy of the stored data if present and unexpired.
func (m *MemoryStore) Load(_ context.Context, sessionID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errClosed()
	}
	s, ok := m.snapshots[sessionID]
	if !ok || m.now().After(s.expiresAt) {
		return nil, nil
	}
	return append([]byte(nil), s.data...), nil
}

// Delete removes a snapshot.
func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed()
	}
	delete(m.snapshots, sessionID)
	return nil
}

// Close stops the cleanup loop and drops all snapshots.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.snapshots = nil
	return nil
}

// Count returns the number of stored snapshots, expired or not.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}

func (m *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.done:
			return
		}
	}
}

func (m *MemoryStore) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	now := m.now()
	for id, s := range m.snapshots {
		if now.After(s.expiresAt) {
			delete(m.snapshots, id)
		}
	}
}
