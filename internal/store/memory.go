package store

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpalmerr/serverboard/internal/battlemetrics"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage with a publish-subscribe mechanism.
// Entries are keyed by server identifier, with new records replacing previous
// values.
type MemoryStore struct {
	ids         []string
	known       map[string]struct{}
	mu          sync.RWMutex
	entries     map[string]Entry
	subscribers map[chan Entry]struct{}
	subMu       sync.RWMutex
	dropped     atomic.Uint64
}

// NewMemoryStore creates a store for the given identifiers, in order.
//
// Duplicate identifiers are collapsed to their first occurrence.
func NewMemoryStore(ids []string) *MemoryStore {
	ordered := make([]string, 0, len(ids))
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := known[id]; dup {
			continue
		}
		known[id] = struct{}{}
		ordered = append(ordered, id)
	}

	return &MemoryStore{
		ids:         ordered,
		known:       known,
		entries:     make(map[string]Entry, len(ordered)),
		subscribers: make(map[chan Entry]struct{}),
	}
}

// Update stores rec for id and notifies all subscribers.
func (m *MemoryStore) Update(id string, rec battlemetrics.Record, fetchedAt time.Time) error {
	if _, ok := m.known[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownServer, id)
	}

	entry := Entry{ID: id, Record: rec, FetchedAt: fetchedAt}

	m.mu.Lock()
	m.entries[id] = entry
	m.mu.Unlock()

	m.notifySubscribers(entry)
	return nil
}

// Get returns the entry for id.
func (m *MemoryStore) Get(id string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	return e, ok
}

// All returns a snapshot of stored entries in configured order.
//
// The returned slice is a copy; modifications do not affect the store.
func (m *MemoryStore) All() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Entry, 0, len(m.entries))
	for _, id := range m.ids {
		if e, ok := m.entries[id]; ok {
			results = append(results, e)
		}
	}
	return results
}

// IDs returns a copy of the configured identifiers.
func (m *MemoryStore) IDs() []string {
	return append([]string(nil), m.ids...)
}

// Len returns the number of servers with a cached entry.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// The returned channel has a buffer of 100 entries. If the buffer fills
// (slow consumer), new updates are dropped for this subscriber and counted
// in [MemoryStore.Dropped].
func (m *MemoryStore) Subscribe() <-chan Entry {
	ch := make(chan Entry, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Entry) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the entry to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(entry Entry) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- entry:
		default:
			m.dropped.Add(1)
		}
	}
}

// Dropped returns the number of updates discarded across all subscribers.
func (m *MemoryStore) Dropped() uint64 {
	return m.dropped.Load()
}
