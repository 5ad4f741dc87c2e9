package session

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	session  *Session
	lastSeen time.Time
}

// MemoryStore keeps sessions in process memory. Expired sessions are removed
// lazily when touched and by a sweep on Create.
type MemoryStore struct {
	mu          sync.Mutex
	items       map[string]*memoryItem
	idleTimeout time.Duration
	now         func() time.Time
}

// NewMemoryStore creates an in-memory store with the given inactivity timeout
func NewMemoryStore(idleTimeout time.Duration) *MemoryStore {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &MemoryStore{
		items:       make(map[string]*memoryItem),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, sourceLanguage, targetLanguage string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	for id, item := range m.items {
		if m.expired(item, now) {
			delete(m.items, id)
		}
	}

	s := newSession(sourceLanguage, targetLanguage, now)
	m.items[s.ID] = &memoryItem{session: s, lastSeen: now}
	return s.clone(), nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, err := m.touch(id)
	if err != nil {
		return nil, err
	}
	return item.session.clone(), nil
}

func (m *MemoryStore) UpdateLanguages(_ context.Context, id string, update LanguageUpdate) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, err := m.touch(id)
	if err != nil {
		return nil, err
	}
	item.session.applyLanguages(update, item.lastSeen)
	return item.session.clone(), nil
}

func (m *MemoryStore) AppendEntry(_ context.Context, id string, entry Entry) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, err := m.touch(id)
	if err != nil {
		return nil, err
	}
	item.session.appendEntry(entry, item.lastSeen)
	return item.session.clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// Len returns the number of sessions held, including expired ones not yet swept
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// touch returns the live item for id and refreshes its expiry. Caller holds mu.
func (m *MemoryStore) touch(id string) (*memoryItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := m.now().UTC()
	if m.expired(item, now) {
		delete(m.items, id)
		return nil, ErrNotFound
	}
	item.lastSeen = now
	return item, nil
}

func (m *MemoryStore) expired(item *memoryItem, now time.Time) bool {
	return now.Sub(item.lastSeen) >= m.idleTimeout
}
