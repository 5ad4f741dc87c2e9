package pii

import (
	"context"
	"sync"
	"time"
)

// InMemoryLoggingDB keeps the most recent log entries in memory
type InMemoryLoggingDB struct {
	mu         sync.RWMutex
	logs       []LogRecord
	nextID     int64
	maxEntries int
	now        func() time.Time
}

// NewInMemoryLoggingDB creates an in-memory log store bounded to maxEntries
func NewInMemoryLoggingDB(maxEntries int) *InMemoryLoggingDB {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxLogEntries
	}
	return &InMemoryLoggingDB{
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *InMemoryLoggingDB) InsertLog(_ context.Context, message string, direction string, entities []Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.logs = append(m.logs, LogRecord{
		ID:          m.nextID,
		Timestamp:   m.now().UTC(),
		Direction:   direction,
		Message:     truncateMessage(message),
		DetectedPII: toLogEntries(entities),
	})
	if over := len(m.logs) - m.maxEntries; over > 0 {
		m.logs = append([]LogRecord(nil), m.logs[over:]...)
	}
	return nil
}

func (m *InMemoryLoggingDB) GetLogs(_ context.Context, limit int, offset int) ([]LogRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []LogRecord{}
	skipped := 0
	for i := len(m.logs) - 1; i >= 0; i-- {
		if skipped < offset {
			skipped++
			continue
		}
		if len(result) >= limit {
			break
		}
		result = append(result, m.logs[i])
	}
	return result, nil
}

func (m *InMemoryLoggingDB) GetLogsCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs), nil
}

func (m *InMemoryLoggingDB) ClearLogs(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = nil
	return nil
}

func (m *InMemoryLoggingDB) CleanupOldLogs(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().UTC().Add(-olderThan)
	kept := m.logs[:0]
	var removed int64
	for _, record := range m.logs {
		if record.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	m.logs = kept
	return removed, nil
}

func (m *InMemoryLoggingDB) Close() error {
	return nil
}
