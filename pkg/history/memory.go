package history

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used for tests and ephemeral runs.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   []*Exchange
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Append stores an exchange, assigning its ID and CreatedAt.
func (s *MemoryStore) Append(_ context.Context, ex *Exchange) error {
	if err := validate(ex); err != nil {
		return err
	}
	if ex.Kind == "" {
		ex.Kind = KindText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ex.ID = s.nextID
	s.nextID++
	ex.CreatedAt = time.Now().UTC()

	// Copy so later caller mutation can't change the stored row.
	stored := *ex
	s.rows = append(s.rows, &stored)
	return nil
}

// FetchRecent returns at most limit exchanges for the sender, newest first.
func (s *MemoryStore) FetchRecent(_ context.Context, senderID string, limit int) ([]*Exchange, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Exchange
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if s.rows[i].SenderID == senderID {
			row := *s.rows[i]
			out = append(out, &row)
		}
	}
	return out, nil
}

// ClearAll removes every stored exchange and returns the removed count.
func (s *MemoryStore) ClearAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.rows))
	s.rows = nil
	return n, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
