package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/vision-relay/internal/domain"
)

const defaultCapacity = 1000

// QueryStore is an in-memory domain.QueryStore.
// It keeps the newest `capacity` records and is only suitable for
// development / local mode.
type QueryStore struct {
	mu       sync.RWMutex
	records  []*domain.QueryRecord
	capacity int
}

// NewQueryStore creates a store. capacity <= 0 uses a default of 1000.
func NewQueryStore(capacity int) *QueryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &QueryStore{capacity: capacity}
}

func (s *QueryStore) AppendQuery(_ context.Context, rec *domain.QueryRecord) error {
	if rec == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.records = append(s.records, &cp)
	if over := len(s.records) - s.capacity; over > 0 {
		s.records = append([]*domain.QueryRecord(nil), s.records[over:]...)
	}
	return nil
}

// ListRecentQueries returns up to `limit` records, newest first.
// If limit <= 0, returns all.
func (s *QueryStore) ListRecentQueries(_ context.Context, limit int) ([]*domain.QueryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}

	out := make([]*domain.QueryRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.records[i]
		out = append(out, &cp)
	}
	return out, nil
}
