// Package memory provides an in-memory HistoryStore for tests and
// single-process runs that don't need durability.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/smallnest/xagent/store"
)

// HistoryStore keeps records in a map guarded by a mutex.
type HistoryStore struct {
	mu      sync.RWMutex
	records map[string]*store.Record
}

// NewHistoryStore creates an empty in-memory store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		records: make(map[string]*store.Record),
	}
}

// Save writes one record, overwriting any previous record with the same ID.
func (s *HistoryStore) Save(ctx context.Context, rec *store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

// Get returns the record with the given ID.
func (s *HistoryStore) Get(ctx context.Context, id string) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// Recent returns up to limit records, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*store.Record, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op.
func (s *HistoryStore) Close() error {
	return nil
}
