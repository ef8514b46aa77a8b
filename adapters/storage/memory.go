package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	apperrors "widget-estimate/internal/errors"
)

// MemoryStore is an in-memory storage backend. Leads are held encoded so
// callers never share mutable state with the store.
type MemoryStore struct {
	leads map[string][]byte
	mu    sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads: make(map[string][]byte),
	}
}

func (s *MemoryStore) Save(ctx context.Context, lead *Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepare(lead); err != nil {
		return err
	}
	data, err := json.Marshal(lead)
	if err != nil {
		return apperrors.Storage("marshal lead", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = data
	return nil
}

func (s *MemoryStore) decode(data []byte) (*Lead, error) {
	var lead Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, apperrors.Storage("unmarshal lead", err)
	}
	return &lead, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.leads[id]
	if !ok {
		return nil, leadNotFound(id)
	}
	return s.decode(data)
}

func (s *MemoryStore) List(ctx context.Context, filter *ListFilter) ([]*Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	leads := []*Lead{}
	for _, data := range s.leads {
		lead, err := s.decode(data)
		if err != nil {
			return nil, err
		}
		if filter.matches(lead) {
			leads = append(leads, lead)
		}
	}

	sort.Slice(leads, func(i, j int) bool { return newestFirst(leads[i], leads[j]) })
	return filter.page(leads), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leads[id]; !ok {
		return leadNotFound(id)
	}
	delete(s.leads, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
