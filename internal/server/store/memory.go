package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/studyhub-tz/studyhub/internal/common"
)

// MemoryStore keeps all documents in process memory. Used by tests and
// by the server in development mode; contents vanish on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage // collection -> id -> doc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]json.RawMessage)}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) FetchAll(ctx context.Context, collection string, filter *Filter) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []json.RawMessage
	for _, doc := range s.data[collection] {
		if filter != nil {
			match, err := fieldEquals(doc, filter.Field, filter.Value)
			if err != nil {
				return nil, err
			}
			if !match {
				continue
			}
		}
		result = append(result, doc)
	}
	return result, nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[collection][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return doc, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, collection, id string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[collection] == nil {
		s.data[collection] = make(map[string]json.RawMessage)
	}
	s.data[collection][id] = doc
	return nil
}

func (s *MemoryStore) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.data[collection][id]
	if !ok {
		return common.ErrNotFound
	}

	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	m[field] = value
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	s.data[collection][id] = b
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data[collection], id)
	return nil
}

func fieldEquals(doc json.RawMessage, field, value string) (bool, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return false, fmt.Errorf("decode document: %w", err)
	}
	v, ok := m[field]
	if !ok {
		return false, nil
	}
	return fmt.Sprintf("%v", v) == value, nil
}
