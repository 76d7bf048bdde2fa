package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/studyhub-tz/studyhub/internal/common"
)

// MemoryStore is an in-memory Store used by tests. Documents are kept as
// raw JSON per collection, like the real backend. FailWith, when set,
// makes every data operation fail with that error.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string]map[string]json.RawMessage // collection -> id -> doc
	FailWith error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]json.RawMessage)}
}

// Seed puts a document into a collection, assigning it the given id.
func (s *MemoryStore) Seed(collection, id string, doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]json.RawMessage)
	}
	s.data[collection][id] = b
	return nil
}

// Document returns the raw stored document, or nil if absent.
func (s *MemoryStore) Document(collection, id string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[collection][id]
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Register(ctx context.Context, req RegisterRequest) (string, error) {
	if s.FailWith != nil {
		return "", s.FailWith
	}
	return "user-" + req.Email, nil
}

func (s *MemoryStore) Login(ctx context.Context, email, password string) (json.RawMessage, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	doc, _ := json.Marshal(map[string]string{"id": "user-" + email, "email": email})
	return doc, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return s.FailWith }

func (s *MemoryStore) FetchAll(ctx context.Context, collection string, filter *Filter) ([]json.RawMessage, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []json.RawMessage
	for _, doc := range s.data[collection] {
		if filter != nil {
			var m map[string]any
			if err := json.Unmarshal(doc, &m); err != nil {
				return nil, fmt.Errorf("%w: %v", common.ErrRemoteFailure, err)
			}
			if fmt.Sprintf("%v", m[filter.Field]) != filter.Value {
				continue
			}
		}
		result = append(result, doc)
	}
	return result, nil
}

func (s *MemoryStore) UpsertOne(ctx context.Context, collection, id string, doc any) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	return s.Seed(collection, id, doc)
}

func (s *MemoryStore) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.data[collection][id]
	if !ok {
		return common.ErrNotFound
	}
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteFailure, err)
	}
	m[field] = value
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteFailure, err)
	}
	s.data[collection][id] = b
	return nil
}

func (s *MemoryStore) PaperDownloadURL(ctx context.Context, paperID string) (string, error) {
	if s.FailWith != nil {
		return "", s.FailWith
	}
	return "https://files.test/papers/" + paperID, nil
}
