package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
// Documents are held as raw JSON; insertion order is preserved per collection.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]map[string][]byte // collection -> id -> body
	order map[string][]string          // collection -> ids in insertion order
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string]map[string][]byte),
		order: make(map[string][]string),
	}
}

func (s *MemoryStore) FindOne(_ context.Context, collection string, p Predicate, dest any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var match []byte
	found := false
	for _, id := range s.order[collection] {
		body := s.docs[collection][id]
		ok, err := matches(body, p)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if found {
			return ErrAmbiguous
		}
		match, found = body, true
	}
	if !found {
		return ErrNoDocument
	}
	return unmarshalDocument(match, dest, collection)
}

func (s *MemoryStore) FindMany(_ context.Context, collection string, p Predicate, dest any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bodies := []json.RawMessage{}
	for _, id := range s.order[collection] {
		body := s.docs[collection][id]
		ok, err := matches(body, p)
		if err != nil {
			return err
		}
		if ok {
			bodies = append(bodies, body)
		}
	}
	raw, err := json.Marshal(bodies)
	if err != nil {
		return fmt.Errorf("docstore: marshal %s results: %w", collection, err)
	}
	return unmarshalDocument(raw, dest, collection)
}

func (s *MemoryStore) GetByID(_ context.Context, collection, id string, dest any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.docs[collection][id]
	if !ok {
		return ErrNoDocument
	}
	return unmarshalDocument(body, dest, collection)
}

func (s *MemoryStore) Insert(_ context.Context, collection string, doc any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("docstore: marshal %s document: %w", collection, err)
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", fmt.Errorf("docstore: %s document must be a JSON object: %w", collection, err)
	}

	id := uuid.NewString()
	fields["id"] = id
	body, err = json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("docstore: marshal %s document: %w", collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string][]byte)
	}
	s.docs[collection][id] = body
	s.order[collection] = append(s.order[collection], id)
	return id, nil
}

func (s *MemoryStore) UpdateFields(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.docs[collection][id]
	if !ok {
		return ErrNoDocument
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("docstore: unmarshal %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		doc[k] = v
	}
	updated, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: marshal %s/%s: %w", collection, id, err)
	}
	s.docs[collection][id] = updated
	return nil
}

func (s *MemoryStore) AddToSet(_ context.Context, collection, id, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.docs[collection][id]
	if !ok {
		return ErrNoDocument
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("docstore: unmarshal %s/%s: %w", collection, id, err)
	}

	arr, _ := doc[field].([]any)
	for _, elem := range arr {
		if jsonEqual(elem, value) {
			return nil
		}
	}
	doc[field] = append(arr, value)

	updated, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: marshal %s/%s: %w", collection, id, err)
	}
	s.docs[collection][id] = updated
	return nil
}

// matches evaluates a predicate against a raw document.
func matches(body []byte, p Predicate) (bool, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return false, fmt.Errorf("docstore: unmarshal document: %w", err)
	}

	field, ok := doc[p.Field]
	if !ok {
		return false, nil
	}

	switch p.Op {
	case OpEqual:
		return jsonEqual(field, p.Value), nil
	case OpArrayContains:
		arr, ok := field.([]any)
		if !ok {
			return false, nil
		}
		for _, elem := range arr {
			if jsonEqual(elem, p.Value) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("docstore: unknown predicate op %d", p.Op)
	}
}

// jsonEqual compares two values by their canonical JSON encoding, so typed Go
// values compare equal to their round-tripped counterparts.
func jsonEqual(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
