package memory

import (
	"context"
	"sync"

	"github.com/legendpaul/sportsapp/internal/domain/datastore"
)

// DocumentStore holds the document in process memory; used for tests and
// DATASTORE_DRIVER=memory.
type DocumentStore struct {
	mu  sync.RWMutex
	doc datastore.Document
}

func NewDocumentStore(seed datastore.Document) *DocumentStore {
	return &DocumentStore{doc: seed.Clone()}
}

func (s *DocumentStore) Load(_ context.Context) (datastore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone(), nil
}

func (s *DocumentStore) Save(_ context.Context, doc datastore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	return nil
}
