package cache

import (
	"context"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	basecache "github.com/legendpaul/sportsapp/internal/platform/cache"
)

const documentCacheKey = "datastore:document"

// DocumentStore is a read-through decorator for slow backends. Saves write
// through and refresh the cached copy.
type DocumentStore struct {
	next  datastore.Store
	cache *basecache.Store
	ttl   time.Duration
}

func NewDocumentStore(next datastore.Store, cache *basecache.Store, ttl time.Duration) *DocumentStore {
	return &DocumentStore{next: next, cache: cache, ttl: ttl}
}

func (s *DocumentStore) Load(ctx context.Context) (datastore.Document, error) {
	v, err := s.cache.GetOrLoad(ctx, documentCacheKey, s.ttl, func(ctx context.Context) (any, error) {
		doc, err := s.next.Load(ctx)
		if err != nil {
			return nil, err
		}
		return doc.Clone(), nil
	})
	if err != nil {
		return datastore.Document{}, err
	}

	doc, _ := v.(datastore.Document)
	return doc.Clone(), nil
}

func (s *DocumentStore) Save(ctx context.Context, doc datastore.Document) error {
	if err := s.next.Save(ctx, doc); err != nil {
		s.cache.Delete(ctx, documentCacheKey)
		return err
	}
	s.cache.Set(ctx, documentCacheKey, doc.Clone())
	return nil
}
