package repository

import (
	"context"
	"time"

	domainMedia "github.com/AzielCF/az-funnel/domains/media"
	gocache "github.com/patrickmn/go-cache"
)

const mediaSlotKey = "media:video"

// MemoryMediaStore keeps the media slot in process memory.
// Used when Valkey is not enabled.
type MemoryMediaStore struct {
	cache *gocache.Cache
}

func NewMemoryMediaStore() *MemoryMediaStore {
	return &MemoryMediaStore{cache: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (s *MemoryMediaStore) Get(ctx context.Context) (*domainMedia.CacheEntry, error) {
	v, ok := s.cache.Get(mediaSlotKey)
	if !ok {
		return nil, nil
	}
	entry := v.(domainMedia.CacheEntry)
	return &entry, nil
}

func (s *MemoryMediaStore) Save(ctx context.Context, entry *domainMedia.CacheEntry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s.cache.Set(mediaSlotKey, *entry, ttl)
	return nil
}

func (s *MemoryMediaStore) Delete(ctx context.Context) error {
	s.cache.Delete(mediaSlotKey)
	return nil
}
