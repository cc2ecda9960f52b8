package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domainMedia "github.com/AzielCF/az-funnel/domains/media"
	"github.com/AzielCF/az-funnel/infrastructure/valkey"
)

// ValkeyMediaStore shares the media slot between replicas. Expiry is left to
// Valkey via SET EX.
type ValkeyMediaStore struct {
	client *valkey.Client
	key    string
}

func NewValkeyMediaStore(client *valkey.Client) *ValkeyMediaStore {
	return &ValkeyMediaStore{
		client: client,
		key:    client.Key("media", "video"),
	}
}

func (s *ValkeyMediaStore) Get(ctx context.Context) (*domainMedia.CacheEntry, error) {
	inner := s.client.Inner()
	data, err := inner.Do(ctx, inner.B().Get().Key(s.key).Build()).AsBytes()
	if err != nil {
		if valkey.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get media cache: %w", err)
	}

	var entry domainMedia.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal media cache: %w", err)
	}
	return &entry, nil
}

func (s *ValkeyMediaStore) Save(ctx context.Context, entry *domainMedia.CacheEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal media cache: %w", err)
	}

	inner := s.client.Inner()
	cmd := inner.B().Set().Key(s.key).Value(string(data)).Ex(ttl).Build()
	if err := inner.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save media cache: %w", err)
	}
	return nil
}

func (s *ValkeyMediaStore) Delete(ctx context.Context) error {
	inner := s.client.Inner()
	if err := inner.Do(ctx, inner.B().Del().Key(s.key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete media cache: %w", err)
	}
	return nil
}
