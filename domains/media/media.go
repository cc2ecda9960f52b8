package media

import (
	"context"
	"time"
)

// CacheEntry is the single cached upload: the platform media id, the URL its
// bytes came from and when it was uploaded.
type CacheEntry struct {
	MediaID   string    `json:"media_id"`
	SourceURL string    `json:"source_url"`
	FetchedAt time.Time `json:"fetched_at"`
}

// ValidAt reports whether the entry can still be used for sourceURL at now.
func (e *CacheEntry) ValidAt(now time.Time, sourceURL string, ttl time.Duration) bool {
	if e == nil || e.MediaID == "" {
		return false
	}
	if e.SourceURL != sourceURL {
		return false
	}
	return now.Sub(e.FetchedAt) < ttl
}

// IMediaStore holds one CacheEntry. Save overwrites it.
type IMediaStore interface {
	Get(ctx context.Context) (*CacheEntry, error)
	Save(ctx context.Context, entry *CacheEntry, ttl time.Duration) error
	Delete(ctx context.Context) error
}

type UploadRequest struct {
	Data     []byte
	Filename string
	MimeType string
}

// IMediaTransport fetches raw media and uploads it to the platform.
type IMediaTransport interface {
	Download(ctx context.Context, url string, limit int64) ([]byte, error)
	UploadMedia(ctx context.Context, req UploadRequest) (string, error)
}

type IMediaUsecase interface {
	// Resolve returns a reusable media id for sourceURL, uploading when the cache misses.
	Resolve(ctx context.Context, sourceURL string) (string, error)
	Invalidate(ctx context.Context) error
	// SendVideo sends sourceURL as an uploaded video, re-uploading and retrying once on failure.
	SendVideo(ctx context.Context, to, sourceURL, caption string) (string, error)
	Status(ctx context.Context) (*CacheEntry, error)
}
