package usecase

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	domainMedia "github.com/AzielCF/az-funnel/domains/media"
	domainMessage "github.com/AzielCF/az-funnel/domains/message"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

type MediaOptions struct {
	TTL          time.Duration
	MaxVideoSize int64
	// Now overrides the clock, used by tests.
	Now func() time.Time
}

type mediaService struct {
	store     domainMedia.IMediaStore
	transport domainMedia.IMediaTransport
	sender    domainMessage.IMessageSender
	ttl       time.Duration
	maxSize   int64
	now       func() time.Time
}

func NewMediaService(store domainMedia.IMediaStore, transport domainMedia.IMediaTransport, sender domainMessage.IMessageSender, opts MediaOptions) domainMedia.IMediaUsecase {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &mediaService{
		store:     store,
		transport: transport,
		sender:    sender,
		ttl:       opts.TTL,
		maxSize:   opts.MaxVideoSize,
		now:       now,
	}
}

func (s *mediaService) Resolve(ctx context.Context, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", fmt.Errorf("media source url is empty")
	}

	entry, err := s.store.Get(ctx)
	if err != nil {
		// A broken cache only costs an upload.
		logrus.WithError(err).Warn("[MEDIA] failed to read cache")
	}
	if entry.ValidAt(s.now(), sourceURL, s.ttl) {
		logrus.Debugf("[MEDIA] cache hit id=%s age=%s", entry.MediaID, s.now().Sub(entry.FetchedAt).Round(time.Second))
		return entry.MediaID, nil
	}

	data, err := s.transport.Download(ctx, sourceURL, s.maxSize)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", sourceURL, err)
	}

	mediaID, err := s.transport.UploadMedia(ctx, domainMedia.UploadRequest{
		Data:     data,
		Filename: filenameFromURL(sourceURL),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", sourceURL, err)
	}

	fresh := &domainMedia.CacheEntry{MediaID: mediaID, SourceURL: sourceURL, FetchedAt: s.now()}
	if err := s.store.Save(ctx, fresh, s.ttl); err != nil {
		logrus.WithError(err).Warn("[MEDIA] failed to save cache")
	}
	logrus.Debugf("[MEDIA] cached %s (%s) as %s", sourceURL, humanize.Bytes(uint64(len(data))), mediaID)
	return mediaID, nil
}

func (s *mediaService) Invalidate(ctx context.Context) error {
	return s.store.Delete(ctx)
}

func (s *mediaService) SendVideo(ctx context.Context, to, sourceURL, caption string) (string, error) {
	msgID, err := s.sendVideoOnce(ctx, to, sourceURL, caption)
	if err == nil {
		return msgID, nil
	}

	logrus.WithError(err).Warnf("[MEDIA] video send to %s failed, re-uploading", to)
	if invErr := s.Invalidate(ctx); invErr != nil {
		logrus.WithError(invErr).Warn("[MEDIA] failed to invalidate cache")
	}

	return s.sendVideoOnce(ctx, to, sourceURL, caption)
}

func (s *mediaService) sendVideoOnce(ctx context.Context, to, sourceURL, caption string) (string, error) {
	mediaID, err := s.Resolve(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	return s.sender.Send(ctx, domainMessage.NewVideoByID(to, mediaID, caption))
}

func (s *mediaService) Status(ctx context.Context) (*domainMedia.CacheEntry, error) {
	return s.store.Get(ctx)
}

func filenameFromURL(raw string) string {
	name := "media"
	if u, err := url.Parse(raw); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	return name
}
