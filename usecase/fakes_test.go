package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainMedia "github.com/AzielCF/az-funnel/domains/media"
	domainMessage "github.com/AzielCF/az-funnel/domains/message"
)

var errSendFailed = errors.New("send failed")

// fakeSender records every message and fails the calls listed in failOn (1-based).
type fakeSender struct {
	mu     sync.Mutex
	sent   []domainMessage.OutboundMessage
	failOn map[int]bool
	calls  int
}

func (f *fakeSender) Send(ctx context.Context, msg domainMessage.OutboundMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn[f.calls] {
		return "", errSendFailed
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("wamid.%d", f.calls), nil
}

func (f *fakeSender) kinds() []domainMessage.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domainMessage.Kind, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Kind)
	}
	return out
}

type fakeTransport struct {
	mu        sync.Mutex
	downloads int
	uploads   int
	lastReq   domainMedia.UploadRequest
	dlErr     error
}

func (f *fakeTransport) Download(ctx context.Context, url string, limit int64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	if f.dlErr != nil {
		return nil, f.dlErr
	}
	return []byte("video-bytes"), nil
}

func (f *fakeTransport) UploadMedia(ctx context.Context, req domainMedia.UploadRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	f.lastReq = req
	return fmt.Sprintf("media-%d", f.uploads), nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
