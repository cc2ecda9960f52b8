package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	domainWebhook "github.com/AzielCF/az-funnel/domains/webhook"
	pkgError "github.com/AzielCF/az-funnel/pkg/error"
	"github.com/AzielCF/az-funnel/pkg/msgworker"
	"github.com/AzielCF/az-funnel/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWebhookService struct {
	mu      sync.Mutex
	events  []domainWebhook.InboundEvent
	handled chan struct{}
	panics  bool
}

func (f *fakeWebhookService) Verify(mode, token, challenge string) (string, error) {
	if mode == "subscribe" && token == "secret" {
		return challenge, nil
	}
	return "", pkgError.ForbiddenError("webhook verification failed")
}

func (f *fakeWebhookService) Handle(ctx context.Context, evt domainWebhook.InboundEvent) error {
	if f.panics {
		panic("handler exploded")
	}
	f.mu.Lock()
	f.events = append(f.events, evt)
	f.mu.Unlock()
	if f.handled != nil {
		f.handled <- struct{}{}
	}
	return nil
}

func (f *fakeWebhookService) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

const textDelivery = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550001111", "phone_number_id": "1029384756"},
        "contacts": [{"wa_id": "5511999", "profile": {"name": "Ana"}}],
        "messages": [{"from": "5511999", "id": "wamid.1", "timestamp": "1700000000", "type": "text", "text": {"body": "oi"}}]
      }
    }]
  }]
}`

func newWebhookApp(svc domainWebhook.IWebhookUsecase, secret string, pool *msgworker.Pool) *fiber.App {
	app := fiber.New()
	InitRestWebhook(app, svc, secret, pool)
	return app
}

func postDelivery(t *testing.T, app *fiber.App, body string, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestWebhookVerify(t *testing.T) {
	app := newWebhookApp(&fakeWebhookService{}, "", nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=1158201444", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1158201444", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=1", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebhookReceive_Sync(t *testing.T) {
	svc := &fakeWebhookService{}
	app := newWebhookApp(svc, "", nil)

	status, body := postDelivery(t, app, textDelivery, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "EVENT_RECEIVED", body)

	require.Equal(t, 1, svc.count())
	evt := svc.events[0]
	assert.Equal(t, domainWebhook.EventMessage, evt.Kind)
	assert.Equal(t, "5511999", evt.Sender())
	assert.Equal(t, "oi", evt.TextBody())
	assert.Equal(t, "1029384756", evt.PhoneNumberID)
	assert.Equal(t, "Ana", evt.ContactName)
}

func TestWebhookReceive_AlwaysAcknowledges(t *testing.T) {
	svc := &fakeWebhookService{}
	app := newWebhookApp(svc, "", nil)

	for _, body := range []string{`{not json`, `{}`, `{"entry":[]}`, ``} {
		status, resp := postDelivery(t, app, body, nil)
		assert.Equal(t, http.StatusOK, status, body)
		assert.Equal(t, "EVENT_RECEIVED", resp)
	}
	assert.Zero(t, svc.count())
}

func TestWebhookReceive_PanicStillAcknowledges(t *testing.T) {
	app := newWebhookApp(&fakeWebhookService{panics: true}, "", nil)

	status, _ := postDelivery(t, app, textDelivery, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestWebhookReceive_Signature(t *testing.T) {
	svc := &fakeWebhookService{}
	app := newWebhookApp(svc, "app-secret", nil)

	status, _ := postDelivery(t, app, textDelivery, map[string]string{"X-Hub-Signature-256": "sha256=deadbeef"})
	assert.Equal(t, http.StatusOK, status)
	assert.Zero(t, svc.count(), "bad signature drops the event")

	status, _ = postDelivery(t, app, textDelivery, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Zero(t, svc.count(), "missing signature drops the event")

	sig, err := utils.GetMessageDigestOrSignature([]byte(textDelivery), []byte("app-secret"))
	require.NoError(t, err)
	status, _ = postDelivery(t, app, textDelivery, map[string]string{"X-Hub-Signature-256": "sha256=" + sig})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, svc.count())
}

func TestWebhookReceive_Async(t *testing.T) {
	pool := msgworker.NewPool(2, 10, time.Second)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	svc := &fakeWebhookService{handled: make(chan struct{}, 1)}
	app := newWebhookApp(svc, "", pool)

	status, _ := postDelivery(t, app, textDelivery, nil)
	assert.Equal(t, http.StatusOK, status)

	select {
	case <-svc.handled:
	case <-time.After(time.Second):
		t.Fatal("event was not handled by the worker pool")
	}
	assert.Equal(t, int64(1), pool.Stats().TotalDispatched)
}
