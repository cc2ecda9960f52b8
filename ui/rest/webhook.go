package rest

import (
	"context"
	"encoding/json"

	domainWebhook "github.com/AzielCF/az-funnel/domains/webhook"
	"github.com/AzielCF/az-funnel/pkg/msgworker"
	"github.com/AzielCF/az-funnel/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	eventReceived   = "EVENT_RECEIVED"
)

type Webhook struct {
	Service   domainWebhook.IWebhookUsecase
	AppSecret string
	// Pool runs events off the request path. Nil means synchronous handling.
	Pool *msgworker.Pool
}

func InitRestWebhook(app fiber.Router, service domainWebhook.IWebhookUsecase, appSecret string, pool *msgworker.Pool) Webhook {
	rest := Webhook{Service: service, AppSecret: appSecret, Pool: pool}
	app.Get("/webhook", rest.Verify)
	app.Post("/webhook", rest.Receive)
	return rest
}

func (h *Webhook) Verify(c *fiber.Ctx) error {
	challenge, err := h.Service.Verify(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		logrus.Warnf("[WEBHOOK] verification rejected from %s", c.IP())
		return c.SendStatus(fiber.StatusForbidden)
	}
	return c.Status(fiber.StatusOK).SendString(challenge)
}

// Receive always acknowledges with 200 so the platform does not redeliver.
func (h *Webhook) Receive(c *fiber.Ctx) error {
	traceID := uuid.NewString()
	log := logrus.WithField("trace_id", traceID)

	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("[WEBHOOK] panic while handling event: %v", r)
			}
		}()
		h.receive(c, traceID, log)
	}()

	return c.Status(fiber.StatusOK).SendString(eventReceived)
}

func (h *Webhook) receive(c *fiber.Ctx, traceID string, log *logrus.Entry) {
	body := c.Body()

	if h.AppSecret != "" && !utils.VerifyHubSignature(body, c.Get(signatureHeader), h.AppSecret) {
		log.Warn("[WEBHOOK] signature mismatch, event dropped")
		return
	}

	var payload domainWebhook.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.WithError(err).Warn("[WEBHOOK] malformed payload")
		return
	}

	evt := payload.Extract()
	if evt.Kind == domainWebhook.EventNone {
		log.Debug("[WEBHOOK] no message or status in delivery")
		return
	}

	handle := func(ctx context.Context) error {
		return h.Service.Handle(ctx, evt)
	}

	if h.Pool == nil {
		if err := handle(c.UserContext()); err != nil {
			log.WithError(err).Error("[WEBHOOK] failed to handle event")
		}
		return
	}

	job := msgworker.Job{
		PhoneNumberID: evt.PhoneNumberID,
		Contact:       evt.Sender(),
		TraceID:       traceID,
		Handler:       handle,
	}
	if evt.Kind == domainWebhook.EventStatus && evt.Status != nil {
		job.Contact = evt.Status.RecipientID
	}
	if !h.Pool.TryDispatch(job) {
		log.Warn("[WEBHOOK] worker pool rejected event")
	}
}
