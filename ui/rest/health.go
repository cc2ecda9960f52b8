package rest

import (
	"time"

	domainConversation "github.com/AzielCF/az-funnel/domains/conversation"
	domainMedia "github.com/AzielCF/az-funnel/domains/media"
	"github.com/AzielCF/az-funnel/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Version      string
	Conversation domainConversation.IConversationUsecase
	Media        domainMedia.IMediaUsecase
	MediaTTL     time.Duration
	Settings     map[string]any
}

type mediaCacheState struct {
	MediaID   string    `json:"media_id"`
	SourceURL string    `json:"source_url"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresIn string    `json:"expires_in"`
}

func InitRestHealth(app fiber.Router, handler Health) Health {
	app.Get("/", handler.Liveness)
	app.Get("/api/health", handler.GetStatus)
	return handler
}

func (h *Health) Liveness(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	results := fiber.Map{
		"version":  h.Version,
		"settings": h.Settings,
	}

	if h.Conversation != nil {
		script := h.Conversation.Script()
		results["script"] = fiber.Map{
			"name":    script.Name,
			"replies": len(script.Replies),
		}
	}

	if h.Media != nil {
		entry, err := h.Media.Status(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(utils.ResponseData{
				Status:  500,
				Code:    "INTERNAL_SERVER_ERROR",
				Message: err.Error(),
			})
		}
		if entry != nil {
			remaining := h.MediaTTL - time.Since(entry.FetchedAt)
			if remaining < 0 {
				remaining = 0
			}
			results["media_cache"] = mediaCacheState{
				MediaID:   entry.MediaID,
				SourceURL: entry.SourceURL,
				FetchedAt: entry.FetchedAt,
				ExpiresIn: remaining.Round(time.Second).String(),
			}
		}
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: results,
	})
}
