package rest

import (
	"github.com/AzielCF/az-funnel/pkg/msgworker"
	"github.com/AzielCF/az-funnel/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type WorkerPool struct {
	Pool *msgworker.Pool
}

func InitRestWorkerPool(app fiber.Router, pool *msgworker.Pool) WorkerPool {
	rest := WorkerPool{Pool: pool}
	app.Get("/api/worker-pool/stats", rest.GetStats)
	return rest
}

// GetStats returns real-time worker pool statistics.
func (h *WorkerPool) GetStats(c *fiber.Ctx) error {
	if h.Pool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ResponseData{
			Status:  503,
			Code:    "SERVICE_UNAVAILABLE",
			Message: "Async webhook dispatch is disabled",
		})
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Worker pool stats",
		Results: h.Pool.Stats(),
	})
}
