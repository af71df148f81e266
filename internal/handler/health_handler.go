package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/config"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/utils"
)

var processStart = time.Now()

// HealthResponse is the payload served at /api/v1/health.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	UptimeSecs  int64     `json:"uptime_seconds"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// HealthCheck reports liveness. It deliberately does not touch the
// database or the execution backend; readiness of those shows up in the
// metrics instead.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "service healthy", HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			UptimeSecs:  int64(time.Since(processStart).Seconds()),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		})
	}
}
