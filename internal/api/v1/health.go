package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lessonpay/lessonpay/internal/api/dto"
	"github.com/lessonpay/lessonpay/internal/config"
	"github.com/lessonpay/lessonpay/internal/logger"
)

type HealthHandler struct {
	config *config.Configuration
	logger *logger.Logger
}

func NewHealthHandler(
	config *config.Configuration,
	logger *logger.Logger,
) *HealthHandler {
	return &HealthHandler{
		config: config,
		logger: logger,
	}
}

// Health reports liveness and the active plan mode
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status: "ok",
		Mode:   string(h.config.PlanMode()),
	})
}
