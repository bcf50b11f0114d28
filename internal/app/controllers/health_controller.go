package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/app/repositories"
)

// HealthController reports liveness and storage reachability
type HealthController struct {
	store   repositories.Store
	storage string
	logger  zerolog.Logger
}

// NewHealthController creates a new HealthController
func NewHealthController(store repositories.Store, storage string, logger zerolog.Logger) *HealthController {
	return &HealthController{
		store:   store,
		storage: storage,
		logger:  logger,
	}
}

// Health pings the store
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service healthy"
// @Failure 503 {object} dto.HealthResponse "Storage unreachable"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := c.store.Ping(pingCtx); err != nil {
		c.logger.Error().Err(err).Msg("Health check failed")
		ctx.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Storage: c.storage})
		return
	}

	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Storage: c.storage})
}
