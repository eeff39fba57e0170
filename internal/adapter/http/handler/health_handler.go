package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/repository"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/service"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	classifier service.Classifier
	cache      repository.PredictionCache
}

// NewHealthHandler creates a new health handler. cache may be nil.
func NewHealthHandler(classifier service.Classifier, cache repository.PredictionCache) *HealthHandler {
	return &HealthHandler{
		classifier: classifier,
		cache:      cache,
	}
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Health handles GET /health. The cache is optional, so a cache failure
// degrades the service instead of failing it.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	// Check model
	if h.classifier != nil && h.classifier.Ready() {
		components["model"] = "ok"
	} else {
		components["model"] = "not ready"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	// Check Redis
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			components["redis"] = "error: " + err.Error()
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			components["redis"] = "ok"
		}
	} else {
		components["redis"] = "not configured"
	}

	c.JSON(httpStatus, HealthStatus{
		Status:     status,
		Components: components,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.classifier == nil || !h.classifier.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "model not loaded"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
