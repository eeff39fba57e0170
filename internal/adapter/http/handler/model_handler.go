package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/service"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/usecase"
)

// ModelHandler exposes metadata about the loaded model
type ModelHandler struct {
	classifier service.Classifier
}

// NewModelHandler creates a new model handler
func NewModelHandler(classifier service.Classifier) *ModelHandler {
	return &ModelHandler{classifier: classifier}
}

// Info handles GET /api/v1/model
func (h *ModelHandler) Info(c *gin.Context) {
	if !h.classifier.Ready() {
		writeError(c, MapUsecaseError(usecase.ErrModelNotReady))
		return
	}

	writeData(c, h.classifier.Info())
}
