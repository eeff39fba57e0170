package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/usecase"
)

// PredictHandler handles sentiment prediction requests
type PredictHandler struct {
	predictUC usecase.PredictUsecase
}

// NewPredictHandler creates a new predict handler
func NewPredictHandler(predictUC usecase.PredictUsecase) *PredictHandler {
	return &PredictHandler{predictUC: predictUC}
}

// Predict handles POST /predict. The success body is the bare
// {"sentiment": ...} object, not the response envelope.
func (h *PredictHandler) Predict(c *gin.Context) {
	var input usecase.PredictInput
	if err := c.ShouldBindJSON(&input); err != nil {
		HandleValidationError(c, err)
		return
	}

	output, err := h.predictUC.Predict(c.Request.Context(), &input)
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}
