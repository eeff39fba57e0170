package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/service"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/usecase"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	StatusCode int
	Code       string
	Message    string
}

// MapUsecaseError maps usecase errors to HTTP error responses.
// Messages are fixed strings so internal details never reach the client.
func MapUsecaseError(err error) ErrorResponse {
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		return ErrorResponse{
			StatusCode: http.StatusUnprocessableEntity,
			Code:       "VALIDATION_ERROR",
			Message:    "field 'text' is required",
		}
	case errors.Is(err, usecase.ErrModelNotReady):
		return ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Code:       "MODEL_NOT_READY",
			Message:    "model is not ready",
		}
	case errors.Is(err, usecase.ErrInferenceTimeout):
		return ErrorResponse{
			StatusCode: http.StatusGatewayTimeout,
			Code:       "INFERENCE_TIMEOUT",
			Message:    "inference timed out",
		}
	case errors.Is(err, service.ErrInference):
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       "INFERENCE_ERROR",
			Message:    "inference failed",
		}
	default:
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       "INTERNAL_ERROR",
			Message:    "internal server error",
		}
	}
}

// HandleUsecaseError handles a usecase error by sending an appropriate HTTP response.
func HandleUsecaseError(c *gin.Context, err error) {
	errResp := MapUsecaseError(err)
	if errResp.StatusCode >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	writeError(c, errResp)
}

// HandleValidationError responds 422 with a description of the bad field
func HandleValidationError(c *gin.Context, err error) {
	writeError(c, ErrorResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "VALIDATION_ERROR",
		Message:    DescribeBindError(err),
	})
}
