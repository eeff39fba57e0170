package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/adapter/http/middleware"
)

// retryAfterSeconds is advertised on 503 while the model is unavailable
const retryAfterSeconds = 5

// Envelope wraps errors and model metadata. A successful prediction is the
// exception: it is written as the bare {"sentiment": ...} object.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Meta    Meta       `json:"meta"`
}

// ErrorBody is the client-facing part of an ErrorResponse
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta ties a response to its request
type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

func metaFor(c *gin.Context) Meta {
	id := c.GetString(middleware.RequestIDKey)
	if id == "" {
		id = uuid.NewString()
	}
	return Meta{Timestamp: time.Now().UTC().Format(time.RFC3339), RequestID: id}
}

func writeData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Meta: metaFor(c)})
}

func writeError(c *gin.Context, e ErrorResponse) {
	if e.StatusCode == http.StatusServiceUnavailable {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	c.JSON(e.StatusCode, Envelope{
		Error: &ErrorBody{Code: e.Code, Message: e.Message},
		Meta:  metaFor(c),
	})
}
