package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func serveHealth(h *HealthHandler, path string) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)

	req, _ := http.NewRequest("GET", path, http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthHandler_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("healthy without cache", func(t *testing.T) {
		classifier := new(MockClassifier)
		classifier.On("Ready").Return(true)

		w := serveHealth(NewHealthHandler(classifier, nil), "/health")

		assert.Equal(t, http.StatusOK, w.Code)

		var status HealthStatus
		err := json.Unmarshal(w.Body.Bytes(), &status)
		require.NoError(t, err)
		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "ok", status.Components["model"])
		assert.Equal(t, "not configured", status.Components["redis"])
	})

	t.Run("healthy with cache", func(t *testing.T) {
		classifier := new(MockClassifier)
		classifier.On("Ready").Return(true)
		cache := new(MockPredictionCache)
		cache.On("Ping", mock.Anything).Return(nil)

		w := serveHealth(NewHealthHandler(classifier, cache), "/health")

		assert.Equal(t, http.StatusOK, w.Code)

		var status HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "ok", status.Components["redis"])
	})

	t.Run("cache failure degrades", func(t *testing.T) {
		classifier := new(MockClassifier)
		classifier.On("Ready").Return(true)
		cache := new(MockPredictionCache)
		cache.On("Ping", mock.Anything).Return(errors.New("connection refused"))

		w := serveHealth(NewHealthHandler(classifier, cache), "/health")

		assert.Equal(t, http.StatusOK, w.Code)

		var status HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "degraded", status.Status)
		assert.Equal(t, "error: connection refused", status.Components["redis"])
	})

	t.Run("unhealthy when model not ready", func(t *testing.T) {
		classifier := new(MockClassifier)
		classifier.On("Ready").Return(false)

		w := serveHealth(NewHealthHandler(classifier, nil), "/health")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var status HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "unhealthy", status.Status)
		assert.Equal(t, "not ready", status.Components["model"])
	})
}

func TestHealthHandler_Ready(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ready when model loaded", func(t *testing.T) {
		classifier := new(MockClassifier)
		classifier.On("Ready").Return(true)

		w := serveHealth(NewHealthHandler(classifier, nil), "/ready")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status": "ready"}`, w.Body.String())
	})

	t.Run("not ready without model", func(t *testing.T) {
		w := serveHealth(NewHealthHandler(nil, nil), "/ready")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "not ready")
	})
}
