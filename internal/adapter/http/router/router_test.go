package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/metrics"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/model"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/tokenizer"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testVocab = "[PAD]\n[UNK]\n[CLS]\n[SEP]\nlove\nterrible\n"

// setupRouter wires the real tokenizer and native model. Dimension 0 of the
// embedding carries positive evidence and dimension 1 negative evidence.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()

	vocab, err := tokenizer.LoadVocab(strings.NewReader(testVocab))
	require.NoError(t, err)
	tok, err := tokenizer.New(vocab, tokenizer.Options{MaxSequenceLength: 16, Lowercase: true})
	require.NoError(t, err)

	ckpt := &model.Checkpoint{Tensors: map[string]*model.Tensor{
		model.EmbeddingsWeight: {Name: model.EmbeddingsWeight, DType: model.DTypeF32, Shape: []int{6, 2}, Data: []float32{
			0, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 3,
		}},
		model.ClassifierWeight: {Name: model.ClassifierWeight, DType: model.DTypeF32, Shape: []int{2, 2}, Data: []float32{
			-1, 1,
			1, -1,
		}},
		model.ClassifierBias: {Name: model.ClassifierBias, DType: model.DTypeF32, Shape: []int{2}, Data: []float32{0, 0}},
	}}
	backend, err := model.NewClassifier(ckpt, vocab.Size())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger := zap.NewNop()

	host, err := usecase.NewModelHost("test-model", tok, backend, backend.Labels(), 2, logger, m)
	require.NoError(t, err)

	return Setup(Deps{
		Classifier: host,
		Predict:    usecase.NewPredictUsecase(host, nil, time.Second, logger, m),
		Metrics:    m,
		Gatherer:   reg,
		Logger:     logger,
	})
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Predict(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name     string
		body     string
		expected entity.Sentiment
	}{
		{"positive text", `{"text": "I love this!"}`, entity.SentimentPositive},
		{"negative text", `{"text": "This is terrible."}`, entity.SentimentNegative},
		{"uppercase is normalised", `{"text": "LOVE"}`, entity.SentimentPositive},
		{"empty text", `{"text": ""}`, entity.SentimentNegative},
		{"text beyond max length", `{"text": "` + strings.Repeat("love ", 100) + `"}`, entity.SentimentPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/predict", tt.body)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Len(t, body, 1)
			assert.Equal(t, string(tt.expected), body["sentiment"])
		})
	}

	t.Run("same text twice gives same label", func(t *testing.T) {
		first := doRequest(router, http.MethodPost, "/predict", `{"text": "love it or hate it"}`)
		second := doRequest(router, http.MethodPost, "/predict", `{"text": "love it or hate it"}`)

		assert.Equal(t, first.Body.String(), second.Body.String())
	})

	t.Run("versioned alias", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/v1/predict", `{"text": "terrible"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"sentiment": "negative"}`, w.Body.String())
	})

	t.Run("missing text", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/predict", `{}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("wrong method", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/predict", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRouter_Operational(t *testing.T) {
	router := setupRouter(t)

	t.Run("health", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"model":"ok"`)
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("ready", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/ready", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("model info", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/model", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"test-model"`)
		assert.Contains(t, w.Body.String(), `"backend":"native"`)
		assert.Contains(t, w.Body.String(), `"vocab_size":6`)
	})

	t.Run("metrics", func(t *testing.T) {
		doRequest(router, http.MethodPost, "/predict", `{"text": "love"}`)

		w := doRequest(router, http.MethodGet, "/metrics", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `sentiment_api_predictions_total{sentiment="positive"}`)
		assert.Contains(t, w.Body.String(), `sentiment_api_http_requests_total{method="POST",path="/predict",status="200"}`)
		assert.Contains(t, w.Body.String(), `sentiment_api_inference_duration_seconds_count{backend="native"}`)
	})
}
