package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMLClient_Infer(t *testing.T) {
	t.Run("successful inference", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/models/bert_sentiment/infer", r.URL.Path)
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req InferRequest
			err := json.NewDecoder(r.Body).Decode(&req)
			require.NoError(t, err)
			require.Len(t, req.Inputs, 1)
			assert.Equal(t, InputIDsTensor, req.Inputs[0].Name)
			assert.Equal(t, []int64{1, 3}, req.Inputs[0].Shape)
			assert.Equal(t, "req-123", req.ID)

			resp := InferResponse{
				ModelName: "bert_sentiment",
				ID:        req.ID,
				Outputs: []InferTensor{
					{Name: LogitsTensor, Shape: []int64{1, 2}, Datatype: "FP32", Data: []float64{-1.5, 2.5}},
				},
			}
			w.Header().Set("Content-Type", "application/json")
			err = json.NewEncoder(w).Encode(resp)
			require.NoError(t, err)
		}))
		defer server.Close()

		client := NewMLClient(server.URL, "bert_sentiment", 5*time.Second)
		result, err := client.Infer(context.Background(), &InferRequest{
			ID:     "req-123",
			Inputs: []InferTensor{int64Tensor(InputIDsTensor, []int32{101, 2293, 102})},
		})

		require.NoError(t, err)
		assert.Equal(t, "bert_sentiment", result.ModelName)
		out, ok := result.Output(LogitsTensor)
		require.True(t, ok)
		assert.Equal(t, []float64{-1.5, 2.5}, out.Data)

		_, ok = result.Output("missing")
		assert.False(t, ok)
	})

	t.Run("server error with protocol body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, err := w.Write([]byte(`{"error":"unexpected shape for input 'input_ids'"}`))
			require.NoError(t, err)
		}))
		defer server.Close()

		client := NewMLClient(server.URL, "bert_sentiment", 5*time.Second)
		_, err := client.Infer(context.Background(), &InferRequest{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "400")
		assert.Contains(t, err.Error(), "unexpected shape")
	})

	t.Run("server error with plain body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, err := w.Write([]byte("internal error"))
			require.NoError(t, err)
		}))
		defer server.Close()

		client := NewMLClient(server.URL, "bert_sentiment", 5*time.Second)
		_, err := client.Infer(context.Background(), &InferRequest{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "500")
		assert.Contains(t, err.Error(), "internal error")
	})

	t.Run("invalid response body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := NewMLClient(server.URL, "bert_sentiment", 5*time.Second)
		_, err := client.Infer(context.Background(), &InferRequest{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "decode")
	})

	t.Run("connection error", func(t *testing.T) {
		client := NewMLClient("http://localhost:99999", "bert_sentiment", 1*time.Second)
		_, err := client.Infer(context.Background(), &InferRequest{})

		assert.Error(t, err)
	})
}

func TestMLClient_Metadata(t *testing.T) {
	t.Run("returns metadata", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/models/bert_sentiment", r.URL.Path)
			assert.Equal(t, "GET", r.Method)

			meta := ModelMetadata{
				Name:     "bert_sentiment",
				Platform: "onnxruntime_onnx",
				Versions: []string{"1"},
				Outputs:  []TensorMetadata{{Name: LogitsTensor, Datatype: "FP32", Shape: []int64{-1, 2}}},
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(meta)
		}))
		defer server.Close()

		client := NewMLClient(server.URL+"/", "bert_sentiment", 5*time.Second)
		meta, err := client.Metadata(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "bert_sentiment", meta.Name)
		assert.Equal(t, "onnxruntime_onnx", meta.Platform)
		require.Len(t, meta.Outputs, 1)
		assert.Equal(t, []int64{-1, 2}, meta.Outputs[0].Shape)
	})

	t.Run("unknown model", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewMLClient(server.URL, "bert_sentiment", 5*time.Second)
		_, err := client.Metadata(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestMLClient_Ready(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/models/bert_sentiment/ready", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewMLClient(server.URL, "bert_sentiment", 5*time.Second)
		err := client.Ready(context.Background())

		assert.NoError(t, err)
	})

	t.Run("not ready", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewMLClient(server.URL, "bert_sentiment", 5*time.Second)
		err := client.Ready(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("connection error", func(t *testing.T) {
		client := NewMLClient("http://localhost:99999", "bert_sentiment", 1*time.Second)
		err := client.Ready(context.Background())

		assert.Error(t, err)
	})
}

func TestMLClient_Model(t *testing.T) {
	client := NewMLClient("http://localhost:8001", "bert_sentiment", time.Second)
	assert.Equal(t, "bert_sentiment", client.Model())
	assert.Equal(t, "http://localhost:8001/v2/models/bert_sentiment/ready", client.modelURL("ready"))
	assert.Equal(t, "http://localhost:8001/v2/models/bert_sentiment", client.modelURL(""))
}
