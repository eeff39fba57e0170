package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Tensor names exchanged with the inference server
const (
	InputIDsTensor      = "input_ids"
	AttentionMaskTensor = "attention_mask"
	TokenTypeIDsTensor  = "token_type_ids"
	LogitsTensor        = "logits"
)

// InferTensor is one input or output tensor of the KServe v2 protocol
type InferTensor struct {
	Name     string    `json:"name"`
	Shape    []int64   `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float64 `json:"data"`
}

// RequestedOutput names an output the caller wants back
type RequestedOutput struct {
	Name string `json:"name"`
}

// InferRequest represents a request to the inference server
type InferRequest struct {
	ID      string            `json:"id,omitempty"`
	Inputs  []InferTensor     `json:"inputs"`
	Outputs []RequestedOutput `json:"outputs,omitempty"`
}

// InferResponse represents the response from the inference server
type InferResponse struct {
	ModelName    string        `json:"model_name"`
	ModelVersion string        `json:"model_version,omitempty"`
	ID           string        `json:"id,omitempty"`
	Outputs      []InferTensor `json:"outputs"`
}

// Output returns the output tensor called name
func (r *InferResponse) Output(name string) (*InferTensor, bool) {
	for i := range r.Outputs {
		if r.Outputs[i].Name == name {
			return &r.Outputs[i], true
		}
	}
	return nil, false
}

// TensorMetadata describes a model input or output
type TensorMetadata struct {
	Name     string  `json:"name"`
	Datatype string  `json:"datatype"`
	Shape    []int64 `json:"shape"`
}

// ModelMetadata represents the model metadata response
type ModelMetadata struct {
	Name     string           `json:"name"`
	Versions []string         `json:"versions,omitempty"`
	Platform string           `json:"platform"`
	Inputs   []TensorMetadata `json:"inputs"`
	Outputs  []TensorMetadata `json:"outputs"`
}

// errorResponse is the error body of the protocol
type errorResponse struct {
	Error string `json:"error"`
}

// MLClient is an HTTP client for a KServe v2 compatible inference server
// such as Triton or KServe.
type MLClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewMLClient creates a new inference server client
func NewMLClient(baseURL, model string, timeout time.Duration) *MLClient {
	return &MLClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Model returns the model name requests are routed to
func (c *MLClient) Model() string {
	return c.model
}

// Infer runs one inference request
func (c *MLClient) Infer(ctx context.Context, reqBody *InferRequest) (*InferResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL("infer"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result InferResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// Metadata fetches the model metadata
func (c *MLClient) Metadata(ctx context.Context) (*ModelMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL(""), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result ModelMetadata
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// Ready checks if the model is ready to serve
func (c *MLClient) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL("ready"), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model %s not ready: status %d", c.model, resp.StatusCode)
	}

	return nil
}

func (c *MLClient) modelURL(action string) string {
	u := c.baseURL + "/v2/models/" + url.PathEscape(c.model)
	if action != "" {
		u += "/" + action
	}
	return u
}

func statusError(resp *http.Response) error {
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(respBody) == 0 {
		return fmt.Errorf("inference server returned status %d", resp.StatusCode)
	}

	var e errorResponse
	if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
		return fmt.Errorf("inference server returned status %d: %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("inference server returned status %d: %s", resp.StatusCode, string(respBody))
}
