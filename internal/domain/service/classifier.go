package service

import (
	"context"
	"errors"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
)

// Error kinds shared by the model host and its backends
var (
	// ErrModelLoad marks a startup failure: missing, corrupt or shape-incompatible model
	ErrModelLoad = errors.New("model load failed")

	// ErrInference marks a per-request tokenizer or forward-pass failure
	ErrInference = errors.New("inference failed")
)

// ModelInfo describes the loaded model
type ModelInfo struct {
	Name              string        `json:"name"`
	Backend           string        `json:"backend"`
	Revision          string        `json:"revision"`
	VocabSize         int           `json:"vocab_size"`
	MaxSequenceLength int           `json:"max_sequence_length"`
	Labels            entity.Labels `json:"labels"`
}

// Classifier defines the interface for sentiment classification
type Classifier interface {
	// Classify returns the sentiment of a single text
	Classify(ctx context.Context, text string) (entity.Sentiment, error)

	// Ready reports whether the model is loaded and serving
	Ready() bool

	// Info describes the loaded model
	Info() ModelInfo
}

// Tokenizer converts raw text into a model encoding
type Tokenizer interface {
	Encode(text string) (*entity.Encoding, error)
	VocabSize() int
	MaxSequenceLength() int
}

// InferenceBackend runs the forward pass of a two-class model.
// Implementations must be safe for concurrent use.
type InferenceBackend interface {
	// Forward returns the two logits for one encoding
	Forward(ctx context.Context, enc *entity.Encoding) (entity.Logits, error)

	// Name identifies the backend kind (native, remote)
	Name() string

	// Revision identifies the loaded weights, such as a checkpoint digest
	Revision() string

	// Close releases any resources held by the backend
	Close() error
}
