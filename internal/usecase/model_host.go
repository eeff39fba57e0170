package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/service"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/metrics"
)

// ModelHost owns the tokenizer and inference backend and implements
// service.Classifier. Both are treated as read-only after construction.
type ModelHost struct {
	name      string
	tokenizer service.Tokenizer
	backend   service.InferenceBackend
	labels    entity.Labels
	sem       *semaphore.Weighted
	logger    *zap.Logger
	metrics   *metrics.Metrics
	ready     atomic.Bool
}

// NewModelHost creates a ready model host. maxConcurrency bounds the number
// of forward passes running at once.
func NewModelHost(
	name string,
	tokenizer service.Tokenizer,
	backend service.InferenceBackend,
	labels entity.Labels,
	maxConcurrency int,
	logger *zap.Logger,
	m *metrics.Metrics,
) (*ModelHost, error) {
	if tokenizer == nil || backend == nil {
		return nil, fmt.Errorf("%w: tokenizer and backend are required", service.ErrModelLoad)
	}
	if err := labels.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrModelLoad, err)
	}
	if maxConcurrency < 1 {
		return nil, fmt.Errorf("%w: max concurrency must be positive, got %d", service.ErrModelLoad, maxConcurrency)
	}

	h := &ModelHost{
		name:      name,
		tokenizer: tokenizer,
		backend:   backend,
		labels:    labels,
		sem:       semaphore.NewWeighted(int64(maxConcurrency)),
		logger:    logger,
		metrics:   m,
	}
	h.ready.Store(true)

	return h, nil
}

// Classify returns the sentiment of text
func (h *ModelHost) Classify(ctx context.Context, text string) (sentiment entity.Sentiment, err error) {
	if !h.Ready() {
		return "", ErrModelNotReady
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		h.metrics.InferenceFailed(h.backend.Name(), failureReason(err))
		return "", err
	}
	defer h.sem.Release(1)

	defer h.metrics.InferenceStarted()()

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Recovered panic during inference",
				zap.String("backend", h.backend.Name()),
				zap.Any("panic", r),
			)
			h.metrics.InferenceFailed(h.backend.Name(), "panic")
			sentiment = ""
			err = fmt.Errorf("%w: panic: %v", service.ErrInference, r)
		}
	}()

	start := time.Now()

	enc, err := h.tokenizer.Encode(text)
	if err != nil {
		h.metrics.InferenceFailed(h.backend.Name(), "tokenizer")
		return "", fmt.Errorf("%w: tokenize: %v", service.ErrInference, err)
	}
	if enc.Truncated {
		h.logger.Debug("Input truncated to maximum sequence length",
			zap.Int("max_sequence_length", h.tokenizer.MaxSequenceLength()),
		)
	}

	logits, err := h.backend.Forward(ctx, enc)
	if err != nil {
		h.metrics.InferenceFailed(h.backend.Name(), failureReason(err))
		if isContextError(err) || errors.Is(err, service.ErrInference) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", service.ErrInference, err)
	}

	h.metrics.ObserveInference(h.backend.Name(), time.Since(start))

	sentiment, err = h.labels.ForIndex(logits.ArgMax())
	if err != nil {
		return "", fmt.Errorf("%w: %v", service.ErrInference, err)
	}

	return sentiment, nil
}

// Ready reports whether the host is serving
func (h *ModelHost) Ready() bool {
	return h.ready.Load()
}

// Info describes the loaded model
func (h *ModelHost) Info() service.ModelInfo {
	return service.ModelInfo{
		Name:              h.name,
		Backend:           h.backend.Name(),
		Revision:          h.backend.Revision(),
		VocabSize:         h.tokenizer.VocabSize(),
		MaxSequenceLength: h.tokenizer.MaxSequenceLength(),
		Labels:            h.labels,
	}
}

// Close stops serving and releases the backend
func (h *ModelHost) Close() error {
	if !h.ready.CompareAndSwap(true, false) {
		return nil
	}
	return h.backend.Close()
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "inference"
	}
}
