package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/repository"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/service"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/metrics"
)

// Error definitions for predict usecase
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInferenceTimeout = errors.New("inference timed out")
	ErrModelNotReady    = errors.New("model not ready")
)

// PredictInput represents the input for a prediction. Text is a pointer so
// that an empty string is accepted while a missing field is not.
type PredictInput struct {
	Text *string `json:"text" binding:"required"`
}

// PredictOutput represents the output of a prediction
type PredictOutput struct {
	Sentiment entity.Sentiment `json:"sentiment"`
}

// PredictUsecase defines the interface for prediction business logic
type PredictUsecase interface {
	Predict(ctx context.Context, input *PredictInput) (*PredictOutput, error)
}

// predictUsecase implements PredictUsecase
type predictUsecase struct {
	classifier service.Classifier
	cache      repository.PredictionCache
	timeout    time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewPredictUsecase creates a new predict usecase. cache may be nil and a
// zero timeout disables the inference deadline.
func NewPredictUsecase(
	classifier service.Classifier,
	cache repository.PredictionCache,
	timeout time.Duration,
	logger *zap.Logger,
	m *metrics.Metrics,
) PredictUsecase {
	return &predictUsecase{
		classifier: classifier,
		cache:      cache,
		timeout:    timeout,
		logger:     logger,
		metrics:    m,
	}
}

func (u *predictUsecase) Predict(ctx context.Context, input *PredictInput) (*PredictOutput, error) {
	if input == nil || input.Text == nil {
		return nil, ErrInvalidRequest
	}
	if !u.classifier.Ready() {
		return nil, ErrModelNotReady
	}

	text := *input.Text
	key := CacheKey(u.classifier.Info(), text)

	if sentiment, ok := u.lookup(ctx, key); ok {
		u.metrics.ObservePrediction(string(sentiment))
		return &PredictOutput{Sentiment: sentiment}, nil
	}

	inferCtx := ctx
	if u.timeout > 0 {
		var cancel context.CancelFunc
		inferCtx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	sentiment, err := u.classifier.Classify(inferCtx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrInferenceTimeout
		}
		return nil, err
	}

	u.store(ctx, key, sentiment)
	u.metrics.ObservePrediction(string(sentiment))

	return &PredictOutput{Sentiment: sentiment}, nil
}

func (u *predictUsecase) lookup(ctx context.Context, key string) (entity.Sentiment, bool) {
	if u.cache == nil {
		return "", false
	}

	sentiment, ok, err := u.cache.Get(ctx, key)
	if err != nil {
		u.logger.Warn("Prediction cache lookup failed", zap.Error(err))
		u.metrics.ObserveCache(metrics.CacheError)
		return "", false
	}
	if !ok {
		u.metrics.ObserveCache(metrics.CacheMiss)
		return "", false
	}

	u.metrics.ObserveCache(metrics.CacheHit)
	return sentiment, true
}

func (u *predictUsecase) store(ctx context.Context, key string, sentiment entity.Sentiment) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Set(ctx, key, sentiment); err != nil {
		u.logger.Warn("Failed to cache prediction", zap.Error(err))
	}
}

// CacheKey derives the cache key of a text for one deployed model. Every
// part of info that can change a prediction is hashed, so entries written by
// a different checkpoint, backend or label order are never served.
func CacheKey(info service.ModelInfo, text string) string {
	h := sha256.New()
	for _, part := range []string{
		info.Name,
		info.Backend,
		info.Revision,
		string(info.Labels[0]),
		string(info.Labels[1]),
		strconv.Itoa(info.VocabSize),
		strconv.Itoa(info.MaxSequenceLength),
		text,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
