package repository

import (
	"context"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
)

// PredictionCache stores labels of previously classified texts
type PredictionCache interface {
	// Get returns the cached label and whether it was found
	Get(ctx context.Context, key string) (entity.Sentiment, bool, error)

	// Set stores a label under key
	Set(ctx context.Context, key string, sentiment entity.Sentiment) error

	// Ping checks the connection to the cache
	Ping(ctx context.Context) error
}
