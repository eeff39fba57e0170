package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/repository"
)

// KeyPrefix namespaces cached predictions
const KeyPrefix = "sentiment:prediction:"

// predictionCache implements repository.PredictionCache
type predictionCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewPredictionCache creates a new Redis prediction cache. A zero ttl keeps entries forever.
func NewPredictionCache(client *goredis.Client, ttl time.Duration) repository.PredictionCache {
	return &predictionCache{client: client, ttl: ttl}
}

// Get retrieves a cached label
func (c *predictionCache) Get(ctx context.Context, key string) (entity.Sentiment, bool, error) {
	raw, err := c.client.Get(ctx, KeyPrefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cached prediction: %w", err)
	}

	sentiment, err := entity.ParseSentiment(raw)
	if err != nil {
		// stale entry from an incompatible model, treat as a miss
		_ = c.client.Del(ctx, KeyPrefix+key).Err()
		return "", false, nil
	}

	return sentiment, true, nil
}

// Set stores a label
func (c *predictionCache) Set(ctx context.Context, key string, sentiment entity.Sentiment) error {
	if err := c.client.Set(ctx, KeyPrefix+key, string(sentiment), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache prediction: %w", err)
	}
	return nil
}

// Ping checks the connection
func (c *predictionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
