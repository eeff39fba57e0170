package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/service"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/usecase"
)

// MockPredictUsecase is a mock implementation of usecase.PredictUsecase
type MockPredictUsecase struct {
	mock.Mock
}

func (m *MockPredictUsecase) Predict(ctx context.Context, input *usecase.PredictInput) (*usecase.PredictOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PredictOutput), args.Error(1)
}

// MockClassifier is a mock implementation of service.Classifier
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, text string) (entity.Sentiment, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(entity.Sentiment), args.Error(1)
}

func (m *MockClassifier) Ready() bool {
	return m.Called().Bool(0)
}

func (m *MockClassifier) Info() service.ModelInfo {
	return m.Called().Get(0).(service.ModelInfo)
}

// MockPredictionCache is a mock implementation of repository.PredictionCache
type MockPredictionCache struct {
	mock.Mock
}

func (m *MockPredictionCache) Get(ctx context.Context, key string) (entity.Sentiment, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(entity.Sentiment), args.Bool(1), args.Error(2)
}

func (m *MockPredictionCache) Set(ctx context.Context, key string, sentiment entity.Sentiment) error {
	return m.Called(ctx, key, sentiment).Error(0)
}

func (m *MockPredictionCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
