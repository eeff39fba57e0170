package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/service"
)

// MockTokenizer is a mock implementation of service.Tokenizer
type MockTokenizer struct {
	mock.Mock
}

func (m *MockTokenizer) Encode(text string) (*entity.Encoding, error) {
	args := m.Called(text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Encoding), args.Error(1)
}

func (m *MockTokenizer) VocabSize() int {
	return m.Called().Int(0)
}

func (m *MockTokenizer) MaxSequenceLength() int {
	return m.Called().Int(0)
}

// MockBackend is a mock implementation of service.InferenceBackend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Forward(ctx context.Context, enc *entity.Encoding) (entity.Logits, error) {
	args := m.Called(ctx, enc)
	return args.Get(0).(entity.Logits), args.Error(1)
}

func (m *MockBackend) Name() string {
	return "mock"
}

func (m *MockBackend) Revision() string {
	return "mock-1"
}

func (m *MockBackend) Close() error {
	return m.Called().Error(0)
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
	args := m.Called(ctx, key, sentiment)
	return args.Error(0)
}

func (m *MockPredictionCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
