package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/adapter/client"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/service"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/config"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/metrics"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/model"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/registry"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/tokenizer"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/usecase"
)

const registryTimeout = time.Minute

// newModelHost resolves the vocabulary, builds the tokenizer and loads the
// configured inference backend.
func newModelHost(ctx context.Context, cfg *config.Config, log *zap.Logger, m *metrics.Metrics) (*usecase.ModelHost, error) {
	vocabPath := cfg.Model.VocabPath
	if vocabPath == "" {
		hub := registry.NewHub(cfg.Model.RegistryURL, cfg.Model.CacheDir, registryTimeout, log)
		path, err := hub.ResolveVocab(ctx, cfg.Model.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: vocabulary: %v", service.ErrModelLoad, err)
		}
		vocabPath = path
	}

	tok, err := tokenizer.NewFromFile(vocabPath, tokenizer.Options{
		MaxSequenceLength: cfg.Model.MaxSequenceLength,
		PadToMaxLength:    cfg.Model.PadToMaxLength,
		Lowercase:         cfg.Model.Lowercase,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tokenizer: %v", service.ErrModelLoad, err)
	}
	log.Info("Tokenizer loaded", zap.String("vocab", vocabPath), zap.Int("vocab_size", tok.VocabSize()))

	var (
		backend service.InferenceBackend
		labels  = entity.DefaultLabels
	)
	switch cfg.Model.Backend {
	case config.BackendRemote:
		mlClient := client.NewMLClient(cfg.Model.RemoteURL, cfg.Model.RemoteModel, cfg.Model.RemoteTimeout)
		remote, err := client.NewRemoteBackend(ctx, mlClient, log)
		if err != nil {
			return nil, err
		}
		backend = remote
	default:
		native, err := model.Load(cfg.Model.WeightsPath, tok.VocabSize())
		if err != nil {
			return nil, err
		}
		log.Info("Checkpoint loaded",
			zap.String("path", cfg.Model.WeightsPath),
			zap.Int("hidden_size", native.HiddenSize()),
		)
		backend = native
		labels = native.Labels()
	}

	host, err := usecase.NewModelHost(cfg.Model.Name, tok, backend, labels, cfg.Model.MaxConcurrency, log, m)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return host, nil
}
