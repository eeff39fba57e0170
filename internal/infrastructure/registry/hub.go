package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// VocabFile is the file name of a WordPiece vocabulary in a model repository
const VocabFile = "vocab.txt"

// Hub resolves pretrained vocabularies by model name, from a local cache
// directory first and a Hugging Face compatible registry second.
type Hub struct {
	baseURL    string
	cacheDir   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHub creates a new registry client
func NewHub(baseURL, cacheDir string, timeout time.Duration, logger *zap.Logger) *Hub {
	return &Hub{
		baseURL:  strings.TrimRight(baseURL, "/"),
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ResolveVocab returns the local path of the vocabulary of model name,
// downloading it into the cache when absent.
func (h *Hub) ResolveVocab(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	local := filepath.Join(h.cacheDir, filepath.FromSlash(name), VocabFile)
	if info, err := os.Stat(local); err == nil && info.Size() > 0 {
		h.logger.Debug("Vocabulary found in cache", zap.String("path", local))
		return local, nil
	}

	if err := h.download(ctx, name, VocabFile, local); err != nil {
		return "", err
	}
	return local, nil
}

func (h *Hub) download(ctx context.Context, name, file, dest string) error {
	u, err := url.JoinPath(h.baseURL, name, "resolve", "main", file)
	if err != nil {
		return fmt.Errorf("failed to build registry url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	h.logger.Info("Downloading from registry", zap.String("url", u))
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry returned status %d for %s", resp.StatusCode, u)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// write next to the target and rename so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(dest), file+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to download %s: %w", u, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move download into cache: %w", err)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return errors.New("model name is empty")
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid model name %q", name)
		}
	}
	return nil
}
