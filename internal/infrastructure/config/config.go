package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SENTIMENT_"

// ConfigFileEnv names the variable holding an optional TOML config path
const ConfigFileEnv = EnvPrefix + "CONFIG_FILE"

// Model backends
const (
	BackendNative = "native"
	BackendRemote = "remote"
)

// Config holds the whole service configuration
type Config struct {
	Server ServerConfig `toml:"server"`
	Model  ModelConfig  `toml:"model"`
	Redis  RedisConfig  `toml:"redis"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Host            string        `toml:"host"`
	Port            int           `toml:"port"`
	Mode            string        `toml:"mode"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	IdleTimeout     time.Duration `toml:"idle_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// ModelConfig configures the tokenizer and the inference backend
type ModelConfig struct {
	Name              string        `toml:"name"`
	Backend           string        `toml:"backend"`
	WeightsPath       string        `toml:"weights_path"`
	VocabPath         string        `toml:"vocab_path"`
	RegistryURL       string        `toml:"registry_url"`
	CacheDir          string        `toml:"cache_dir"`
	MaxSequenceLength int           `toml:"max_sequence_length"`
	PadToMaxLength    bool          `toml:"pad_to_max_length"`
	Lowercase         bool          `toml:"lowercase"`
	MaxConcurrency    int           `toml:"max_concurrency"`
	InferenceTimeout  time.Duration `toml:"inference_timeout"`
	RemoteURL         string        `toml:"remote_url"`
	RemoteModel       string        `toml:"remote_model"`
	RemoteTimeout     time.Duration `toml:"remote_timeout"`
}

// RedisConfig configures the optional prediction cache
type RedisConfig struct {
	Enabled  bool          `toml:"enabled"`
	Host     string        `toml:"host"`
	Port     int           `toml:"port"`
	Password string        `toml:"password"`
	DB       int           `toml:"db"`
	TTL      time.Duration `toml:"ttl"`
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	FilePath   string `toml:"file_path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Load builds the configuration from defaults, an optional TOML file and
// SENTIMENT_* environment variables, in that order.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			Mode:            "release",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Model: ModelConfig{
			Name:              "bert-base-uncased",
			Backend:           BackendNative,
			WeightsPath:       "bert_sentiment.safetensors",
			RegistryURL:       "https://huggingface.co",
			CacheDir:          defaultCacheDir(),
			MaxSequenceLength: 512,
			Lowercase:         true,
			MaxConcurrency:    runtime.NumCPU(),
			InferenceTimeout:  10 * time.Second,
			RemoteURL:         "http://localhost:8001",
			RemoteModel:       "bert_sentiment",
			RemoteTimeout:     5 * time.Second,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
			TTL:  time.Hour,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sentiment-api")
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Model.Backend {
	case BackendNative:
		if c.Model.WeightsPath == "" {
			errs = append(errs, errors.New("model.weights_path is required for the native backend"))
		}
	case BackendRemote:
		if c.Model.RemoteURL == "" || c.Model.RemoteModel == "" {
			errs = append(errs, errors.New("model.remote_url and model.remote_model are required for the remote backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("model.backend %q is not one of %s, %s", c.Model.Backend, BackendNative, BackendRemote))
	}
	if c.Model.Name == "" && c.Model.VocabPath == "" {
		errs = append(errs, errors.New("model.name or model.vocab_path is required"))
	}
	if c.Model.MaxSequenceLength < 2 {
		errs = append(errs, fmt.Errorf("model.max_sequence_length must be at least 2, got %d", c.Model.MaxSequenceLength))
	}
	if c.Model.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("model.max_concurrency must be positive, got %d", c.Model.MaxConcurrency))
	}
	if c.Model.InferenceTimeout <= 0 {
		errs = append(errs, errors.New("model.inference_timeout must be positive"))
	}

	return errors.Join(errs...)
}

type envBinding struct {
	key string
	set func(string) error
}

func applyEnv(cfg *Config) error {
	bindings := []envBinding{
		{"SERVER_HOST", setString(&cfg.Server.Host)},
		{"SERVER_PORT", setInt(&cfg.Server.Port)},
		{"SERVER_MODE", setString(&cfg.Server.Mode)},
		{"SERVER_READ_TIMEOUT", setDuration(&cfg.Server.ReadTimeout)},
		{"SERVER_WRITE_TIMEOUT", setDuration(&cfg.Server.WriteTimeout)},
		{"SERVER_IDLE_TIMEOUT", setDuration(&cfg.Server.IdleTimeout)},
		{"SERVER_SHUTDOWN_TIMEOUT", setDuration(&cfg.Server.ShutdownTimeout)},

		{"MODEL_NAME", setString(&cfg.Model.Name)},
		{"MODEL_BACKEND", setString(&cfg.Model.Backend)},
		{"MODEL_WEIGHTS_PATH", setString(&cfg.Model.WeightsPath)},
		{"MODEL_VOCAB_PATH", setString(&cfg.Model.VocabPath)},
		{"MODEL_REGISTRY_URL", setString(&cfg.Model.RegistryURL)},
		{"MODEL_CACHE_DIR", setString(&cfg.Model.CacheDir)},
		{"MODEL_MAX_SEQUENCE_LENGTH", setInt(&cfg.Model.MaxSequenceLength)},
		{"MODEL_PAD_TO_MAX_LENGTH", setBool(&cfg.Model.PadToMaxLength)},
		{"MODEL_LOWERCASE", setBool(&cfg.Model.Lowercase)},
		{"MODEL_MAX_CONCURRENCY", setInt(&cfg.Model.MaxConcurrency)},
		{"MODEL_INFERENCE_TIMEOUT", setDuration(&cfg.Model.InferenceTimeout)},
		{"MODEL_REMOTE_URL", setString(&cfg.Model.RemoteURL)},
		{"MODEL_REMOTE_MODEL", setString(&cfg.Model.RemoteModel)},
		{"MODEL_REMOTE_TIMEOUT", setDuration(&cfg.Model.RemoteTimeout)},

		{"REDIS_ENABLED", setBool(&cfg.Redis.Enabled)},
		{"REDIS_HOST", setString(&cfg.Redis.Host)},
		{"REDIS_PORT", setInt(&cfg.Redis.Port)},
		{"REDIS_PASSWORD", setString(&cfg.Redis.Password)},
		{"REDIS_DB", setInt(&cfg.Redis.DB)},
		{"REDIS_TTL", setDuration(&cfg.Redis.TTL)},

		{"LOG_LEVEL", setString(&cfg.Log.Level)},
		{"LOG_FORMAT", setString(&cfg.Log.Format)},
		{"LOG_FILE_PATH", setString(&cfg.Log.FilePath)},
		{"LOG_MAX_SIZE_MB", setInt(&cfg.Log.MaxSizeMB)},
		{"LOG_MAX_BACKUPS", setInt(&cfg.Log.MaxBackups)},
		{"LOG_MAX_AGE_DAYS", setInt(&cfg.Log.MaxAgeDays)},
	}

	for _, b := range bindings {
		raw, ok := os.LookupEnv(EnvPrefix + b.key)
		if !ok {
			continue
		}
		if err := b.set(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, b.key, err)
		}
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
