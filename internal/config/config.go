package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// Config holds everything the api and worker binaries read from the
// environment.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL, required"`
	RedisAddr   string `env:"REDIS_ADDR, default=localhost:6379"`
	ListenAddr  string `env:"LISTEN_ADDR, default=:8000"`

	// APIToken protects the admin route group.
	APIToken string `env:"API_TOKEN, required"`

	// OpenAIAPIKey is the model provider credential. The api binary starts
	// without it, but evaluation triggers fail fast until it is set.
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	DefaultModel  string `env:"LLM_MODEL, default=gpt-4o-mini"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioBucket    string `env:"MINIO_BUCKET"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
}

func Load(ctx context.Context) (*Config, error) {
	var c Config
	if err := envconfig.Process(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
