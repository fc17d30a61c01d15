package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/deckforge/server/internal/core"
	"github.com/deckforge/server/internal/deck/model"
	"github.com/deckforge/server/internal/deck/repo"
	"github.com/deckforge/server/internal/httpapi"
	logx "github.com/deckforge/server/pkg/logger"
	pkgredis "github.com/deckforge/server/pkg/redis"
)

// AppConfig defines every configurable parameter, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis   pkgredis.Config
	DeckTTL time.Duration `envconfig:"DECK_TTL" default:"24h"`
	HTTP    httpapi.Config

	// Generation
	LLM      model.LLMConfig
	Pipeline model.PipelineConfig
}

func loadConfig(envFile string) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logx.Warn().Err(err).Str("file", envFile).Msg("Could not load env file")
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	cfg.Pipeline = cfg.Pipeline.WithDefaults()
	return &cfg, nil
}

func (c *AppConfig) env() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

// deckStore is a model.DeckRepository that may hold resources.
type deckStore interface {
	model.DeckRepository
	Close()
}

type redisStore struct {
	*repo.RedisDeckRepository
	close func() error
}

func (s redisStore) Close() {
	if err := s.close(); err != nil {
		logx.Warn().Err(err).Msg("failed to close redis client")
	}
}

// newDeckStore connects to Redis when REDIS_URL is set and otherwise keeps
// decks in process.
func newDeckStore(ctx context.Context, cfg *AppConfig) (deckStore, error) {
	if !cfg.Redis.Enabled() {
		logx.Info().Dur("ttl", cfg.DeckTTL).Msg("Using in-memory deck store")
		return repo.NewMemoryDeckRepository(cfg.DeckTTL), nil
	}

	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise Redis client: %w", err)
	}
	logx.Info().Dur("ttl", cfg.DeckTTL).Msg("Connected to Redis successfully")
	return redisStore{RedisDeckRepository: repo.NewRedisDeckRepository(rdb, cfg.DeckTTL), close: rdb.Close}, nil
}
