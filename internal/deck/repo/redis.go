package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/deckforge/server/internal/core/error"
	"github.com/deckforge/server/internal/deck/model"
	logx "github.com/deckforge/server/pkg/logger"
)

const deckKeyPrefix = "deck:"

// RedisDeckRepository stores each deck as one JSON value that expires after ttl.
type RedisDeckRepository struct {
	client *redis.Client
	ttl    time.Duration
}

var _ model.DeckRepository = (*RedisDeckRepository)(nil)

func NewRedisDeckRepository(client *redis.Client, ttl time.Duration) *RedisDeckRepository {
	return &RedisDeckRepository{client: client, ttl: ttl}
}

func deckKey(id string) string {
	return deckKeyPrefix + id
}

func (r *RedisDeckRepository) Save(ctx context.Context, deck *model.Deck) error {
	if deck == nil || deck.ID == "" {
		return errx.BadRequest(errx.ErrInvalidRequest, "deck id is required")
	}
	data, err := json.Marshal(deck)
	if err != nil {
		return fmt.Errorf("marshal deck: %w", err)
	}
	if err := r.client.Set(ctx, deckKey(deck.ID), data, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("deck_id", deck.ID).Msg("Error saving deck")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisDeckRepository) Get(ctx context.Context, id string) (*model.Deck, error) {
	data, err := r.client.Get(ctx, deckKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errx.NotFound(errx.ErrDeckNotFound, fmt.Sprintf("deck %s not found", id))
		}
		logx.Error().Err(err).Str("deck_id", id).Msg("Error loading deck")
		return nil, errx.WrapRedis(err)
	}

	var deck model.Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("unmarshal deck %s: %w", id, err)
	}
	return &deck, nil
}

func (r *RedisDeckRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, deckKey(id)).Result()
	if err != nil {
		logx.Error().Err(err).Str("deck_id", id).Msg("Error deleting deck")
		return errx.WrapRedis(err)
	}
	if n == 0 {
		return errx.NotFound(errx.ErrDeckNotFound, fmt.Sprintf("deck %s not found", id))
	}
	return nil
}
