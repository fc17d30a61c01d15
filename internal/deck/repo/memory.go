package repo

import (
	"context"
	"fmt"
	"time"

	errx "github.com/deckforge/server/internal/core/error"
	"github.com/deckforge/server/internal/deck/model"
	"github.com/deckforge/server/pkg/cache"
)

// MemoryDeckRepository keeps decks in process for ttl. Decks are stored as
// deep copies so callers cannot mutate cached state.
type MemoryDeckRepository struct {
	cache *cache.TTLCache[string, model.Deck]
}

var _ model.DeckRepository = (*MemoryDeckRepository)(nil)

func NewMemoryDeckRepository(ttl time.Duration) *MemoryDeckRepository {
	cleanup := ttl / 2
	if cleanup <= 0 || cleanup > time.Minute {
		cleanup = time.Minute
	}
	return &MemoryDeckRepository{cache: cache.New[string, model.Deck](ttl, cleanup)}
}

func (r *MemoryDeckRepository) Save(_ context.Context, deck *model.Deck) error {
	if deck == nil || deck.ID == "" {
		return errx.BadRequest(errx.ErrInvalidRequest, "deck id is required")
	}
	r.cache.Set(deck.ID, cloneDeck(deck))
	return nil
}

func (r *MemoryDeckRepository) Get(_ context.Context, id string) (*model.Deck, error) {
	d, ok := r.cache.Get(id)
	if !ok {
		return nil, errx.NotFound(errx.ErrDeckNotFound, fmt.Sprintf("deck %s not found", id))
	}
	out := cloneDeck(&d)
	return &out, nil
}

func (r *MemoryDeckRepository) Delete(_ context.Context, id string) error {
	if !r.cache.Delete(id) {
		return errx.NotFound(errx.ErrDeckNotFound, fmt.Sprintf("deck %s not found", id))
	}
	return nil
}

// Close stops the cache's cleanup goroutine.
func (r *MemoryDeckRepository) Close() {
	r.cache.Close()
}

func cloneDeck(d *model.Deck) model.Deck {
	out := *d
	out.Slides = make([]model.Slide, len(d.Slides))
	for i, s := range d.Slides {
		s.Bullets = append([]string(nil), s.Bullets...)
		out.Slides[i] = s
	}
	out.Meta.Fallbacks = append([]string(nil), d.Meta.Fallbacks...)
	return out
}
