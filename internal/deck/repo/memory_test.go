package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	errx "github.com/deckforge/server/internal/core/error"
	"github.com/deckforge/server/internal/deck/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sampleDeck() *model.Deck {
	return &model.Deck{
		ID:    "d1",
		Title: "Solar",
		Slides: []model.Slide{
			{Index: 1, Title: "Intro", Bullets: []string{"a"}},
		},
		Meta: model.DeckMeta{Fallbacks: []string{"visuals"}},
	}
}

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	r := NewMemoryDeckRepository(time.Minute)
	defer r.Close()
	ctx := context.Background()

	d := sampleDeck()
	require.NoError(t, r.Save(ctx, d))

	// mutating the original must not leak into the store
	d.Slides[0].Bullets[0] = "changed"

	got, err := r.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Slides[0].Bullets[0])

	got.Slides[0].Title = "mutated"
	again, err := r.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Intro", again.Slides[0].Title)

	require.NoError(t, r.Delete(ctx, "d1"))
	_, err = r.Get(ctx, "d1")
	assert.ErrorIs(t, err, errx.ErrDeckNotFound)
	assert.Equal(t, 404, errx.StatusOf(err))
}

func TestMemoryRepositoryMissing(t *testing.T) {
	r := NewMemoryDeckRepository(time.Minute)
	defer r.Close()

	assert.ErrorIs(t, r.Delete(context.Background(), "nope"), errx.ErrDeckNotFound)
	assert.ErrorIs(t, r.Save(context.Background(), &model.Deck{}), errx.ErrInvalidRequest)
}

func TestMemoryRepositoryExpires(t *testing.T) {
	r := NewMemoryDeckRepository(20 * time.Millisecond)
	defer r.Close()
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sampleDeck()))
	assert.Eventually(t, func() bool {
		_, err := r.Get(ctx, "d1")
		return err != nil
	}, time.Second, 5*time.Millisecond)
}
