package model

import "context"

type DeckRepository interface {
	// Save stores the deck under its ID, replacing any previous version
	Save(ctx context.Context, deck *Deck) error

	// Get returns the deck or an error matching errx.ErrDeckNotFound
	Get(ctx context.Context, id string) (*Deck, error)

	// Delete removes the deck; deleting a missing deck matches errx.ErrDeckNotFound
	Delete(ctx context.Context, id string) error
}
