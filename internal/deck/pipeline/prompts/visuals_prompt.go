package prompts

import (
	"context"
	_ "embed"

	"github.com/cloudwego/eino/schema"

	"github.com/deckforge/server/internal/deck/model"
)

//go:embed template/visuals_system.txt
var visualsSystemPrompt string

//go:embed template/visuals_user.txt
var visualsUserPrompt string

type VisualsInput struct {
	DeckTitle string
	Style     string
	Slides    []model.Slide
}

func RenderVisuals(ctx context.Context, in VisualsInput) ([]*schema.Message, error) {
	vars := map[string]any{
		"DeckTitle": in.DeckTitle,
		"Style":     in.Style,
		"Slides":    in.Slides,
	}
	return format(ctx, "visuals", visualsSystemPrompt, visualsUserPrompt, vars)
}
