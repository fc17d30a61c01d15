package prompts

import (
	"context"
	_ "embed"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/deckforge/server/internal/deck/model"
)

//go:embed template/slide_system.txt
var slideSystemPrompt string

//go:embed template/slide_user.txt
var slideUserPrompt string

// SlideInput describes one outline item to expand into a slide.
type SlideInput struct {
	Request    model.GenerateRequest
	DeckTitle  string
	Item       model.OutlineItem
	Index      int // 1-based
	Total      int
	MaxBullets int
	// Neighbours are the titles of the other slides, for continuity.
	Neighbours []string
	Source     string
}

func RenderSlide(ctx context.Context, in SlideInput) ([]*schema.Message, error) {
	layout := in.Item.Layout
	if layout == "" {
		layout = model.LayoutBullets
	}
	vars := map[string]any{
		"Topic":      in.Request.Topic,
		"Tone":       in.Request.Tone,
		"Audience":   in.Request.Audience,
		"Language":   in.Request.Language,
		"MaxBullets": in.MaxBullets,
		"Layout":     string(layout),
		"DeckTitle":  in.DeckTitle,
		"Index":      in.Index,
		"Total":      in.Total,
		"Title":      in.Item.Title,
		"KeyPoints":  in.Item.KeyPoints,
		"Neighbours": strings.Join(in.Neighbours, "; "),
		"Source":     in.Source,
	}
	return format(ctx, "slide", slideSystemPrompt, slideUserPrompt, vars)
}
