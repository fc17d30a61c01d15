package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/deckforge/server/internal/deck/model"
)

//go:embed template/outline_system.txt
var outlineSystemPrompt string

//go:embed template/outline_user.txt
var outlineUserPrompt string

// OutlineInput carries everything the outline prompt needs.
type OutlineInput struct {
	Request    model.GenerateRequest
	MaxBullets int
	// Source is the already wrapped and trimmed source material, may be empty.
	Source string
}

// RenderOutline renders the outline prompt via the Eino prompt component,
// which emits Prompt callbacks.
func RenderOutline(ctx context.Context, in OutlineInput) ([]*schema.Message, error) {
	layouts := make([]string, 0, len(model.Layouts))
	for _, l := range model.Layouts {
		layouts = append(layouts, string(l))
	}

	vars := map[string]any{
		"Topic":      in.Request.Topic,
		"SlideCount": in.Request.SlideCount,
		"Tone":       in.Request.Tone,
		"Audience":   in.Request.Audience,
		"Language":   in.Request.Language,
		"MaxBullets": in.MaxBullets,
		"Layouts":    strings.Join(layouts, ", "),
		"Source":     in.Source,
	}
	return format(ctx, "outline", outlineSystemPrompt, outlineUserPrompt, vars)
}

func format(ctx context.Context, name, system, user string, vars map[string]any) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("render %s prompt: %w", name, err)
	}
	if len(msgs) != 2 {
		return nil, fmt.Errorf("render %s prompt: expected 2 messages, got %d", name, len(msgs))
	}
	return msgs, nil
}
