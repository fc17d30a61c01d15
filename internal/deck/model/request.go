package model

import (
	"fmt"
	"strings"
	"unicode/utf8"

	errx "github.com/deckforge/server/internal/core/error"
)

const (
	DefaultTone     = "professional"
	DefaultAudience = "general audience"
	DefaultLanguage = "English"

	maxTopicRunes = 200
)

// GenerateRequest is the caller's description of the deck to build.
// Either Topic or Document must be set. A non-empty Outline skips outline
// generation and is reconciled to SlideCount as-is.
type GenerateRequest struct {
	Topic       string        `json:"topic"`
	Document    string        `json:"document,omitempty"`
	SlideCount  int           `json:"slide_count"`
	Tone        string        `json:"tone,omitempty"`
	Audience    string        `json:"audience,omitempty"`
	Language    string        `json:"language,omitempty"`
	Theme       string        `json:"theme,omitempty"`
	SkipVisuals bool          `json:"skip_visuals,omitempty"`
	Outline     []OutlineItem `json:"outline,omitempty"`
}

// Normalize validates the request against cfg and fills defaults.
func (r GenerateRequest) Normalize(cfg PipelineConfig) (GenerateRequest, error) {
	cfg = cfg.WithDefaults()

	r.Topic = strings.TrimSpace(r.Topic)
	r.Document = strings.TrimSpace(r.Document)
	r.Tone = strings.TrimSpace(r.Tone)
	r.Audience = strings.TrimSpace(r.Audience)
	r.Language = strings.TrimSpace(r.Language)
	r.Theme = strings.ToLower(strings.TrimSpace(r.Theme))

	if r.Topic == "" && r.Document == "" {
		return r, errx.BadRequest(errx.ErrInvalidRequest, "topic or document is required")
	}
	if r.Topic == "" {
		r.Topic = topicFromDocument(r.Document)
	}
	if utf8.RuneCountInString(r.Topic) > maxTopicRunes {
		r.Topic = string([]rune(r.Topic)[:maxTopicRunes])
	}

	if r.SlideCount == 0 {
		r.SlideCount = cfg.DefaultSlides
	}
	if r.SlideCount < cfg.MinSlides || r.SlideCount > cfg.MaxSlides {
		return r, errx.BadRequest(errx.ErrInvalidRequest,
			fmt.Sprintf("slide_count must be between %d and %d", cfg.MinSlides, cfg.MaxSlides))
	}

	if r.Tone == "" {
		r.Tone = DefaultTone
	}
	if r.Audience == "" {
		r.Audience = DefaultAudience
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}

	if len(r.Outline) > 0 {
		items := make([]OutlineItem, 0, len(r.Outline))
		for _, it := range r.Outline {
			it.Title = strings.TrimSpace(it.Title)
			if it.Title == "" {
				continue
			}
			it.Layout = ParseLayout(string(it.Layout))
			items = append(items, it)
		}
		r.Outline = items
	}

	return r, nil
}

// topicFromDocument uses the first non-empty line, stripped of markdown
// heading markers.
func topicFromDocument(doc string) string {
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line != "" {
			return line
		}
	}
	return ""
}
