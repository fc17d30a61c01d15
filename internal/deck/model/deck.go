package model

import (
	"strings"
	"time"
)

// Layout is the visual arrangement a slide is rendered with.
type Layout string

const (
	LayoutTitle     Layout = "title"
	LayoutBullets   Layout = "bullets"
	LayoutTwoColumn Layout = "two_column"
	LayoutImage     Layout = "image"
	LayoutQuote     Layout = "quote"
	LayoutClosing   Layout = "closing"
)

// Layouts lists every supported layout in prompt order.
var Layouts = []Layout{LayoutTitle, LayoutBullets, LayoutTwoColumn, LayoutImage, LayoutQuote, LayoutClosing}

var layoutAliases = map[string]Layout{
	"title":       LayoutTitle,
	"title_slide": LayoutTitle,
	"section":     LayoutTitle,
	"cover":       LayoutTitle,
	"bullets":     LayoutBullets,
	"bullet":      LayoutBullets,
	"content":     LayoutBullets,
	"list":        LayoutBullets,
	"two_column":  LayoutTwoColumn,
	"two_columns": LayoutTwoColumn,
	"comparison":  LayoutTwoColumn,
	"image":       LayoutImage,
	"image_left":  LayoutImage,
	"image_right": LayoutImage,
	"visual":      LayoutImage,
	"quote":       LayoutQuote,
	"closing":     LayoutClosing,
	"conclusion":  LayoutClosing,
	"summary":     LayoutClosing,
	"thank_you":   LayoutClosing,
	"end":         LayoutClosing,
}

// ParseLayout maps free-form model output onto a known layout.
// Unknown or empty values become LayoutBullets.
func ParseLayout(s string) Layout {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if l, ok := layoutAliases[key]; ok {
		return l
	}
	return LayoutBullets
}

// SlideSource records whether a slide came from the model or from fallback recovery.
type SlideSource string

const (
	SourceModel    SlideSource = "model"
	SourceFallback SlideSource = "fallback"
)

type OutlineItem struct {
	Title     string   `json:"title"`
	KeyPoints []string `json:"key_points,omitempty"`
	Layout    Layout   `json:"layout,omitempty"`
}

type Outline struct {
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle,omitempty"`
	Items    []OutlineItem `json:"items"`
}

type Slide struct {
	Index        int         `json:"index"`
	Title        string      `json:"title"`
	Layout       Layout      `json:"layout"`
	Bullets      []string    `json:"bullets"`
	SpeakerNotes string      `json:"speaker_notes,omitempty"`
	VisualPrompt string      `json:"visual_prompt,omitempty"`
	Source       SlideSource `json:"source"`
}

// VisualPrompt is an image-generation prompt for the slide at Index (1-based).
type VisualPrompt struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
}

type Usage struct {
	Calls            int `json:"calls"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type DeckMeta struct {
	RequestedSlides int      `json:"requested_slides"`
	Provider        string   `json:"provider"`
	Model           string   `json:"model"`
	Fallbacks       []string `json:"fallbacks"`
	Usage           Usage    `json:"usage"`
	CostUSD         float64  `json:"cost_usd"`
	DurationMS      int64    `json:"duration_ms"`
}

type Deck struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Topic     string    `json:"topic"`
	Tone      string    `json:"tone"`
	Audience  string    `json:"audience"`
	Language  string    `json:"language"`
	Theme     string    `json:"theme"`
	Slides    []Slide   `json:"slides"`
	Meta      DeckMeta  `json:"meta"`
	CreatedAt time.Time `json:"created_at"`
}
