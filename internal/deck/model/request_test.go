package model

import (
	"strings"
	"testing"

	errx "github.com/deckforge/server/internal/core/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	req, err := GenerateRequest{Topic: "  Solar power basics  ", Theme: " Midnight "}.Normalize(DefaultPipelineConfig())
	require.NoError(t, err)

	assert.Equal(t, "Solar power basics", req.Topic)
	assert.Equal(t, 8, req.SlideCount)
	assert.Equal(t, DefaultTone, req.Tone)
	assert.Equal(t, DefaultAudience, req.Audience)
	assert.Equal(t, DefaultLanguage, req.Language)
	assert.Equal(t, "midnight", req.Theme)
}

func TestNormalizeRequiresTopicOrDocument(t *testing.T) {
	_, err := GenerateRequest{Topic: "   "}.Normalize(DefaultPipelineConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrInvalidRequest)
	assert.Equal(t, 400, errx.StatusOf(err))
}

func TestNormalizeTopicFromDocument(t *testing.T) {
	doc := "\n\n## Quarterly Results\n\nRevenue grew 12%."
	req, err := GenerateRequest{Document: doc, SlideCount: 3}.Normalize(DefaultPipelineConfig())
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Results", req.Topic)
}

func TestNormalizeTruncatesLongTopic(t *testing.T) {
	req, err := GenerateRequest{Topic: strings.Repeat("é", 500)}.Normalize(DefaultPipelineConfig())
	require.NoError(t, err)
	assert.Len(t, []rune(req.Topic), maxTopicRunes)
}

func TestNormalizeSlideCountBounds(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.MinSlides = 3
	cfg.MaxSlides = 10

	for _, n := range []int{-1, 2, 11} {
		_, err := GenerateRequest{Topic: "x", SlideCount: n}.Normalize(cfg)
		assert.ErrorIs(t, err, errx.ErrInvalidRequest, "slide count %d", n)
	}
	for _, n := range []int{3, 10} {
		req, err := GenerateRequest{Topic: "x", SlideCount: n}.Normalize(cfg)
		require.NoError(t, err)
		assert.Equal(t, n, req.SlideCount)
	}
}

func TestNormalizeCleansUserOutline(t *testing.T) {
	req, err := GenerateRequest{
		Topic:      "Onboarding",
		SlideCount: 2,
		Outline: []OutlineItem{
			{Title: "  Welcome ", Layout: "Title Slide"},
			{Title: "   "},
			{Title: "First week", Layout: "whatever"},
		},
	}.Normalize(DefaultPipelineConfig())
	require.NoError(t, err)

	require.Len(t, req.Outline, 2)
	assert.Equal(t, OutlineItem{Title: "Welcome", Layout: LayoutTitle}, req.Outline[0])
	assert.Equal(t, OutlineItem{Title: "First week", Layout: LayoutBullets}, req.Outline[1])
}

func TestParseLayout(t *testing.T) {
	cases := map[string]Layout{
		"title":       LayoutTitle,
		"Two-Column":  LayoutTwoColumn,
		"image right": LayoutImage,
		"Conclusion":  LayoutClosing,
		"":            LayoutBullets,
		"hologram":    LayoutBullets,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLayout(in), in)
	}
}

func TestPipelineConfigWithDefaults(t *testing.T) {
	cfg := PipelineConfig{MinSlides: 5, MaxSlides: 2, DefaultSlides: 1}.WithDefaults()
	assert.Equal(t, 5, cfg.MinSlides)
	assert.Equal(t, 30, cfg.MaxSlides)
	assert.Equal(t, 8, cfg.DefaultSlides)
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.Equal(t, 1, cfg.SlideConcurrency)
}
