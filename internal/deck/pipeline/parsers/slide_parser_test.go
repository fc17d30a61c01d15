package parsers

import (
	"testing"

	"github.com/deckforge/server/internal/deck/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlide(t *testing.T) {
	out, err := ParseSlide(`{"title": "Costs", "bullets": ["• Falling fast", "1.5x cheaper than 2015", "-5% per year"], "speaker_notes": "Mention subsidies.", "layout": "image"}`)
	require.NoError(t, err)

	assert.Equal(t, "Costs", out.Title)
	assert.Equal(t, []string{"Falling fast", "1.5x cheaper than 2015", "-5% per year"}, out.Bullets)
	assert.Equal(t, "Mention subsidies.", out.SpeakerNotes)
	assert.Equal(t, model.LayoutImage, out.Layout)
	assert.Equal(t, model.SourceModel, out.Source)
}

func TestParseSlideWrappedAndAliases(t *testing.T) {
	out, err := ParseSlide(`{"slide": {"heading": "Intro", "content": "- a\n- b", "notes": "hi"}}`)
	require.NoError(t, err)
	assert.Equal(t, "Intro", out.Title)
	assert.Equal(t, []string{"a", "b"}, out.Bullets)
	assert.Equal(t, "hi", out.SpeakerNotes)
	assert.Empty(t, out.Layout, "layout is left for reconciliation when absent")

	out, err = ParseSlide(`[{"title": "First"}, {"title": "Second"}]`)
	require.NoError(t, err)
	assert.Equal(t, "First", out.Title)
}

func TestParseSlideTruncated(t *testing.T) {
	out, err := ParseSlide(`{"title": "Costs", "bullets": ["one", "two", "thr`)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "thr"}, out.Bullets)
}

func TestParseSlideEmpty(t *testing.T) {
	_, err := ParseSlide(`{"title": "", "bullets": []}`)
	assert.ErrorIs(t, err, ErrEmptySlide)

	_, err = ParseSlide(`[]`)
	assert.ErrorIs(t, err, ErrEmptySlide)
}
