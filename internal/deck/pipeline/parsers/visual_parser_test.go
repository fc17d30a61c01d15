package parsers

import (
	"testing"

	"github.com/deckforge/server/internal/deck/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVisuals(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []model.VisualPrompt
	}{
		{
			name: "objects with index",
			in:   `[{"index": 2, "prompt": "solar farm"}, {"slide": "1", "image_prompt": "sunrise"}]`,
			want: []model.VisualPrompt{{Index: 2, Prompt: "solar farm"}, {Index: 1, Prompt: "sunrise"}},
		},
		{
			name: "wrapped visuals",
			in:   `{"visuals": [{"slide_index": 3, "visual_prompt": "grid"}]}`,
			want: []model.VisualPrompt{{Index: 3, Prompt: "grid"}},
		},
		{
			name: "wrapped prompts of strings",
			in:   `{"prompts": ["one", "  ", "three"]}`,
			want: []model.VisualPrompt{{Index: 1, Prompt: "one"}, {Index: 3, Prompt: "three"}},
		},
		{
			name: "position used without index",
			in:   `[{"description": "a"}, {"description": "b"}]`,
			want: []model.VisualPrompt{{Index: 1, Prompt: "a"}, {Index: 2, Prompt: "b"}},
		},
		{
			name: "blank and invalid entries skipped",
			in:   `[{"index": 1, "prompt": ""}, 7, {"index": 2, "prompt": "ok"}]`,
			want: []model.VisualPrompt{{Index: 2, Prompt: "ok"}},
		},
		{
			name: "zero based indices shifted",
			in:   `[{"index": 0, "prompt": "p0"}, {"index": 1, "prompt": "p1"}, {"index": 2, "prompt": "p2"}]`,
			want: []model.VisualPrompt{{Index: 1, Prompt: "p0"}, {Index: 2, Prompt: "p1"}, {Index: 3, Prompt: "p2"}},
		},
		{
			name: "zero based mixed with positional",
			in:   `{"visuals": [{"slide": "0", "prompt": "cover"}, "untagged"]}`,
			want: []model.VisualPrompt{{Index: 1, Prompt: "cover"}, {Index: 2, Prompt: "untagged"}},
		},
		{
			name: "unreadable index falls back to position",
			in:   `[{"slide": "first", "prompt": "a"}, {"index": 1, "prompt": "b"}]`,
			want: []model.VisualPrompt{{Index: 1, Prompt: "a"}, {Index: 1, Prompt: "b"}},
		},
		{
			name: "null index falls back to position",
			in:   `[{"index": null, "prompt": "a"}, {"index": 5, "prompt": "b"}]`,
			want: []model.VisualPrompt{{Index: 1, Prompt: "a"}, {Index: 5, Prompt: "b"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseVisuals(tc.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("visuals mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseVisualsNothingUsable(t *testing.T) {
	_, err := ParseVisuals(`{"visuals": []}`)
	assert.ErrorIs(t, err, ErrNoVisuals)
	assert.NotErrorIs(t, err, ErrNoItems)
}
