package reconcile

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckforge/server/internal/deck/model"
)

func items(titles ...string) []model.OutlineItem {
	out := make([]model.OutlineItem, len(titles))
	for i, t := range titles {
		out[i] = model.OutlineItem{Title: t, Layout: model.LayoutBullets}
	}
	return out
}

func titles(in []model.OutlineItem) []string {
	out := make([]string, len(in))
	for i, it := range in {
		out[i] = it.Title
	}
	return out
}

func TestOutlineTruncates(t *testing.T) {
	got := Outline(items("A", "B", "C", "D"), 2, "topic")
	assert.Equal(t, []string{"A", "B"}, titles(got))
}

func TestOutlineSingleKeepsFirst(t *testing.T) {
	got := Outline(items("A", "B"), 1, "topic")
	assert.Equal(t, []string{"A"}, titles(got))
}

func TestOutlinePadsWithUniqueFillers(t *testing.T) {
	got := Outline(items("Overview", "  ", "B"), 4, "Solar")
	require.Len(t, got, 4)
	assert.Equal(t, []string{"Overview", "B", "Background", "Key Facts"}, titles(got))
	assert.Equal(t, []string{"Background of Solar"}, got[2].KeyPoints)
}

func TestOutlinePadsBeyondFillerList(t *testing.T) {
	got := Outline(nil, len(fillerSections)+2, "x")
	require.Len(t, got, len(fillerSections)+2)

	seen := map[string]bool{}
	for _, it := range got {
		assert.False(t, seen[it.Title], "duplicate title %q", it.Title)
		seen[it.Title] = true
	}
	assert.Equal(t, "Overview (2)", got[len(fillerSections)].Title)
}

func TestOutlineZero(t *testing.T) {
	assert.Nil(t, Outline(items("A"), 0, "x"))
}

func TestSlides(t *testing.T) {
	outline := []model.OutlineItem{
		{Title: "Intro", KeyPoints: []string{"hello"}, Layout: model.LayoutTitle},
		{Title: "Costs", KeyPoints: []string{"cheap", "cheaper"}, Layout: model.LayoutTwoColumn},
		{Title: "Outlook", Layout: model.LayoutClosing},
	}
	slides := []model.Slide{
		{Index: 7, Title: " Intro ", Bullets: []string{"a", " A ", "", "b", "c"}, Layout: "Title Slide", Source: model.SourceModel, VisualPrompt: "keep"},
		{},
		{Title: "Outlook", Layout: "closing"},
		{Title: "Extra slide"},
	}

	got := Slides(slides, outline, 3, 2, "Solar")

	want := []model.Slide{
		{Index: 1, Title: "Intro", Bullets: []string{"a", "b"}, Layout: model.LayoutTitle, Source: model.SourceModel, VisualPrompt: "keep"},
		{Index: 2, Title: "Costs", Bullets: []string{"cheap", "cheaper"}, Layout: model.LayoutTwoColumn, Source: model.SourceFallback},
		{Index: 3, Title: "Outlook", Bullets: []string{"Outlook in the context of Solar"}, Layout: model.LayoutClosing, Source: model.SourceModel},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("slides mismatch (-want +got):\n%s", diff)
	}
}

func TestSlidesPadsShortOutline(t *testing.T) {
	got := Slides(nil, items("Only"), 3, 4, "Solar")
	require.Len(t, got, 3)
	for i, s := range got {
		assert.Equal(t, i+1, s.Index)
		assert.NotEmpty(t, s.Title)
		assert.NotEmpty(t, s.Bullets)
		assert.Equal(t, model.SourceFallback, s.Source)
	}
	assert.Equal(t, "Only", got[0].Title)
}

func TestVisuals(t *testing.T) {
	slides := []model.Slide{
		{Index: 1, Title: "Intro", Bullets: []string{"hello"}},
		{Index: 2, Title: "Costs"},
		{Index: 3, Title: "Outlook"},
	}
	prompts := []model.VisualPrompt{
		{Index: 2, Prompt: " second "},
		{Index: 2, Prompt: "duplicate"},
		{Index: 9, Prompt: "out of range"},
		{Index: 0, Prompt: "zero"},
		{Index: 3, Prompt: "   "},
	}

	got, missing := Visuals(prompts, slides, "watercolor")

	assert.Equal(t, []int{1, 3}, missing)
	assert.Equal(t, `watercolor representing "Intro", highlighting hello, no text in the image`, got[0].VisualPrompt)
	assert.Equal(t, "second", got[1].VisualPrompt)
	assert.Equal(t, `watercolor representing "Outlook", no text in the image`, got[2].VisualPrompt)
	assert.Empty(t, slides[1].VisualPrompt, "input is not modified")
}

func TestFallbackOutline(t *testing.T) {
	req := model.GenerateRequest{
		Topic:      "Quarterly Results",
		SlideCount: 5,
		Document:   "# Quarterly Results\n\n## Revenue\ntext\n## Costs\n## Revenue\n",
	}
	got := FallbackOutline(req)

	assert.Equal(t, "Quarterly Results", got.Title)
	assert.Equal(t, []string{"Quarterly Results", "Revenue", "Costs", "Overview", "Summary"}, titles(got.Items))
	assert.Equal(t, model.LayoutTitle, got.Items[0].Layout)
	assert.Equal(t, model.LayoutClosing, got.Items[4].Layout)
}

func TestFallbackOutlineSizes(t *testing.T) {
	for _, n := range []int{1, 2, 3, 12, 30} {
		got := FallbackOutline(model.GenerateRequest{Topic: "T", SlideCount: n})
		assert.Len(t, got.Items, n, fmt.Sprintf("n=%d", n))

		seen := map[string]bool{}
		for _, it := range got.Items {
			assert.False(t, seen[it.Title], "n=%d duplicate %q", n, it.Title)
			seen[it.Title] = true
			assert.NotEmpty(t, it.KeyPoints)
		}
	}
}

func TestFallbackSlide(t *testing.T) {
	s := FallbackSlide(model.OutlineItem{Title: "Solar", Layout: "quote"}, 4, "solar")
	assert.Equal(t, 4, s.Index)
	assert.Equal(t, model.LayoutQuote, s.Layout)
	assert.Equal(t, []string{"Introduction to solar"}, s.Bullets)
	assert.Equal(t, model.SourceFallback, s.Source)
}
