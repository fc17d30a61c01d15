// Package reconcile forces model output into the exact shape a deck needs:
// one outline item and one slide per requested slide, bullets within bounds
// and one visual prompt per slide. Everything here is deterministic so that
// fallbacks are reproducible.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/deckforge/server/internal/deck/model"
)

// fillerSections name the padding sections used when the model planned too
// few slides.
var fillerSections = []string{
	"Overview",
	"Background",
	"Key Facts",
	"How It Works",
	"Examples",
	"Challenges",
	"Opportunities",
	"Best Practices",
	"Next Steps",
	"Key Takeaways",
}

// Outline returns exactly n items: extra items are dropped and missing ones
// are padded with filler sections whose titles do not repeat existing ones.
func Outline(items []model.OutlineItem, n int, topic string) []model.OutlineItem {
	if n <= 0 {
		return nil
	}
	out := make([]model.OutlineItem, 0, n)
	for _, it := range items {
		if len(out) == n {
			break
		}
		it.Title = strings.TrimSpace(it.Title)
		if it.Title == "" {
			continue
		}
		it.KeyPoints = cleanBullets(it.KeyPoints, 0)
		it.Layout = normalizeLayout(it.Layout)
		out = append(out, it)
	}
	return pad(out, n, topic)
}

func pad(items []model.OutlineItem, n int, topic string) []model.OutlineItem {
	taken := make(map[string]struct{}, n)
	for _, it := range items {
		taken[strings.ToLower(it.Title)] = struct{}{}
	}
	for k := 0; len(items) < n; k++ {
		title := fillerSections[k%len(fillerSections)]
		if round := k / len(fillerSections); round > 0 {
			title = fmt.Sprintf("%s (%d)", title, round+1)
		}
		if _, dup := taken[strings.ToLower(title)]; dup {
			continue
		}
		taken[strings.ToLower(title)] = struct{}{}
		items = append(items, model.OutlineItem{
			Title:     title,
			KeyPoints: []string{fmt.Sprintf("%s of %s", title, topic)},
			Layout:    model.LayoutBullets,
		})
	}
	return items
}

// Slides returns exactly n slides numbered 1..n. A slide without content is
// rebuilt from the outline item at the same position, bullets are trimmed,
// deduplicated and clamped to [1, maxBullets].
func Slides(slides []model.Slide, outline []model.OutlineItem, n, maxBullets int, topic string) []model.Slide {
	if n <= 0 {
		return nil
	}
	if maxBullets <= 0 {
		maxBullets = 1
	}
	outline = Outline(outline, n, topic)

	out := make([]model.Slide, n)
	for i := 0; i < n; i++ {
		item := outline[i]

		var s model.Slide
		if i < len(slides) && usable(slides[i]) {
			s = slides[i]
		} else {
			s = FallbackSlide(item, i+1, topic)
		}

		s.Index = i + 1
		s.Title = strings.TrimSpace(s.Title)
		if s.Title == "" {
			s.Title = item.Title
		}
		s.Bullets = cleanBullets(s.Bullets, maxBullets)
		if len(s.Bullets) == 0 {
			s.Bullets = cleanBullets(item.KeyPoints, maxBullets)
		}
		if len(s.Bullets) == 0 {
			s.Bullets = []string{fallbackBullet(s.Title, topic)}
		}
		if s.Layout == "" {
			s.Layout = item.Layout
		}
		s.Layout = normalizeLayout(s.Layout)
		s.SpeakerNotes = strings.TrimSpace(s.SpeakerNotes)
		if s.Source == "" {
			s.Source = model.SourceModel
		}
		out[i] = s
	}
	return out
}

// Visuals attaches exactly one prompt to every slide. Prompts are matched by
// slide index and the first prompt for an index wins; blank and out-of-range
// prompts are ignored. Slides left without a prompt get FallbackVisual and
// their indices are returned in ascending order.
func Visuals(prompts []model.VisualPrompt, slides []model.Slide, style string) ([]model.Slide, []int) {
	byIndex := make(map[int]string, len(prompts))
	for _, p := range prompts {
		text := strings.TrimSpace(p.Prompt)
		if text == "" || p.Index < 1 || p.Index > len(slides) {
			continue
		}
		if _, seen := byIndex[p.Index]; seen {
			continue
		}
		byIndex[p.Index] = text
	}

	out := make([]model.Slide, len(slides))
	copy(out, slides)

	var missing []int
	for i := range out {
		if p, ok := byIndex[i+1]; ok {
			out[i].VisualPrompt = p
			continue
		}
		out[i].VisualPrompt = FallbackVisual(out[i], style)
		missing = append(missing, i+1)
	}
	return out, missing
}

// ===== helpers =====

func usable(s model.Slide) bool {
	if strings.TrimSpace(s.Title) != "" {
		return true
	}
	for _, b := range s.Bullets {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

// cleanBullets trims, drops blanks and case-insensitive duplicates, and keeps
// at most limit entries. limit <= 0 means no limit.
func cleanBullets(in []string, limit int) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, b := range in {
		b = strings.Join(strings.Fields(b), " ")
		if b == "" {
			continue
		}
		key := strings.ToLower(b)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, b)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func normalizeLayout(l model.Layout) model.Layout {
	return model.ParseLayout(string(l))
}
