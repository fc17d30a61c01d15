package reconcile

import (
	"fmt"
	"strings"

	"github.com/deckforge/server/internal/deck/model"
)

const maxDocumentHeadings = 50

// FallbackOutline plans a deck without the model. The first slide introduces
// the topic and the last one closes it; markdown headings of the document,
// when present, become the sections in between.
func FallbackOutline(req model.GenerateRequest) model.Outline {
	n := req.SlideCount
	if n <= 0 {
		n = 1
	}
	out := model.Outline{Title: req.Topic}
	if n == 1 {
		out.Items = []model.OutlineItem{{
			Title:     req.Topic,
			KeyPoints: []string{fmt.Sprintf("Overview of %s", req.Topic)},
			Layout:    model.LayoutTitle,
		}}
		return out
	}

	intro := model.OutlineItem{
		Title:     req.Topic,
		KeyPoints: []string{fmt.Sprintf("Overview of %s", req.Topic)},
		Layout:    model.LayoutTitle,
	}
	closing := model.OutlineItem{
		Title:     "Summary",
		KeyPoints: []string{fmt.Sprintf("Key takeaways on %s", req.Topic)},
		Layout:    model.LayoutClosing,
	}

	middle := make([]model.OutlineItem, 0, n-2)
	taken := map[string]struct{}{
		strings.ToLower(intro.Title):   {},
		strings.ToLower(closing.Title): {},
	}
	for _, h := range documentHeadings(req.Document) {
		if len(middle) == n-2 {
			break
		}
		if _, dup := taken[strings.ToLower(h)]; dup {
			continue
		}
		taken[strings.ToLower(h)] = struct{}{}
		middle = append(middle, model.OutlineItem{Title: h, KeyPoints: []string{h}, Layout: model.LayoutBullets})
	}

	// pad against the full set of titles so fillers stay unique
	withEnds := append([]model.OutlineItem{intro, closing}, middle...)
	withEnds = pad(withEnds, n, req.Topic)

	out.Items = make([]model.OutlineItem, 0, n)
	out.Items = append(out.Items, intro)
	out.Items = append(out.Items, withEnds[2:]...)
	out.Items = append(out.Items, closing)
	return out
}

// FallbackSlide builds a slide from its outline item alone.
func FallbackSlide(item model.OutlineItem, index int, topic string) model.Slide {
	bullets := cleanBullets(item.KeyPoints, 0)
	if len(bullets) == 0 {
		bullets = []string{fallbackBullet(item.Title, topic)}
	}
	return model.Slide{
		Index:   index,
		Title:   item.Title,
		Layout:  normalizeLayout(item.Layout),
		Bullets: bullets,
		Source:  model.SourceFallback,
	}
}

// FallbackVisual derives an image prompt from the slide title and first bullet.
func FallbackVisual(s model.Slide, style string) string {
	style = strings.TrimSpace(style)
	if style == "" {
		style = "Clean modern illustration"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s representing %q", style, s.Title)
	if len(s.Bullets) > 0 {
		fmt.Fprintf(&b, ", highlighting %s", strings.TrimSpace(s.Bullets[0]))
	}
	b.WriteString(", no text in the image")
	return b.String()
}

func fallbackBullet(title, topic string) string {
	if title == "" || strings.EqualFold(title, topic) {
		return fmt.Sprintf("Introduction to %s", topic)
	}
	return fmt.Sprintf("%s in the context of %s", title, topic)
}

func documentHeadings(doc string) []string {
	var out []string
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		h := strings.TrimSpace(strings.TrimLeft(line, "#"))
		if h == "" {
			continue
		}
		out = append(out, h)
		if len(out) == maxDocumentHeadings {
			break
		}
	}
	return out
}
