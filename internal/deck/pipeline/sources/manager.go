package sources

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/deckforge/server/internal/deck/model"
)

// SourceManager prepares user supplied documents for prompt context.
type SourceManager struct {
	maxChars int
}

func NewSourceManager(config model.PipelineConfig) *SourceManager {
	return &SourceManager{
		maxChars: config.WithDefaults().MaxSourceChars,
	}
}

// =========== Function for Outline ===========

// BuildSourceContext trims the request document to the configured budget and
// wraps it for the prompt. It returns "" when there is no document.
func (sm *SourceManager) BuildSourceContext(req model.GenerateRequest) string {
	doc := normalizeText(req.Document)
	if doc == "" {
		return ""
	}
	return wrap(truncateRunes(doc, sm.maxChars))
}

// =========== Function for Slides ===========

// RelevantExcerpt picks the paragraphs of the request document that share
// the most words with the slide title and key points, keeping their original
// order, within a budget of a third of the source limit.
func (sm *SourceManager) RelevantExcerpt(req model.GenerateRequest, item model.OutlineItem) string {
	doc := normalizeText(req.Document)
	if doc == "" {
		return ""
	}
	limit := sm.maxChars / 3
	if limit <= 0 {
		return ""
	}

	query := keywords(item.Title + " " + strings.Join(item.KeyPoints, " "))
	paras := splitParagraphs(doc)

	type scored struct {
		pos   int
		score int
	}
	ranked := make([]scored, 0, len(paras))
	for i, p := range paras {
		s := 0
		for w := range keywords(p) {
			if _, ok := query[w]; ok {
				s++
			}
		}
		if s > 0 {
			ranked = append(ranked, scored{pos: i, score: s})
		}
	}
	if len(ranked) == 0 {
		return ""
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	picked := make([]int, 0, len(ranked))
	used := 0
	for _, r := range ranked {
		n := utf8.RuneCountInString(paras[r.pos])
		if used+n > limit {
			if len(picked) == 0 {
				// one oversized paragraph still beats nothing
				picked = append(picked, r.pos)
			}
			break
		}
		picked = append(picked, r.pos)
		used += n
	}
	sort.Ints(picked)

	var b strings.Builder
	for i, pos := range picked {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(paras[pos])
	}
	return wrap(truncateRunes(b.String(), limit))
}

// ====================== Helper function ======================

func wrap(s string) string {
	var b strings.Builder
	b.WriteString("<source_material>\n")
	b.WriteString(s)
	b.WriteString("\n</source_material>")
	return b.String()
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

func splitParagraphs(doc string) []string {
	raw := strings.Split(doc, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// truncateRunes cuts s to at most n runes, preferring a paragraph or line
// break in the last fifth of the budget.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)[:n]
	cut := string(r)
	if i := strings.LastIndexAny(cut, "\n"); i >= len(cut)*4/5 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

// stopwords are skipped when matching paragraphs against a slide.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "are": {}, "was": {}, "were": {}, "has": {}, "have": {},
	"into": {}, "about": {}, "your": {}, "their": {}, "our": {}, "its": {},
}

func keywords(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if utf8.RuneCountInString(w) < 3 {
			continue
		}
		if _, skip := stopwords[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}
