package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	errx "github.com/deckforge/server/internal/core/error"
	"github.com/deckforge/server/internal/deck/model"
	logx "github.com/deckforge/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen   = 256 * 1024 // 256KB
	maxOutlineItems = 100
	maxPointsPerRow = 12
	maxTextRunes    = 600
)

var ErrNoItems = errors.New("outline has no usable items")

type rawOutline struct {
	Title    flexString       `json:"title"`
	Subtitle flexString       `json:"subtitle"`
	Slides   []rawOutlineItem `json:"slides"`
	Items    []rawOutlineItem `json:"items"`
	Outline  []rawOutlineItem `json:"outline"`
	Sections []rawOutlineItem `json:"sections"`
}

type rawOutlineItem struct {
	Title     flexString  `json:"title"`
	Heading   flexString  `json:"heading"`
	KeyPoints flexStrings `json:"key_points"`
	Points    flexStrings `json:"points"`
	Bullets   flexStrings `json:"bullets"`
	Layout    flexString  `json:"layout"`
}

// ParseOutline decodes an outline from model output. Both a wrapped object
// and a bare array of items are accepted.
func ParseOutline(content string) (out *model.Outline, err error) {
	defer recoverParser("outline_parser", &err)

	js, err := extract(content, "outline_parser")
	if err != nil {
		return nil, err
	}

	var raw rawOutline
	if strings.HasPrefix(js, "[") {
		if err := json.Unmarshal([]byte(js), &raw.Items); err != nil {
			return nil, fmt.Errorf("decode outline items: %w", err)
		}
	} else if err := json.Unmarshal([]byte(js), &raw); err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}

	rows := firstNonEmptyItems(raw.Slides, raw.Items, raw.Outline, raw.Sections)
	if len(rows) > maxOutlineItems {
		logx.Warn().Str("component", "outline_parser").Int("items", len(rows)).Msg("outline items capped")
		rows = rows[:maxOutlineItems]
	}

	out = &model.Outline{
		Title:    clip(string(raw.Title)),
		Subtitle: clip(string(raw.Subtitle)),
		Items:    make([]model.OutlineItem, 0, len(rows)),
	}
	for _, r := range rows {
		title := clip(firstNonEmpty(r.Title, r.Heading))
		if title == "" {
			continue
		}
		points := firstNonEmptyList(r.KeyPoints, r.Points, r.Bullets)
		if len(points) > maxPointsPerRow {
			points = points[:maxPointsPerRow]
		}
		out.Items = append(out.Items, model.OutlineItem{
			Title:     title,
			KeyPoints: clipAll(points),
			Layout:    model.ParseLayout(string(r.Layout)),
		})
	}
	if len(out.Items) == 0 {
		return nil, ErrNoItems
	}
	return out, nil
}

func firstNonEmptyItems(lists ...[]rawOutlineItem) []rawOutlineItem {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

// --- helpers shared by the parsers ---

func extract(content, component string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", errx.ErrEmptyResponse
	}
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", component).
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}
	js, err := ExtractJSON(content)
	if err != nil {
		logx.Debug().Str("component", component).Str("snippet", safeSnippet(content)).Err(err).Msg("no json found")
		return "", err
	}
	return js, nil
}

func recoverParser(component string, err *error) {
	if r := recover(); r != nil {
		logx.Error().Str("component", component).Msgf("panic recovered: %v", r)
		*err = errx.New(fmt.Errorf("%s panic", component), http.StatusInternalServerError, errx.SystemErrorMessage)
	}
}

const maxErrSnippet = 200

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxTextRunes {
		return s
	}
	return strings.TrimSpace(string(r[:maxTextRunes-1])) + "…"
}

func clipAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = clip(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
