package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/deckforge/server/internal/deck/model"
)

const maxBulletsParsed = 20

var ErrEmptySlide = errors.New("slide has neither title nor bullets")

type rawSlide struct {
	Title        flexString  `json:"title"`
	Heading      flexString  `json:"heading"`
	Bullets      flexStrings `json:"bullets"`
	Points       flexStrings `json:"points"`
	KeyPoints    flexStrings `json:"key_points"`
	Content      flexStrings `json:"content"`
	SpeakerNotes flexString  `json:"speaker_notes"`
	Notes        flexString  `json:"notes"`
	Layout       flexString  `json:"layout"`
	Slide        *rawSlide   `json:"slide"`
}

// ParseSlide decodes the content of a single slide. The model may wrap it in
// {"slide": {...}} or return a one-element array.
func ParseSlide(content string) (out *model.Slide, err error) {
	defer recoverParser("slide_parser", &err)

	js, err := extract(content, "slide_parser")
	if err != nil {
		return nil, err
	}

	var raw rawSlide
	if strings.HasPrefix(js, "[") {
		var arr []rawSlide
		if err := json.Unmarshal([]byte(js), &arr); err != nil {
			return nil, fmt.Errorf("decode slide array: %w", err)
		}
		if len(arr) == 0 {
			return nil, ErrEmptySlide
		}
		raw = arr[0]
	} else if err := json.Unmarshal([]byte(js), &raw); err != nil {
		return nil, fmt.Errorf("decode slide: %w", err)
	}
	if raw.Slide != nil {
		raw = *raw.Slide
	}

	bullets := firstNonEmptyList(raw.Bullets, raw.Points, raw.KeyPoints, raw.Content)
	if len(bullets) > maxBulletsParsed {
		bullets = bullets[:maxBulletsParsed]
	}

	out = &model.Slide{
		Title:        clip(firstNonEmpty(raw.Title, raw.Heading)),
		Bullets:      clipAll(bullets),
		SpeakerNotes: strings.TrimSpace(firstNonEmpty(raw.SpeakerNotes, raw.Notes)),
		Source:       model.SourceModel,
	}
	if raw.Layout != "" {
		out.Layout = model.ParseLayout(string(raw.Layout))
	}
	if out.Title == "" && len(out.Bullets) == 0 {
		return nil, ErrEmptySlide
	}
	return out, nil
}
