package parsers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/deckforge/server/internal/deck/model"
)

// ErrNoVisuals means the response held no usable image prompt.
var ErrNoVisuals = errors.New("response has no usable visual prompts")

type rawVisual struct {
	Index       *flexInt   `json:"index"`
	Slide       *flexInt   `json:"slide"`
	SlideIndex  *flexInt   `json:"slide_index"`
	SlideNumber *flexInt   `json:"slide_number"`
	Prompt      flexString `json:"prompt"`
	ImagePrompt flexString `json:"image_prompt"`
	Visual      flexString `json:"visual_prompt"`
	Description flexString `json:"description"`
}

type rawVisuals struct {
	Visuals []json.RawMessage `json:"visuals"`
	Prompts []json.RawMessage `json:"prompts"`
	Images  []json.RawMessage `json:"images"`
	Slides  []json.RawMessage `json:"slides"`
}

// ParseVisuals decodes image prompts. Entries without an explicit slide
// index take their 1-based position in the list. When any explicit index is
// 0 the model counted from zero and every explicit index is shifted up by
// one. Indices are not validated against the deck here; reconciliation does
// that.
func ParseVisuals(content string) (out []model.VisualPrompt, err error) {
	defer recoverParser("visual_parser", &err)

	js, err := extract(content, "visual_parser")
	if err != nil {
		return nil, err
	}

	var entries []json.RawMessage
	if strings.HasPrefix(js, "[") {
		if err := json.Unmarshal([]byte(js), &entries); err != nil {
			return nil, fmt.Errorf("decode visuals: %w", err)
		}
	} else {
		var wrapped rawVisuals
		if err := json.Unmarshal([]byte(js), &wrapped); err != nil {
			return nil, fmt.Errorf("decode visuals: %w", err)
		}
		for _, l := range [][]json.RawMessage{wrapped.Visuals, wrapped.Prompts, wrapped.Images, wrapped.Slides} {
			if len(l) > 0 {
				entries = l
				break
			}
		}
	}

	out = make([]model.VisualPrompt, 0, len(entries))
	explicit := make([]bool, 0, len(entries))
	zeroBased := false
	for pos, e := range entries {
		vp, hasIndex, ok := decodeVisual(e, pos+1)
		if !ok {
			continue
		}
		if hasIndex && vp.Index == 0 {
			zeroBased = true
		}
		out = append(out, vp)
		explicit = append(explicit, hasIndex)
	}
	if len(out) == 0 {
		return nil, ErrNoVisuals
	}
	if zeroBased {
		for i := range out {
			if explicit[i] {
				out[i].Index++
			}
		}
	}
	return out, nil
}

// decodeVisual reports whether the entry carried its own slide index.
func decodeVisual(e json.RawMessage, position int) (vp model.VisualPrompt, hasIndex bool, ok bool) {
	e = bytes.TrimSpace(e)
	if len(e) > 0 && e[0] == '"' {
		var s string
		if err := json.Unmarshal(e, &s); err != nil || strings.TrimSpace(s) == "" {
			return model.VisualPrompt{}, false, false
		}
		return model.VisualPrompt{Index: position, Prompt: clip(s)}, false, true
	}

	var rv rawVisual
	if err := json.Unmarshal(e, &rv); err != nil {
		return model.VisualPrompt{}, false, false
	}
	prompt := clip(firstNonEmpty(rv.Prompt, rv.ImagePrompt, rv.Visual, rv.Description))
	if prompt == "" {
		return model.VisualPrompt{}, false, false
	}
	for _, v := range []*flexInt{rv.Index, rv.Slide, rv.SlideIndex, rv.SlideNumber} {
		if v != nil && *v >= 0 {
			return model.VisualPrompt{Index: int(*v), Prompt: prompt}, true, true
		}
	}
	return model.VisualPrompt{Index: position, Prompt: prompt}, false, true
}
