// Package themes holds the built-in colour and font schemes decks are
// rendered with.
package themes

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTheme is used for empty or unknown theme names.
const DefaultTheme = "corporate"

//go:embed themes.yaml
var themesYAML []byte

type Theme struct {
	Name       string `yaml:"name" json:"name"`
	Label      string `yaml:"label" json:"label"`
	Background string `yaml:"background" json:"background"`
	Surface    string `yaml:"surface" json:"surface"`
	Primary    string `yaml:"primary" json:"primary"`
	Accent     string `yaml:"accent" json:"accent"`
	Text       string `yaml:"text" json:"text"`
	Muted      string `yaml:"muted" json:"muted"`
	TitleFont  string `yaml:"title_font" json:"title_font"`
	BodyFont   string `yaml:"body_font" json:"body_font"`
	ImageStyle string `yaml:"image_style" json:"image_style"`
}

var (
	all    []Theme
	byName map[string]Theme
)

func init() {
	var err error
	all, err = parse(themesYAML)
	if err != nil {
		panic(fmt.Sprintf("themes: %v", err))
	}
	byName = make(map[string]Theme, len(all))
	for _, t := range all {
		byName[t.Name] = t
	}
	if _, ok := byName[DefaultTheme]; !ok {
		panic("themes: default theme missing")
	}
}

func parse(data []byte) ([]Theme, error) {
	var list []Theme
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode themes: %w", err)
	}
	seen := map[string]bool{}
	for i := range list {
		t := &list[i]
		t.Name = strings.ToLower(strings.TrimSpace(t.Name))
		if t.Name == "" {
			return nil, fmt.Errorf("theme %d has no name", i)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate theme %q", t.Name)
		}
		seen[t.Name] = true
		for _, c := range []string{t.Background, t.Surface, t.Primary, t.Accent, t.Text, t.Muted} {
			if _, _, _, err := parseHex(c); err != nil {
				return nil, fmt.Errorf("theme %q: %w", t.Name, err)
			}
		}
	}
	return list, nil
}

// List returns every theme in declaration order.
func List() []Theme {
	out := make([]Theme, len(all))
	copy(out, all)
	return out
}

// Get looks a theme up case-insensitively and falls back to DefaultTheme.
func Get(name string) Theme {
	if t, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return byName[DefaultTheme]
}

// Exists reports whether name is a known theme.
func Exists(name string) bool {
	_, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// ARGB returns hex prefixed with an opaque alpha channel, as PPTX colours expect.
func ARGB(hex string) string {
	return "FF" + strings.ToUpper(strings.TrimPrefix(hex, "#"))
}

// RGB splits a hex colour into its components. Invalid input yields black.
func RGB(hex string) (r, g, b int) {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return 0, 0, 0
	}
	return r, g, b
}

func parseHex(hex string) (r, g, b int, err error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid colour %q", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid colour %q", hex)
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF), nil
}
