// Package export renders a deck into downloadable files.
package export

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	errx "github.com/deckforge/server/internal/core/error"
	"github.com/deckforge/server/internal/deck/model"
)

// Exporter renders a deck into one file format.
type Exporter interface {
	Format() string
	ContentType() string
	Extension() string
	Export(deck *model.Deck) ([]byte, error)
}

var registry = map[string]Exporter{}

func register(e Exporter) {
	registry[e.Format()] = e
}

func init() {
	register(JSONExporter{})
	register(PPTXExporter{})
	register(PDFExporter{})
}

// Get returns the exporter for format (case-insensitive). An empty format
// selects pptx.
func Get(format string) (Exporter, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatPPTX
	}
	e, ok := registry[format]
	if !ok {
		return nil, errx.BadRequest(errx.ErrUnsupportedFormat,
			fmt.Sprintf("format %q is not one of %s", format, strings.Join(Formats(), ", ")))
	}
	return e, nil
}

// Formats lists the registered format names, sorted.
func Formats() []string {
	out := make([]string, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Filename builds a download name from the deck title, e.g. "solar-power.pptx".
func Filename(deck *model.Deck, e Exporter) string {
	base := strings.Trim(unsafeFilenameRe.ReplaceAllString(strings.ToLower(deck.Title), "-"), "-")
	if len(base) > 60 {
		base = strings.TrimRight(base[:60], "-")
	}
	if base == "" {
		base = "deck"
	}
	return base + e.Extension()
}
