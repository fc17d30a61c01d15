package export

import (
	"encoding/json"
	"fmt"

	"github.com/deckforge/server/internal/deck/model"
)

const FormatJSON = "json"

// JSONExporter writes the deck as indented JSON.
type JSONExporter struct{}

func (JSONExporter) Format() string      { return FormatJSON }
func (JSONExporter) ContentType() string { return "application/json" }
func (JSONExporter) Extension() string   { return ".json" }

func (JSONExporter) Export(deck *model.Deck) ([]byte, error) {
	b, err := json.MarshalIndent(deck, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal deck: %w", err)
	}
	return b, nil
}
