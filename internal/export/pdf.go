package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/deckforge/server/internal/deck/model"
	"github.com/deckforge/server/internal/themes"
)

const FormatPDF = "pdf"

// PDFExporter renders one landscape page per slide, speaker notes included.
type PDFExporter struct{}

func (PDFExporter) Format() string      { return FormatPDF }
func (PDFExporter) ContentType() string { return "application/pdf" }
func (PDFExporter) Extension() string   { return ".pdf" }

func (PDFExporter) Export(deck *model.Deck) ([]byte, error) {
	theme := themes.Get(deck.Theme)

	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		WithDefaultFont(&props.Font{
			Family: fontfamily.Arial,
			Size:   12,
		}).
		Build()

	m := maroto.New(cfg)

	pages := make([]core.Page, 0, len(deck.Slides))
	for i, s := range deck.Slides {
		pages = append(pages, slidePage(deck, s, i == 0, theme))
	}
	m.AddPages(pages...)

	document, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return document.GetBytes(), nil
}

func pdfColor(hex string) *props.Color {
	r, g, b := themes.RGB(hex)
	return &props.Color{Red: r, Green: g, Blue: b}
}

func slidePage(deck *model.Deck, s model.Slide, first bool, theme themes.Theme) core.Page {
	rows := []core.Row{
		row.New(4).WithStyle(&props.Cell{BackgroundColor: pdfColor(theme.Accent)}),
		row.New(18).Add(col.New(12).Add(
			text.New(s.Title, props.Text{
				Family: fontfamily.Arial,
				Size:   22,
				Style:  fontstyle.Bold,
				Color:  pdfColor(theme.Primary),
				Top:    4,
			}),
		)),
	}

	if first && deck.Subtitle != "" {
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New(deck.Subtitle, props.Text{
				Family: fontfamily.Arial,
				Size:   14,
				Color:  pdfColor(theme.Muted),
			}),
		)))
	}

	for _, b := range s.Bullets {
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New("• "+b, props.Text{
				Family: fontfamily.Arial,
				Size:   13,
				Color:  pdfColor(theme.Text),
				Left:   4,
			}),
		)))
	}

	if s.VisualPrompt != "" {
		rows = append(rows, row.New(12).Add(col.New(12).Add(
			text.New("Visual: "+s.VisualPrompt, props.Text{
				Family: fontfamily.Arial,
				Size:   9,
				Style:  fontstyle.Italic,
				Color:  pdfColor(theme.Muted),
				Top:    3,
			}),
		)))
	}

	if s.SpeakerNotes != "" {
		rows = append(rows,
			row.New(8).Add(col.New(12).Add(
				text.New("Speaker notes", props.Text{
					Family: fontfamily.Arial,
					Size:   10,
					Style:  fontstyle.Bold,
					Color:  pdfColor(theme.Muted),
					Top:    2,
				}),
			)),
			row.New(16).Add(col.New(12).Add(
				text.New(s.SpeakerNotes, props.Text{
					Family: fontfamily.Arial,
					Size:   10,
					Color:  pdfColor(theme.Muted),
				}),
			)),
		)
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(fmt.Sprintf("%d / %d", s.Index, len(deck.Slides)), props.Text{
			Family: fontfamily.Arial,
			Size:   8,
			Align:  align.Right,
			Color:  pdfColor(theme.Muted),
		}),
	)))

	return page.New().Add(rows...)
}
