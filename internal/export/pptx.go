package export

import (
	"bytes"
	"fmt"
	"strings"

	ppt "github.com/VantageDataChat/GoPPT"

	"github.com/deckforge/server/internal/deck/model"
	"github.com/deckforge/server/internal/themes"
)

const FormatPPTX = "pptx"

// 16:9 layout, sizes in EMU
const (
	emuPerInch = 914400

	slideWidth    = int64(10.0 * emuPerInch)
	slideHeight   = int64(5.625 * emuPerInch)
	marginLeft    = int64(0.5 * emuPerInch)
	contentWidth  = int64(9.0 * emuPerInch)
	bodyTop       = int64(1.3 * emuPerInch)
	bodyHeight    = int64(3.6 * emuPerInch)
	captionTop    = int64(5.05 * emuPerInch)
	captionHeight = int64(0.4 * emuPerInch)

	fontTitleSlide = 36
	fontSubtitle   = 20
	fontHeading    = 28
	fontBody       = 16
	fontQuote      = 24
	fontCaption    = 10
)

// PPTXExporter renders one PowerPoint slide per deck slide.
type PPTXExporter struct{}

func (PPTXExporter) Format() string { return FormatPPTX }
func (PPTXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
}
func (PPTXExporter) Extension() string { return ".pptx" }

func (PPTXExporter) Export(deck *model.Deck) ([]byte, error) {
	theme := themes.Get(deck.Theme)

	p := ppt.New()
	p.GetDocumentProperties().Title = deck.Title
	p.GetDocumentProperties().Creator = "deckforge"

	for i, s := range deck.Slides {
		var slide *ppt.Slide
		if i == 0 {
			slide = p.GetActiveSlide()
		} else {
			slide = p.CreateSlide()
		}
		r := slideRenderer{slide: slide, theme: theme}
		r.background()

		switch s.Layout {
		case model.LayoutTitle, model.LayoutClosing:
			subtitle := ""
			if i == 0 {
				subtitle = deck.Subtitle
			}
			r.titleSlide(s, subtitle)
		case model.LayoutTwoColumn:
			r.header(s.Title)
			half := (len(s.Bullets) + 1) / 2
			gap := int64(0.3 * emuPerInch)
			colWidth := (contentWidth - gap) / 2
			r.bullets(s.Bullets[:half], marginLeft, colWidth)
			r.bullets(s.Bullets[half:], marginLeft+colWidth+gap, colWidth)
		case model.LayoutImage:
			r.header(s.Title)
			textWidth := int64(5.2 * emuPerInch)
			r.bullets(s.Bullets, marginLeft, textWidth)
			r.imagePlaceholder(s.VisualPrompt, marginLeft+textWidth+int64(0.3*emuPerInch))
		case model.LayoutQuote:
			r.quote(s)
		default:
			r.header(s.Title)
			r.bullets(s.Bullets, marginLeft, contentWidth)
		}

		if s.VisualPrompt != "" && s.Layout != model.LayoutImage {
			r.caption("Visual: " + s.VisualPrompt)
		}
	}

	w, err := ppt.NewWriter(p, ppt.WriterPowerPoint2007)
	if err != nil {
		return nil, fmt.Errorf("failed to create PPT writer: %w", err)
	}
	var buf bytes.Buffer
	if err := w.(*ppt.PPTXWriter).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to save PPT: %w", err)
	}
	return buf.Bytes(), nil
}

type slideRenderer struct {
	slide *ppt.Slide
	theme themes.Theme
}

func solidFill(argb string) *ppt.Fill {
	return ppt.NewFill().SetSolid(ppt.NewColor(argb))
}

func alignCenter(p *ppt.Paragraph) {
	p.SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalCenter))
}

func (r slideRenderer) color(hex string) ppt.Color {
	return ppt.NewColor(themes.ARGB(hex))
}

func (r slideRenderer) background() {
	bg := r.slide.CreateRichTextShape()
	bg.SetOffsetX(0).SetOffsetY(0)
	bg.SetWidth(slideWidth).SetHeight(slideHeight)
	bg.SetFill(solidFill(themes.ARGB(r.theme.Background)))

	bar := r.slide.CreateRichTextShape()
	bar.SetOffsetX(0).SetOffsetY(0)
	bar.SetWidth(slideWidth).SetHeight(int64(0.08 * emuPerInch))
	bar.SetFill(solidFill(themes.ARGB(r.theme.Accent)))
}

func (r slideRenderer) header(title string) {
	shape := r.slide.CreateRichTextShape()
	shape.SetOffsetX(marginLeft).SetOffsetY(int64(0.35 * emuPerInch))
	shape.SetWidth(contentWidth).SetHeight(int64(0.8 * emuPerInch))
	tr := shape.CreateTextRun(title)
	tr.GetFont().SetSize(fontHeading).SetBold(true).SetColor(r.color(r.theme.Primary))
}

func (r slideRenderer) bullets(items []string, x, width int64) {
	if len(items) == 0 {
		return
	}
	shape := r.slide.CreateRichTextShape()
	shape.SetOffsetX(x).SetOffsetY(bodyTop)
	shape.SetWidth(width).SetHeight(bodyHeight)
	for i, b := range items {
		if i > 0 {
			shape.CreateParagraph()
		}
		tr := shape.CreateTextRun("• " + b)
		tr.GetFont().SetSize(fontBody).SetColor(r.color(r.theme.Text))
	}
}

func (r slideRenderer) titleSlide(s model.Slide, subtitle string) {
	title := r.slide.CreateRichTextShape()
	title.SetOffsetX(marginLeft).SetOffsetY(int64(1.5 * emuPerInch))
	title.SetWidth(contentWidth).SetHeight(int64(1.1 * emuPerInch))
	tr := title.CreateTextRun(s.Title)
	tr.GetFont().SetSize(fontTitleSlide).SetBold(true).SetColor(r.color(r.theme.Primary))
	alignCenter(title.GetActiveParagraph())

	lines := s.Bullets
	if subtitle != "" {
		lines = append([]string{subtitle}, lines...)
	}
	if len(lines) == 0 {
		return
	}
	sub := r.slide.CreateRichTextShape()
	sub.SetOffsetX(marginLeft).SetOffsetY(int64(2.8 * emuPerInch))
	sub.SetWidth(contentWidth).SetHeight(int64(1.8 * emuPerInch))
	for i, line := range lines {
		if i > 0 {
			sub.CreateParagraph()
		}
		run := sub.CreateTextRun(line)
		run.GetFont().SetSize(fontSubtitle).SetColor(r.color(r.theme.Muted))
		alignCenter(sub.GetActiveParagraph())
	}
}

func (r slideRenderer) quote(s model.Slide) {
	r.header(s.Title)
	if len(s.Bullets) == 0 {
		return
	}

	shape := r.slide.CreateRichTextShape()
	shape.SetOffsetX(int64(1.0 * emuPerInch)).SetOffsetY(int64(1.6 * emuPerInch))
	shape.SetWidth(int64(8.0 * emuPerInch)).SetHeight(int64(2.0 * emuPerInch))
	shape.SetFill(solidFill(themes.ARGB(r.theme.Surface)))
	tr := shape.CreateTextRun("“" + s.Bullets[0] + "”")
	tr.GetFont().SetSize(fontQuote).SetColor(r.color(r.theme.Primary))
	alignCenter(shape.GetActiveParagraph())

	if len(s.Bullets) > 1 {
		rest := r.slide.CreateRichTextShape()
		rest.SetOffsetX(int64(1.0 * emuPerInch)).SetOffsetY(int64(3.8 * emuPerInch))
		rest.SetWidth(int64(8.0 * emuPerInch)).SetHeight(int64(1.0 * emuPerInch))
		run := rest.CreateTextRun(strings.Join(s.Bullets[1:], " · "))
		run.GetFont().SetSize(fontBody).SetColor(r.color(r.theme.Muted))
		alignCenter(rest.GetActiveParagraph())
	}
}

func (r slideRenderer) imagePlaceholder(prompt string, x int64) {
	box := r.slide.CreateRichTextShape()
	box.SetOffsetX(x).SetOffsetY(bodyTop)
	box.SetWidth(slideWidth - x - marginLeft).SetHeight(bodyHeight)
	box.SetFill(solidFill(themes.ARGB(r.theme.Surface)))
	if prompt == "" {
		prompt = "Image"
	}
	tr := box.CreateTextRun(prompt)
	tr.GetFont().SetSize(fontCaption).SetColor(r.color(r.theme.Muted))
	alignCenter(box.GetActiveParagraph())
}

func (r slideRenderer) caption(text string) {
	shape := r.slide.CreateRichTextShape()
	shape.SetOffsetX(marginLeft).SetOffsetY(captionTop)
	shape.SetWidth(contentWidth).SetHeight(captionHeight)
	tr := shape.CreateTextRun(truncate(text, 180))
	tr.GetFont().SetSize(fontCaption).SetColor(r.color(r.theme.Muted))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
