// Package document turns uploaded files into plain text the pipeline can use
// as source material. Text, markdown and HTML are supported; binary office
// formats are recognised and rejected.
package document

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	errx "github.com/deckforge/server/internal/core/error"
)

type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Document is the extracted text of an upload. HTML headings are rendered as
// markdown headings so they can seed an outline.
type Document struct {
	Filename string `json:"filename"`
	Format   Format `json:"format"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text"`
	Chars    int    `json:"chars"`
}

var byMediaType = map[string]Format{
	"text/plain":            FormatText,
	"text/markdown":         FormatMarkdown,
	"text/x-markdown":       FormatMarkdown,
	"text/html":             FormatHTML,
	"application/xhtml+xml": FormatHTML,
}

var byExtension = map[string]Format{
	".txt":      FormatText,
	".text":     FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".xhtml":    FormatHTML,
}

// binaryExtensions are known formats that need a real parser.
var binaryExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true,
	".odt": true, ".rtf": true, ".xls": true, ".xlsx": true,
}

// Extract detects the format from the content type, then the file extension,
// and returns the document text.
func Extract(filename, contentType string, data []byte) (*Document, error) {
	format, err := detect(filename, contentType)
	if err != nil {
		return nil, err
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return nil, unsupported(fmt.Sprintf("%s is not valid UTF-8 text", displayName(filename)))
	}

	doc := &Document{Filename: filename, Format: format}
	switch format {
	case FormatHTML:
		if err := extractHTML(doc, data); err != nil {
			return nil, err
		}
	default:
		doc.Text = normalizeLines(string(data))
	}

	if doc.Text == "" {
		return nil, errx.BadRequest(errx.ErrInvalidRequest, "document contains no text")
	}
	doc.Chars = utf8.RuneCountInString(doc.Text)
	return doc, nil
}

func detect(filename, contentType string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if binaryExtensions[ext] {
		return "", unsupported(fmt.Sprintf("%s files are not supported yet", strings.TrimPrefix(ext, ".")))
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if f, ok := byMediaType[strings.ToLower(mt)]; ok {
			// browsers send text/plain for markdown files
			if f == FormatText && byExtension[ext] == FormatMarkdown {
				return FormatMarkdown, nil
			}
			return f, nil
		}
	}
	if f, ok := byExtension[ext]; ok {
		return f, nil
	}
	return "", unsupported(fmt.Sprintf("cannot read %s", displayName(filename)))
}

func unsupported(msg string) error {
	return errx.New(errx.ErrUnsupportedDocument, http.StatusUnsupportedMediaType, msg)
}

func displayName(filename string) string {
	if filename == "" {
		return "upload"
	}
	return filepath.Base(filename)
}

const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, blockquote, pre, figcaption, td, th"

func extractHTML(doc *Document, data []byte) error {
	html, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return errx.BadRequest(errx.ErrInvalidRequest, fmt.Sprintf("failed to parse HTML: %v", err))
	}

	html.Find("script, style, noscript, template, svg, iframe, nav, footer, form").Remove()
	doc.Title = collapse(html.Find("title").First().Text())

	root := html.Find("body").First()
	for _, sel := range []string{"article", "main", "[role=main]", "#content", ".content"} {
		if s := html.Find(sel).First(); s.Length() > 0 && len(collapse(s.Text())) > 100 {
			root = s
			break
		}
	}

	var lines []string
	root.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// text of nested blocks is already part of their container
		if s.ParentsFiltered("li, blockquote, td, th").Length() > 0 {
			return
		}
		text := collapse(s.Text())
		if text == "" {
			return
		}
		switch tag := goquery.NodeName(s); tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(tag[1] - '0')
			lines = append(lines, "", strings.Repeat("#", level)+" "+text)
		case "li":
			lines = append(lines, "- "+text)
		default:
			lines = append(lines, "", text)
		}
	})

	if len(lines) == 0 {
		doc.Text = collapse(root.Text())
		if doc.Text == "" {
			doc.Text = doc.Title
		}
		return nil
	}
	doc.Text = normalizeLines(strings.Join(lines, "\n"))
	return nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeLines trims trailing space and squeezes runs of blank lines.
func normalizeLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	blank := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blank++
			continue
		}
		if b.Len() > 0 {
			if blank > 0 {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		blank = 0
		b.WriteString(line)
	}
	return b.String()
}
