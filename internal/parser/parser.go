package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"document-qa/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
)

const (
	formatPDF  = "pdf"
	formatDOCX = "docx"
	formatTXT  = "txt"
)

var (
	hyphenBreakRe = regexp.MustCompile(models.HyphenBreakRegex)
	blankLinesRe  = regexp.MustCompile(models.BlankLinesRegex)
	utf8BOM       = []byte{0xEF, 0xBB, 0xBF}
)

// SupportedExtensions lists the upload types Parse accepts.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".txt"}
}

// ParseFile reads path and parses it by extension.
func ParseFile(filePath string) (*models.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return Parse(filepath.Base(filePath), data)
}

// Parse converts raw upload bytes into page text. PDF yields one string per
// page; DOCX and TXT yield a single page.
func Parse(filename string, data []byte) (*models.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		pages  []string
		format string
		err    error
	)
	switch ext {
	case ".pdf":
		format = formatPDF
		pages, err = parsePDF(data)
	case ".docx":
		format = formatDOCX
		pages, err = parseDOCX(data)
	case ".txt":
		format = formatTXT
		pages, err = parseText(data)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	log.Debug().Str("file", filename).Str("format", format).Int("pages", len(pages)).Msg("Parsed document")
	return &models.Document{Name: filename, Format: format, Pages: pages}, nil
}

func parsePDF(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", models.ErrDecode, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: pdf page %d: %v", models.ErrDecode, i, err)
		}
		pages = append(pages, NormalizePDFPage(pageText))
	}
	return pages, nil
}

// NormalizePDFPage merges hyphenated line breaks, turns single newlines into
// spaces and leaves exactly one blank line between paragraphs.
func NormalizePDFPage(text string) string {
	text = strings.TrimSpace(text)
	text = hyphenBreakRe.ReplaceAllString(text, "${1}${2}")

	paragraphs := blankLinesRe.Split(text, -1)
	for i, p := range paragraphs {
		paragraphs[i] = strings.ReplaceAll(p, "\n", " ")
	}
	return strings.Join(paragraphs, "\n\n")
}

// CollapseBlankLines replaces every run of blank lines with a single blank line.
func CollapseBlankLines(text string) string {
	return blankLinesRe.ReplaceAllString(text, "\n\n")
}

func parseText(data []byte) ([]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", models.ErrDecode)
	}
	return []string{CollapseBlankLines(string(data))}, nil
}

func parseDOCX(data []byte) ([]string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %v", models.ErrDecode, err)
	}
	defer r.Close()

	text, err := extractTextFromXML(strings.NewReader(r.Editable().GetContent()))
	if err != nil {
		return nil, fmt.Errorf("%w: docx body: %v", models.ErrDecode, err)
	}
	return []string{CollapseBlankLines(text)}, nil
}

// extractTextFromXML walks word/document.xml and keeps run text, tabs and
// line breaks. Every paragraph ends with a newline.
func extractTextFromXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t", "instrText":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return "", err
				}
				if t.Name.Local == "t" {
					text.WriteString(s)
				}
			case "tab":
				text.WriteByte('\t')
			case "br", "cr":
				text.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				text.WriteByte('\n')
			}
		}
	}
	return text.String(), nil
}
