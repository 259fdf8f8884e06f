// Package render formats answers and parsed documents as text, HTML or JSON.
package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"document-qa/internal/helper"
	"document-qa/internal/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

const (
	FormatText = "text"
	FormatHTML = "html"
	FormatJSON = "json"

	sourceRule = "---"
	pageRule   = "<hr/>"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		goldhtml.WithHardWraps(),
	),
)

// Formats lists the accepted output formats.
func Formats() []string {
	return []string{FormatText, FormatHTML, FormatJSON}
}

// Markdown lays out the answer body followed by each source's text and id.
func Markdown(result *models.QueryResult) string {
	var sb strings.Builder
	sb.WriteString("#### Answer\n\n")
	sb.WriteString(strings.TrimSpace(result.Answer.Body))
	sb.WriteString("\n\n#### Sources\n\n")
	for _, source := range result.Sources {
		sb.WriteString(strings.TrimSpace(source.Text))
		sb.WriteString("\n\n")
		sb.WriteString(source.SourceID())
		sb.WriteString("\n\n")
		sb.WriteString(sourceRule)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// MarkdownToHTML converts GitHub flavoured markdown to an HTML fragment.
func MarkdownToHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Result writes result to w in the given format.
func Result(w io.Writer, result *models.QueryResult, format string) error {
	switch format {
	case FormatText, "":
		_, err := io.WriteString(w, Markdown(result))
		return err
	case FormatHTML:
		out, err := MarkdownToHTML(Markdown(result))
		if err != nil {
			return fmt.Errorf("failed to render answer: %w", err)
		}
		_, err = fmt.Fprintln(w, out)
		return err
	case FormatJSON:
		return helper.PrettyPrint(w, result)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// DocumentHTML wraps every line of every page in a paragraph, with a rule
// between pages. Text is escaped so it is shown as written.
func DocumentHTML(pages []string) string {
	var sb strings.Builder
	for i, page := range pages {
		if i > 0 {
			sb.WriteString(pageRule)
		}
		for _, line := range strings.Split(page, "\n") {
			sb.WriteString("<p>")
			sb.WriteString(html.EscapeString(line))
			sb.WriteString("</p>")
		}
	}
	return sb.String()
}

// DocumentText joins the pages with a page marker between them.
func DocumentText(pages []string) string {
	var sb strings.Builder
	for i, page := range pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "--- page %d ---\n", i+1)
		sb.WriteString(page)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Document writes the parsed pages of doc to w in the given format.
func Document(w io.Writer, doc *models.Document, format string) error {
	switch format {
	case FormatText, "":
		_, err := io.WriteString(w, DocumentText(doc.Pages))
		return err
	case FormatHTML:
		_, err := fmt.Fprintln(w, DocumentHTML(doc.Pages))
		return err
	case FormatJSON:
		return helper.PrettyPrint(w, doc)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Chunks writes every chunk with its source id, for inspecting the index.
func Chunks(w io.Writer, chunks []models.Chunk, format string) error {
	if format == FormatJSON {
		return helper.PrettyPrint(w, chunks)
	}
	for _, c := range chunks {
		if _, err := fmt.Fprintf(w, "[%s] %s\n\n", c.SourceID(), strings.TrimSpace(c.Text)); err != nil {
			return err
		}
	}
	return nil
}
