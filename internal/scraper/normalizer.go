package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var textReplacer = strings.NewReplacer("\u00a0", " ", "\n", " ")

// CleanText replaces non-breaking spaces and newlines with plain spaces and trims the result.
func CleanText(text string) string {
	return strings.TrimSpace(textReplacer.Replace(text))
}

// ExtractText is a helper to get the visible text from HTML. Script, style,
// template and noscript contents are skipped.
func ExtractText(n *html.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Template, atom.Noscript:
			return ""
		}
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(ExtractText(c))
	}
	return sb.String()
}

// PageText returns the raw text of the whole document.
func PageText(doc *goquery.Document) string {
	var sb strings.Builder
	for _, n := range doc.Nodes {
		sb.WriteString(ExtractText(n))
	}
	return sb.String()
}
