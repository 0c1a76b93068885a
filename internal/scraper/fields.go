package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fields holds the label-driven values recovered from a profile page before
// they are classified into a PlayerRecord.
type Fields struct {
	RealName    string
	BirthInfo   string
	Nationality string
	StatusText  string
	CurrentTeam string
}

// setIfEmpty writes value into dst only when dst is unset and value is not empty.
func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}

// FieldStrategy recovers whatever fields it can from one markup convention.
// Strategies run in order and must only write fields that are still empty.
type FieldStrategy interface {
	Name() string
	Applies(f *Fields) bool
	Fill(doc *goquery.Document, f *Fields)
}

// DefaultStrategies returns the infobox layout first, then the older row-based table.
func DefaultStrategies() []FieldStrategy {
	return []FieldStrategy{InfoboxStrategy{}, LegacyTableStrategy{}}
}

// InfoboxStrategy reads "label div / value div" pairs from the current infobox layout.
// A repeated label overwrites the earlier value.
type InfoboxStrategy struct{}

func (InfoboxStrategy) Name() string { return "infobox" }

func (InfoboxStrategy) Applies(*Fields) bool { return true }

func (InfoboxStrategy) Fill(doc *goquery.Document, f *Fields) {
	doc.Find("div.infobox-cell-2.infobox-description").Each(func(_ int, desc *goquery.Selection) {
		valueDiv := nextSiblingNamed(desc, "div")
		if valueDiv.Length() == 0 {
			return
		}
		value := CleanText(valueDiv.Text())

		switch CleanText(desc.Text()) {
		case "Name:":
			f.RealName = value
		case "Born:":
			f.BirthInfo = value
		case "Nationality:":
			// nationality comes from the flag alt, never the visible text
			if alt := valueDiv.Find("img").First().AttrOr("alt", ""); alt != "" {
				f.Nationality = CleanText(alt)
			}
		case "Status:":
			f.StatusText = value
		case "Team:":
			f.CurrentTeam = value
		}
	})
}

// LegacyTableStrategy reads the row-based infobox used by older pages, where the
// label is the preceding td in the same row.
type LegacyTableStrategy struct{}

func (LegacyTableStrategy) Name() string { return "legacy_table" }

func (LegacyTableStrategy) Applies(f *Fields) bool {
	return f.RealName == "" || f.Nationality == ""
}

func (LegacyTableStrategy) Fill(doc *goquery.Document, f *Fields) {
	doc.Find(".infobox-cell-2").Each(func(_ int, cell *goquery.Selection) {
		label := prevSiblingNamed(cell, "td")
		if label.Length() == 0 {
			return
		}
		labelText := label.Text()
		value := CleanText(cell.Text())

		switch {
		case strings.Contains(labelText, "Name") && f.RealName == "":
			setIfEmpty(&f.RealName, value)
		case strings.Contains(labelText, "Born") && f.BirthInfo == "":
			setIfEmpty(&f.BirthInfo, value)
		case strings.Contains(labelText, "Country") && f.Nationality == "":
			if title, ok := cell.Find("img").First().Attr("title"); ok {
				setIfEmpty(&f.Nationality, CleanText(title))
			}
		}
	})
}

// nextSiblingNamed returns the closest following sibling element with the given tag.
func nextSiblingNamed(sel *goquery.Selection, tag string) *goquery.Selection {
	s := sel.Next()
	for ; s.Length() > 0; s = s.Next() {
		if goquery.NodeName(s) == tag {
			return s
		}
	}
	return s
}

// prevSiblingNamed returns the closest preceding sibling element with the given tag.
func prevSiblingNamed(sel *goquery.Selection, tag string) *goquery.Selection {
	s := sel.Prev()
	for ; s.Length() > 0; s = s.Prev() {
		if goquery.NodeName(s) == tag {
			return s
		}
	}
	return s
}
