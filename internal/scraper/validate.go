package scraper

import (
	"errors"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrNotPlayerPage  = errors.New("not a player page")
	ErrNoUsableFields = errors.New("no usable fields")
	ErrParse          = errors.New("parse failed")
)

// IsRejection reports whether err is a validation outcome rather than a failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNotPlayerPage) || errors.Is(err, ErrNoUsableFields)
}

// RejectionReason maps an extraction error to the reason stored with a filtered entry.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNotPlayerPage):
		return ReasonNotPlayerPage
	case errors.Is(err, ErrNoUsableFields):
		return ReasonNoUsableFields
	default:
		return ReasonParseFailed
	}
}

const (
	profilePhotoSelector  = ".infobox-image img"
	playerHistorySelector = "span#Player_History"
)

// IsPlayerPage reports whether the document carries a profile photo or a player
// history section. Disambiguation and redirect pages have neither.
func IsPlayerPage(doc *goquery.Document) bool {
	return doc.Find(profilePhotoSelector).Length() > 0 || doc.Find(playerHistorySelector).Length() > 0
}

// HasUsableFields is false when nationality, real name and team history are all empty.
func HasUsableFields(rec PlayerRecord) bool {
	return rec.Nationality != "" || rec.RealName != "" || len(rec.TeamHistory) > 0
}
