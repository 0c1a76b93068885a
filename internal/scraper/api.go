package scraper

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Status string

const (
	StatusUnknown Status = ""
	StatusActive  Status = "Active"
	StatusRetired Status = "Retired"
)

// TeamTenure is one stint on a team. Dates are kept as the page prints them
// ("2019", "Present", "2021-03-04"), never parsed.
type TeamTenure struct {
	Team   string
	Joined string
	Left   string
}

func (t TeamTenure) String() string {
	return fmt.Sprintf("%s (%s – %s)", t.Team, t.Joined, t.Left)
}

type PlayerRecord struct {
	Nickname       string
	RealName       string
	Nationality    string
	BirthInfo      string
	PhotoURL       string
	Status         Status
	CurrentTeam    string
	TeamHistory    []TeamTenure
	LastTournament string
	SourceURL      string
}

// CandidateLink is a (name, url) pair harvested from a listing page.
type CandidateLink struct {
	DisplayName string
	URL         string
}

// Key is the case-insensitive identity used for deduplication.
func (c CandidateLink) Key() string {
	// a Caser is stateful, so each call gets its own
	return cases.Lower(language.Und).String(c.DisplayName)
}

const (
	ReasonNotPlayerPage  = "not_player_page"
	ReasonNoUsableFields = "no_usable_fields"
	ReasonFetchFailed    = "fetch_failed"
	ReasonParseFailed    = "parse_failed"
	ReasonNameHasSpace   = "name_has_space"
)

// FilteredEntry is a candidate that did not produce a record, kept for manual review.
type FilteredEntry struct {
	Candidate CandidateLink
	Reason    string
}
