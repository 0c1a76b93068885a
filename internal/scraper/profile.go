package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/baxromumarov/roster-scraper/internal/urlutil"
)

const (
	DefaultOrigin   = "https://liquipedia.net"
	DefaultGamePath = "/rainbowsix/"
)

type Options struct {
	// Origin is prefixed to relative image paths.
	Origin string
	// GamePath is the wiki namespace tournament links must live under.
	GamePath string
	// Strategies defaults to DefaultStrategies.
	Strategies []FieldStrategy
	// StatusRule defaults to DefaultStatusRule.
	StatusRule *StatusRule
}

// ProfileExtractor turns one parsed profile page into a PlayerRecord.
type ProfileExtractor struct {
	origin     string
	gamePath   string
	strategies []FieldStrategy
	statusRule StatusRule
}

func NewProfileExtractor(opts Options) *ProfileExtractor {
	e := &ProfileExtractor{
		origin:     opts.Origin,
		gamePath:   opts.GamePath,
		strategies: opts.Strategies,
		statusRule: DefaultStatusRule,
	}
	if e.origin == "" {
		e.origin = DefaultOrigin
	}
	if e.gamePath == "" {
		e.gamePath = DefaultGamePath
	}
	if len(e.strategies) == 0 {
		e.strategies = DefaultStrategies()
	}
	if opts.StatusRule != nil {
		e.statusRule = *opts.StatusRule
	}
	return e
}

// Extract validates the page and recovers the record schema from it. Rejected
// pages return ErrNotPlayerPage or ErrNoUsableFields.
func (e *ProfileExtractor) Extract(doc *goquery.Document, candidate CandidateLink) (PlayerRecord, error) {
	if doc == nil {
		return PlayerRecord{}, fmt.Errorf("%w: nil document for %s", ErrParse, candidate.URL)
	}
	if !IsPlayerPage(doc) {
		return PlayerRecord{}, ErrNotPlayerPage
	}

	var f Fields
	for _, s := range e.strategies {
		if s.Applies(&f) {
			s.Fill(doc, &f)
		}
	}

	rec := PlayerRecord{
		Nickname:       candidate.DisplayName,
		RealName:       f.RealName,
		Nationality:    f.Nationality,
		BirthInfo:      f.BirthInfo,
		PhotoURL:       e.extractPhoto(doc),
		CurrentTeam:    f.CurrentTeam,
		TeamHistory:    ExtractTeamHistory(doc),
		LastTournament: e.extractLastTournament(doc),
		SourceURL:      candidate.URL,
	}
	rec.Status = e.resolveStatus(doc, f.StatusText)
	backfillCurrentTeam(&rec)

	if !HasUsableFields(rec) {
		return PlayerRecord{}, ErrNoUsableFields
	}
	return rec, nil
}

// resolveStatus classifies the label text when there is one and falls back to
// scanning the whole page otherwise.
func (e *ProfileExtractor) resolveStatus(doc *goquery.Document, statusText string) Status {
	if statusText != "" {
		return e.statusRule.Classify(statusText)
	}
	return e.statusRule.Classify(PageText(doc))
}

// backfillCurrentTeam uses the last listed tenure for active players without a team label.
func backfillCurrentTeam(rec *PlayerRecord) {
	if rec.Status != StatusActive || rec.CurrentTeam != "" || len(rec.TeamHistory) == 0 {
		return
	}
	rec.CurrentTeam = rec.TeamHistory[len(rec.TeamHistory)-1].Team
}

func (e *ProfileExtractor) extractPhoto(doc *goquery.Document) string {
	src, ok := doc.Find(profilePhotoSelector).First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return ""
	}
	return urlutil.ResolveAgainstOrigin(e.origin, strings.TrimSpace(src))
}

func (e *ProfileExtractor) extractLastTournament(doc *goquery.Document) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		text := a.Text()
		if !strings.Contains(href, e.gamePath) || !strings.Contains(text, "202") {
			return true
		}
		if !strings.Contains(text, "Major") && !strings.Contains(text, "Invitational") {
			return true
		}
		found = CleanText(text)
		return false
	})
	return found
}
