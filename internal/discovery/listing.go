package discovery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/baxromumarov/roster-scraper/internal/config"
	"github.com/baxromumarov/roster-scraper/internal/scraper"
	"github.com/baxromumarov/roster-scraper/internal/urlutil"
)

type Kind string

const (
	KindPortal     Kind = "portal"
	KindTournament Kind = "tournament"
)

const (
	portalContentSelector     = "div.mw-parser-output"
	tournamentContentSelector = "table.wikitable"
)

// Listing is a page that links to player profiles.
type Listing struct {
	URL  string `json:"url"`
	Kind Kind   `json:"kind"`
}

// ExtractLinks returns the candidate links of a listing page in document order.
// Relative hrefs are resolved against origin and fragments dropped.
func ExtractLinks(doc *goquery.Document, kind Kind, origin, gamePath string) []scraper.CandidateLink {
	if doc == nil {
		return nil
	}

	selector := portalContentSelector
	accept := urlutil.IsPortalPlayerLink
	if kind == KindTournament {
		selector = tournamentContentSelector
		accept = urlutil.IsTournamentPlayerLink
	}

	var links []scraper.CandidateLink
	doc.Find(selector).Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		name := scraper.CleanText(a.Text())
		if !accept(href, name, gamePath) {
			return
		}
		target := urlutil.ResolveAgainstOrigin(origin, href)
		if normalized, _, err := urlutil.Normalize(target); err == nil {
			target = normalized
		}
		links = append(links, scraper.CandidateLink{DisplayName: name, URL: target})
	})
	return links
}

// ListingsOrDefault converts configured listings, falling back to the
// built-in portals when none are configured.
func ListingsOrDefault(custom []config.Listing) []Listing {
	if len(custom) == 0 {
		return DefaultListings()
	}
	out := make([]Listing, 0, len(custom))
	for _, l := range custom {
		kind := Kind(strings.ToLower(l.Kind))
		if kind != KindTournament {
			kind = KindPortal
		}
		out = append(out, Listing{URL: l.URL, Kind: kind})
	}
	return out
}
