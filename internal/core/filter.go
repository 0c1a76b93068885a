package core

import (
	"strings"

	"github.com/baxromumarov/roster-scraper/internal/scraper"
)

// HasSpace reports whether a display name contains an inner space. Player
// handles never do; team and tournament titles usually do.
func HasSpace(name string) bool {
	return strings.Contains(strings.TrimSpace(name), " ")
}

// SplitCandidates separates likely player handles from everything else,
// preserving input order in both halves.
func SplitCandidates(links []scraper.CandidateLink) (kept, dropped []scraper.CandidateLink) {
	for _, link := range links {
		if HasSpace(link.DisplayName) {
			dropped = append(dropped, link)
			continue
		}
		kept = append(kept, link)
	}
	return kept, dropped
}
