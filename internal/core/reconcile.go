package core

import (
	"sort"

	"github.com/baxromumarov/roster-scraper/internal/scraper"
)

// Reconciler deduplicates candidate links by case-insensitive display name.
// Links are applied in the order they are added and the last one seen for a
// key wins, so callers must add listing pages in a stable order.
type Reconciler struct {
	byKey map[string]scraper.CandidateLink
	seen  int
}

func NewReconciler() *Reconciler {
	return &Reconciler{byKey: make(map[string]scraper.CandidateLink)}
}

func (r *Reconciler) Add(links ...scraper.CandidateLink) {
	for _, link := range links {
		r.seen++
		r.byKey[link.Key()] = link
	}
}

// Seen is the number of links added, duplicates included.
func (r *Reconciler) Seen() int {
	return r.seen
}

func (r *Reconciler) Len() int {
	return len(r.byKey)
}

// Map returns a copy of the key -> link mapping.
func (r *Reconciler) Map() map[string]scraper.CandidateLink {
	out := make(map[string]scraper.CandidateLink, len(r.byKey))
	for k, v := range r.byKey {
		out[k] = v
	}
	return out
}

// Links returns the deduplicated set sorted by display name, then URL.
func (r *Reconciler) Links() []scraper.CandidateLink {
	out := make([]scraper.CandidateLink, 0, len(r.byKey))
	for _, link := range r.byKey {
		out = append(out, link)
	}
	sortLinks(out)
	return out
}

// Reconcile deduplicates batches in the order given.
func Reconcile(batches ...[]scraper.CandidateLink) []scraper.CandidateLink {
	r := NewReconciler()
	for _, batch := range batches {
		r.Add(batch...)
	}
	return r.Links()
}

func sortLinks(links []scraper.CandidateLink) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].DisplayName != links[j].DisplayName {
			return links[i].DisplayName < links[j].DisplayName
		}
		return links[i].URL < links[j].URL
	})
}
