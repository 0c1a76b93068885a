package discovery

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/baxromumarov/roster-scraper/internal/core"
	"github.com/baxromumarov/roster-scraper/internal/observability"
	"github.com/baxromumarov/roster-scraper/internal/scraper"
)

//go:embed seeds.json
var seedsJSON []byte

// DefaultListings returns the built-in region portal pages.
func DefaultListings() []Listing {
	var seeds []Listing
	if err := json.Unmarshal(seedsJSON, &seeds); err != nil {
		slog.Error("failed to load embedded listings", "error", err)
		return nil
	}
	return seeds
}

type Options struct {
	Origin      string
	GamePath    string
	Concurrency int
}

// Harvester fetches listing pages and extracts their candidate links.
type Harvester struct {
	fetcher  core.DocumentFetcher
	listings []Listing
	opts     Options
}

func NewHarvester(fetcher core.DocumentFetcher, listings []Listing, opts Options) *Harvester {
	if opts.Origin == "" {
		opts.Origin = scraper.DefaultOrigin
	}
	if opts.GamePath == "" {
		opts.GamePath = scraper.DefaultGamePath
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Harvester{fetcher: fetcher, listings: listings, opts: opts}
}

// Harvest returns one batch per listing, in listing order regardless of which
// fetch finishes first. A page that fails to load yields an empty batch.
func (h *Harvester) Harvest(ctx context.Context) ([][]scraper.CandidateLink, error) {
	batches := make([][]scraper.CandidateLink, len(h.listings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.opts.Concurrency)

	for i, listing := range h.listings {
		g.Go(func() error {
			doc, err := h.fetcher.FetchDocument(gctx, listing.URL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				observability.IncError(observability.ClassifyFetchError(err), "harvest")
				slog.WarnContext(gctx, "listing fetch failed", "url", listing.URL, "kind", listing.Kind, "error", err)
				return nil
			}
			observability.IncListingsHarvested()

			batches[i] = ExtractLinks(doc, listing.Kind, h.opts.Origin, h.opts.GamePath)
			slog.DebugContext(gctx, "listing harvested", "url", listing.URL, "kind", listing.Kind, "links", len(batches[i]))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("harvest: %w", err)
	}
	return batches, nil
}
