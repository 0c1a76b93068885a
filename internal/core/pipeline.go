package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/baxromumarov/roster-scraper/internal/observability"
	"github.com/baxromumarov/roster-scraper/internal/scraper"
)

// Harvester returns the candidate links of every listing page, one batch per
// page, in configured listing order.
type Harvester interface {
	Harvest(ctx context.Context) ([][]scraper.CandidateLink, error)
}

// CandidateSink persists the reconciled candidate set. Optional.
type CandidateSink interface {
	SaveCandidates(ctx context.Context, links []scraper.CandidateLink) error
}

type RunResult struct {
	Harvested  int
	Unique     int
	Kept       int
	Dropped    int
	Enrichment Summary
	StartedAt  time.Time
	Duration   time.Duration
}

type Pipeline struct {
	harvester  Harvester
	enrichment *EnrichmentService
	filtered   FilteredSink
	candidates CandidateSink
}

func NewPipeline(harvester Harvester, enrichment *EnrichmentService, filtered FilteredSink, candidates CandidateSink) *Pipeline {
	return &Pipeline{
		harvester:  harvester,
		enrichment: enrichment,
		filtered:   filtered,
		candidates: candidates,
	}
}

// Harvest fetches every listing page and reconciles the links. It returns the
// deduplicated set and the number of links seen before deduplication.
func (p *Pipeline) Harvest(ctx context.Context) ([]scraper.CandidateLink, int, error) {
	batches, err := p.harvester.Harvest(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("harvest listings: %w", err)
	}

	r := NewReconciler()
	for _, batch := range batches {
		r.Add(batch...)
	}
	links := r.Links()

	if p.candidates != nil {
		if err := p.candidates.SaveCandidates(ctx, links); err != nil {
			return nil, 0, fmt.Errorf("save candidates: %w", err)
		}
	}
	slog.InfoContext(ctx, "harvest complete", "listings", len(batches), "seen", r.Seen(), "unique", r.Len())
	return links, r.Seen(), nil
}

// FilterNames drops display names with spaces and reports them to the filtered sink.
func (p *Pipeline) FilterNames(ctx context.Context, links []scraper.CandidateLink) ([]scraper.CandidateLink, int, error) {
	kept, dropped := SplitCandidates(links)
	for _, link := range dropped {
		entry := scraper.FilteredEntry{Candidate: link, Reason: scraper.ReasonNameHasSpace}
		if err := p.filtered.WriteFiltered(ctx, entry); err != nil {
			observability.IncError(observability.ErrorSink, "filtered")
			return nil, 0, fmt.Errorf("write filtered %s: %w", link.URL, err)
		}
		observability.IncFiltered(scraper.ReasonNameHasSpace)
	}
	return kept, len(dropped), nil
}

func (p *Pipeline) Run(ctx context.Context) (result RunResult, err error) {
	result.StartedAt = time.Now()
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	links, seen, err := p.Harvest(ctx)
	if err != nil {
		return result, err
	}
	result.Harvested = seen
	result.Unique = len(links)

	kept, dropped, err := p.FilterNames(ctx, links)
	if err != nil {
		return result, err
	}
	result.Kept = len(kept)
	result.Dropped = dropped

	summary, err := p.enrichment.Run(ctx, kept)
	result.Enrichment = summary
	if err != nil {
		return result, fmt.Errorf("enrich candidates: %w", err)
	}
	return result, nil
}
