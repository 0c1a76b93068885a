package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/baxromumarov/roster-scraper/internal/observability"
	"github.com/baxromumarov/roster-scraper/internal/scraper"
)

// DocumentFetcher yields a parsed document for a profile or listing URL.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}

type RecordSink interface {
	WriteRecord(ctx context.Context, rec scraper.PlayerRecord) error
}

// FilteredSink receives candidates that did not produce a record.
type FilteredSink interface {
	WriteFiltered(ctx context.Context, entry scraper.FilteredEntry) error
}

type Extractor interface {
	Extract(doc *goquery.Document, candidate scraper.CandidateLink) (scraper.PlayerRecord, error)
}

// Summary counts the outcome of one enrichment run.
type Summary struct {
	Candidates int
	Records    int
	Filtered   int
	Failures   int
	ByReason   map[string]int
	Duration   time.Duration
}

func (s *Summary) addFiltered(reason string) {
	if s.ByReason == nil {
		s.ByReason = map[string]int{}
	}
	s.Filtered++
	s.ByReason[reason]++
}

// EnrichmentService turns candidate links into player records. Per-document
// failures go to the filtered sink; only sink errors stop a run.
type EnrichmentService struct {
	fetcher   DocumentFetcher
	extractor Extractor
	records   RecordSink
	filtered  FilteredSink
}

func NewEnrichmentService(fetcher DocumentFetcher, extractor Extractor, records RecordSink, filtered FilteredSink) *EnrichmentService {
	return &EnrichmentService{
		fetcher:   fetcher,
		extractor: extractor,
		records:   records,
		filtered:  filtered,
	}
}

func (s *EnrichmentService) Run(ctx context.Context, candidates []scraper.CandidateLink) (Summary, error) {
	start := time.Now()
	summary := Summary{Candidates: len(candidates), ByReason: map[string]int{}}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		rec, err := s.processOne(ctx, c)
		if err == nil {
			if err := s.records.WriteRecord(ctx, rec); err != nil {
				observability.IncError(observability.ErrorSink, "records")
				summary.Duration = time.Since(start)
				return summary, fmt.Errorf("write record %s: %w", c.URL, err)
			}
			observability.IncPlayersExtracted()
			summary.Records++
			continue
		}

		// a cancelled run is not a property of the candidate
		if ctx.Err() != nil {
			summary.Duration = time.Since(start)
			return summary, ctx.Err()
		}

		reason := s.reasonFor(err)
		if !scraper.IsRejection(err) {
			summary.Failures++
		}
		entry := scraper.FilteredEntry{Candidate: c, Reason: reason}
		if err := s.filtered.WriteFiltered(ctx, entry); err != nil {
			observability.IncError(observability.ErrorSink, "filtered")
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("write filtered %s: %w", c.URL, err)
		}
		observability.IncFiltered(reason)
		summary.addFiltered(reason)
	}

	summary.Duration = time.Since(start)
	slog.InfoContext(ctx, "enrichment complete",
		"candidates", summary.Candidates,
		"records", summary.Records,
		"filtered", summary.Filtered,
		"failures", summary.Failures,
		"duration", summary.Duration,
	)
	return summary, nil
}

func (s *EnrichmentService) processOne(ctx context.Context, c scraper.CandidateLink) (rec scraper.PlayerRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", scraper.ErrParse, r)
			observability.IncError(observability.ErrorParsing, "extract")
			slog.ErrorContext(ctx, "extraction panicked", "url", c.URL, "panic", r)
		}
	}()

	started := time.Now()
	doc, err := s.fetcher.FetchDocument(ctx, c.URL)
	observability.ObserveFetchDuration(time.Since(started).Seconds())
	if err != nil {
		observability.IncError(observability.ClassifyFetchError(err), "fetch")
		slog.WarnContext(ctx, "profile fetch failed", "url", c.URL, "error", err)
		return scraper.PlayerRecord{}, &fetchFailure{err: err}
	}
	observability.IncPagesFetched()

	rec, err = s.extractor.Extract(doc, c)
	if err != nil {
		if scraper.IsRejection(err) {
			slog.InfoContext(ctx, "candidate filtered", "url", c.URL, "reason", scraper.RejectionReason(err))
		} else {
			observability.IncError(observability.ClassifyScrapeError(err), "extract")
			slog.WarnContext(ctx, "extraction failed", "url", c.URL, "error", err)
		}
		return scraper.PlayerRecord{}, err
	}
	return rec, nil
}

func (s *EnrichmentService) reasonFor(err error) string {
	var ff *fetchFailure
	if errors.As(err, &ff) {
		return scraper.ReasonFetchFailed
	}
	return scraper.RejectionReason(err)
}

type fetchFailure struct {
	err error
}

func (f *fetchFailure) Error() string { return "fetch failed: " + f.err.Error() }

func (f *fetchFailure) Unwrap() error { return f.err }
