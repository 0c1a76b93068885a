package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/roster-scraper/internal/scraper"
)

const (
	playerHTML = `<html><body>
<div class="infobox-image"><img src="/commons/images/p.png"></div>
<div><div class="infobox-cell-2 infobox-description">Name:</div><div class="infobox-cell-2">John Doe</div></div>
</body></html>`
	disambiguationHTML = `<html><body><p>Ace may refer to:</p></body></html>`
	emptyPlayerHTML    = `<html><body><div class="infobox-image"><img src="/e.png"></div></body></html>`
)

type fakeFetcher struct {
	pages  map[string]string
	errs   map[string]error
	called []string
}

func (f *fakeFetcher) FetchDocument(_ context.Context, url string) (*goquery.Document, error) {
	f.called = append(f.called, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	raw, ok := f.pages[url]
	if !ok {
		return nil, errors.New("no fixture for " + url)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(raw))
}

type memorySink struct {
	records  []scraper.PlayerRecord
	filtered []scraper.FilteredEntry
	failOn   string
}

func (m *memorySink) WriteRecord(_ context.Context, rec scraper.PlayerRecord) error {
	if m.failOn != "" && rec.Nickname == m.failOn {
		return errors.New("disk full")
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memorySink) WriteFiltered(_ context.Context, entry scraper.FilteredEntry) error {
	m.filtered = append(m.filtered, entry)
	return nil
}

type panickingExtractor struct {
	next  Extractor
	panic string
}

func (p panickingExtractor) Extract(doc *goquery.Document, c scraper.CandidateLink) (scraper.PlayerRecord, error) {
	if c.DisplayName == p.panic {
		panic("boom")
	}
	return p.next.Extract(doc, c)
}

func TestEnrichmentRoutesOutcomes(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]string{
			"/jdoe":  playerHTML,
			"/ace":   disambiguationHTML,
			"/empty": emptyPlayerHTML,
			"/crash": playerHTML,
		},
		errs: map[string]error{"/gone": errors.New("connection reset")},
	}
	sink := &memorySink{}
	extractor := panickingExtractor{next: scraper.NewProfileExtractor(scraper.Options{}), panic: "crash"}
	svc := NewEnrichmentService(fetcher, extractor, sink, sink)

	candidates := []scraper.CandidateLink{
		link("jdoe", "/jdoe"),
		link("ace", "/ace"),
		link("gone", "/gone"),
		link("empty", "/empty"),
		link("crash", "/crash"),
	}

	summary, err := svc.Run(context.Background(), candidates)
	require.NoError(t, err)

	require.Equal(t, 5, summary.Candidates)
	require.Equal(t, 1, summary.Records)
	require.Equal(t, 4, summary.Filtered)
	require.Equal(t, 2, summary.Failures)
	require.Equal(t, map[string]int{
		scraper.ReasonNotPlayerPage:  1,
		scraper.ReasonFetchFailed:    1,
		scraper.ReasonNoUsableFields: 1,
		scraper.ReasonParseFailed:    1,
	}, summary.ByReason)

	require.Len(t, sink.records, 1)
	require.Equal(t, "John Doe", sink.records[0].RealName)
	require.Equal(t, scraper.StatusActive, sink.records[0].Status)

	require.Equal(t, []scraper.FilteredEntry{
		{Candidate: link("ace", "/ace"), Reason: scraper.ReasonNotPlayerPage},
		{Candidate: link("gone", "/gone"), Reason: scraper.ReasonFetchFailed},
		{Candidate: link("empty", "/empty"), Reason: scraper.ReasonNoUsableFields},
		{Candidate: link("crash", "/crash"), Reason: scraper.ReasonParseFailed},
	}, sink.filtered)
	require.Len(t, fetcher.called, 5)
}

func TestEnrichmentStopsOnSinkError(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"/a": playerHTML, "/b": playerHTML}}
	sink := &memorySink{failOn: "a"}
	svc := NewEnrichmentService(fetcher, scraper.NewProfileExtractor(scraper.Options{}), sink, sink)

	_, err := svc.Run(context.Background(), []scraper.CandidateLink{link("a", "/a"), link("b", "/b")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
	require.Equal(t, []string{"/a"}, fetcher.called)
}

func TestEnrichmentHonorsCancellation(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"/a": playerHTML}}
	sink := &memorySink{}
	svc := NewEnrichmentService(fetcher, scraper.NewProfileExtractor(scraper.Options{}), sink, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, []scraper.CandidateLink{link("a", "/a")})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, fetcher.called)
	require.Empty(t, sink.filtered)
}
