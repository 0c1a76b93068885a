package discovery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/roster-scraper/internal/config"
	"github.com/baxromumarov/roster-scraper/internal/scraper"
)

const portalHTML = `<html><body>
<div id="sidebar"><a href="/rainbowsix/Sidebar">Sidebar</a></div>
<div class="mw-parser-output">
  <a href="/rainbowsix/Shaiiko">Shaiiko</a>
  <a href="/rainbowsix/File:Flag.png">flag</a>
  <a href="/rainbowsix/Portal:Teams">Teams</a>
  <a href="/rainbowsix/Team_BDS">Team BDS</a>
  <a href="/counterstrike/s1mple">s1mple</a>
  <a href="/rainbowsix/Beaulo"><img src="/beaulo.png"></a>
</div>
</body></html>`

const tournamentHTML = `<html><body>
<a href="/rainbowsix/Outside">Outside</a>
<table class="wikitable">
  <tr><td><a href="/rainbowsix/Team_BDS">BDS</a></td><td><a href="/rainbowsix/Shaiiko#Results">SHAIIKO</a></td></tr>
  <tr><td><a href="/rainbowsix/Beaulo">•</a></td><td><a href="/rainbowsix/J">J</a></td></tr>
  <tr><td><a href="/rainbowsix/Pengu">Pengu</a></td></tr>
</table>
</body></html>`

func parse(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	require.NoError(t, err)
	return doc
}

func TestExtractPortalLinks(t *testing.T) {
	links := ExtractLinks(parse(t, portalHTML), KindPortal, "https://liquipedia.net", "/rainbowsix/")

	require.Equal(t, []scraper.CandidateLink{
		{DisplayName: "Shaiiko", URL: "https://liquipedia.net/rainbowsix/Shaiiko"},
		{DisplayName: "Team BDS", URL: "https://liquipedia.net/rainbowsix/Team_BDS"},
	}, links)
}

func TestExtractTournamentLinks(t *testing.T) {
	links := ExtractLinks(parse(t, tournamentHTML), KindTournament, "https://liquipedia.net", "/rainbowsix/")

	require.Equal(t, []scraper.CandidateLink{
		{DisplayName: "SHAIIKO", URL: "https://liquipedia.net/rainbowsix/Shaiiko"},
		{DisplayName: "Pengu", URL: "https://liquipedia.net/rainbowsix/Pengu"},
	}, links)
}

func TestDefaultListings(t *testing.T) {
	listings := DefaultListings()
	require.Len(t, listings, 5)
	for _, l := range listings {
		require.Equal(t, KindPortal, l.Kind)
		require.True(t, strings.HasPrefix(l.URL, "https://liquipedia.net/rainbowsix/Portal:Players/"), l.URL)
	}
}

type delayedFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	delays map[string]time.Duration
	fail   map[string]bool
	calls  int
}

func (f *delayedFetcher) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	f.mu.Lock()
	f.calls++
	delay := f.delays[url]
	fail := f.fail[url]
	raw := f.pages[url]
	f.mu.Unlock()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if fail {
		return nil, errors.New("503")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(raw))
}

func TestHarvestKeepsListingOrder(t *testing.T) {
	fetcher := &delayedFetcher{
		pages: map[string]string{
			"/eu": `<div class="mw-parser-output"><a href="/rainbowsix/Alice">Alice</a></div>`,
			"/na": `<div class="mw-parser-output"><a href="/rainbowsix/alice2">ALICE</a></div>`,
			"/sa": `<div class="mw-parser-output"><a href="/rainbowsix/Bob">Bob</a></div>`,
		},
		// the first listing finishes last
		delays: map[string]time.Duration{"/eu": 40 * time.Millisecond},
		fail:   map[string]bool{"/sa": true},
	}
	listings := []Listing{
		{URL: "/eu", Kind: KindPortal},
		{URL: "/na", Kind: KindPortal},
		{URL: "/sa", Kind: KindPortal},
	}

	h := NewHarvester(fetcher, listings, Options{Origin: "https://liquipedia.net", Concurrency: 3})
	batches, err := h.Harvest(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 3)
	require.Equal(t, "Alice", batches[0][0].DisplayName)
	require.Equal(t, "ALICE", batches[1][0].DisplayName)
	require.Empty(t, batches[2])
	require.Equal(t, 3, fetcher.calls)
}

func TestHarvestCancelled(t *testing.T) {
	fetcher := &delayedFetcher{delays: map[string]time.Duration{"/eu": time.Second}}
	h := NewHarvester(fetcher, []Listing{{URL: "/eu", Kind: KindPortal}}, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := h.Harvest(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestListingsOrDefault(t *testing.T) {
	require.Len(t, ListingsOrDefault(nil), 5)

	got := ListingsOrDefault([]config.Listing{
		{URL: "https://liquipedia.net/rainbowsix/Six_Invitational/2024", Kind: "Tournament"},
		{URL: "https://liquipedia.net/rainbowsix/Portal:Players/Europe"},
	})
	require.Equal(t, []Listing{
		{URL: "https://liquipedia.net/rainbowsix/Six_Invitational/2024", Kind: KindTournament},
		{URL: "https://liquipedia.net/rainbowsix/Portal:Players/Europe", Kind: KindPortal},
	}, got)
}
