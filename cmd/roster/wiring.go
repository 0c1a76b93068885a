package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/baxromumarov/roster-scraper/internal/config"
	"github.com/baxromumarov/roster-scraper/internal/core"
	"github.com/baxromumarov/roster-scraper/internal/discovery"
	"github.com/baxromumarov/roster-scraper/internal/httpx"
	"github.com/baxromumarov/roster-scraper/internal/scraper"
	"github.com/baxromumarov/roster-scraper/internal/sink"
	"github.com/baxromumarov/roster-scraper/internal/store"
)

func newFetcher(cfg config.Config) (httpx.DocumentFetcher, error) {
	return httpx.NewFetcher(cfg.Scrape.Fetcher, cfg.Scrape.UserAgent, cfg.Scrape.RequestDelay, cfg.Scrape.RequestTimeout)
}

func newExtractor(cfg config.Config) *scraper.ProfileExtractor {
	opts := scraper.Options{Origin: cfg.Scrape.Origin, GamePath: cfg.Scrape.GamePath}
	if len(cfg.Scrape.StatusTokens) > 0 {
		opts.StatusRule = &scraper.StatusRule{Tokens: cfg.Scrape.StatusTokens}
	}
	return scraper.NewProfileExtractor(opts)
}

func newHarvester(cfg config.Config, fetcher httpx.DocumentFetcher, listings []discovery.Listing) *discovery.Harvester {
	return discovery.NewHarvester(fetcher, listings, discovery.Options{
		Origin:      cfg.Scrape.Origin,
		GamePath:    cfg.Scrape.GamePath,
		Concurrency: cfg.Scrape.ListingConcurrency,
	})
}

// readListingsFile reads one listing URL per line. Blank lines and lines
// starting with # are skipped.
func readListingsFile(path string, kind discovery.Kind) ([]discovery.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []discovery.Listing
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, discovery.Listing{URL: line, Kind: kind})
	}
	return out, scanner.Err()
}

func resolveListings(cfg config.Config, path, kind string) ([]discovery.Listing, error) {
	if path == "" {
		return discovery.ListingsOrDefault(cfg.Listings), nil
	}
	k := discovery.Kind(strings.ToLower(kind))
	if k != discovery.KindPortal && k != discovery.KindTournament {
		return nil, fmt.Errorf("unknown listing kind %q", kind)
	}
	return readListingsFile(path, k)
}

func readCandidatesFile(path string) ([]scraper.CandidateLink, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sink.ReadCandidates(f)
}

func writeCandidatesFile(path string, links []scraper.CandidateLink) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sink.WriteCandidates(f, links); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// outputs holds the CSV writers of one command and, optionally, the database.
type outputs struct {
	records  core.RecordSink
	filtered core.FilteredSink
	db       *store.Store
	closers  []io.Closer
}

// Close is safe to call more than once.
func (o *outputs) Close() error {
	var first error
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	o.closers = nil
	return first
}

type candidateFile string

func (p candidateFile) SaveCandidates(_ context.Context, links []scraper.CandidateLink) error {
	return writeCandidatesFile(string(p), links)
}

type candidateSinks []core.CandidateSink

func (c candidateSinks) SaveCandidates(ctx context.Context, links []scraper.CandidateLink) error {
	for _, s := range c {
		if err := s.SaveCandidates(ctx, links); err != nil {
			return err
		}
	}
	return nil
}

type fileCloser struct {
	flush func() error
	file  *os.File
}

func (c fileCloser) Close() error {
	if err := c.flush(); err != nil {
		_ = c.file.Close()
		return err
	}
	return c.file.Close()
}

// openOutputs creates the record and filtered CSV files. An empty recordsPath
// skips the record file. With useDB, records and filtered entries are also
// written to Postgres.
func openOutputs(cfg config.Config, recordsPath, filteredPath string, useDB bool) (*outputs, error) {
	o := &outputs{}
	var recordSinks []core.RecordSink
	var filteredSinks []core.FilteredSink

	if recordsPath != "" {
		f, err := os.Create(recordsPath)
		if err != nil {
			return nil, err
		}
		w := sink.NewCSVRecordWriter(f)
		o.closers = append(o.closers, fileCloser{flush: w.Close, file: f})
		recordSinks = append(recordSinks, w)
	}

	f, err := os.Create(filteredPath)
	if err != nil {
		_ = o.Close()
		return nil, err
	}
	fw := sink.NewCSVFilteredWriter(f)
	o.closers = append(o.closers, fileCloser{flush: fw.Close, file: f})
	filteredSinks = append(filteredSinks, fw)

	if useDB {
		db, err := store.NewStore(cfg.DatabaseURL)
		if err != nil {
			_ = o.Close()
			return nil, err
		}
		if err := db.RunMigrations(""); err != nil {
			_ = db.Close()
			_ = o.Close()
			return nil, err
		}
		o.db = db
		o.closers = append(o.closers, db)
		dbSink := sink.NewStoreRecordSink(db)
		recordSinks = append(recordSinks, dbSink)
		filteredSinks = append(filteredSinks, dbSink)
	}

	o.records = sink.NewMultiRecordSink(recordSinks...)
	o.filtered = sink.NewMultiFilteredSink(filteredSinks...)
	return o, nil
}
