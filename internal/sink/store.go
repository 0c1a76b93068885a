package sink

import (
	"context"
	"errors"

	"github.com/baxromumarov/roster-scraper/internal/core"
	"github.com/baxromumarov/roster-scraper/internal/scraper"
	"github.com/baxromumarov/roster-scraper/internal/store"
)

// StoreRecordSink persists records and filtered entries in Postgres.
type StoreRecordSink struct {
	store *store.Store
}

func NewStoreRecordSink(s *store.Store) *StoreRecordSink {
	return &StoreRecordSink{store: s}
}

func (s *StoreRecordSink) WriteRecord(ctx context.Context, rec scraper.PlayerRecord) error {
	_, err := s.store.SavePlayer(ctx, rec)
	return err
}

func (s *StoreRecordSink) WriteFiltered(ctx context.Context, entry scraper.FilteredEntry) error {
	return s.store.SaveFiltered(ctx, entry)
}

// MultiRecordSink fans a record out to every sink. All sinks are attempted.
type MultiRecordSink struct {
	sinks []core.RecordSink
}

func NewMultiRecordSink(sinks ...core.RecordSink) *MultiRecordSink {
	return &MultiRecordSink{sinks: sinks}
}

func (m *MultiRecordSink) WriteRecord(ctx context.Context, rec scraper.PlayerRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteRecord(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type MultiFilteredSink struct {
	sinks []core.FilteredSink
}

func NewMultiFilteredSink(sinks ...core.FilteredSink) *MultiFilteredSink {
	return &MultiFilteredSink{sinks: sinks}
}

func (m *MultiFilteredSink) WriteFiltered(ctx context.Context, entry scraper.FilteredEntry) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteFiltered(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
