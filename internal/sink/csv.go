package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/baxromumarov/roster-scraper/internal/scraper"
)

var recordHeader = []string{
	"Nickname",
	"Real name",
	"Nationality",
	"Birth info",
	"Photo",
	"Status",
	"Current team",
	"Team history",
	"Last tournament",
	"URL",
}

var candidateHeader = []string{"Name", "URL"}

// CSVRecordWriter writes one row per player record after a single header row.
type CSVRecordWriter struct {
	mu          sync.Mutex
	w           *csv.Writer
	wroteHeader bool
}

func NewCSVRecordWriter(w io.Writer) *CSVRecordWriter {
	return &CSVRecordWriter{w: csv.NewWriter(w)}
}

func (c *CSVRecordWriter) WriteRecord(_ context.Context, rec scraper.PlayerRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.header(); err != nil {
		return err
	}
	row := []string{
		rec.Nickname,
		rec.RealName,
		rec.Nationality,
		rec.BirthInfo,
		rec.PhotoURL,
		string(rec.Status),
		rec.CurrentTeam,
		scraper.FlattenHistory(rec.TeamHistory),
		rec.LastTournament,
		rec.SourceURL,
	}
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// Close writes the header if no record was written.
func (c *CSVRecordWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.header(); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVRecordWriter) header() error {
	if c.wroteHeader {
		return nil
	}
	c.wroteHeader = true
	return c.w.Write(recordHeader)
}

// CSVFilteredWriter keeps the Name,URL shape of the candidate input.
type CSVFilteredWriter struct {
	mu          sync.Mutex
	w           *csv.Writer
	wroteHeader bool
}

func NewCSVFilteredWriter(w io.Writer) *CSVFilteredWriter {
	return &CSVFilteredWriter{w: csv.NewWriter(w)}
}

func (c *CSVFilteredWriter) WriteFiltered(_ context.Context, entry scraper.FilteredEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.wroteHeader {
		c.wroteHeader = true
		if err := c.w.Write(candidateHeader); err != nil {
			return err
		}
	}
	if err := c.w.Write([]string{entry.Candidate.DisplayName, entry.Candidate.URL}); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVFilteredWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.wroteHeader {
		c.wroteHeader = true
		if err := c.w.Write(candidateHeader); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

func WriteCandidates(w io.Writer, links []scraper.CandidateLink) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(candidateHeader); err != nil {
		return err
	}
	for _, link := range links {
		if err := cw.Write([]string{link.DisplayName, link.URL}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCandidates reads a Name,URL file. The header row is required; blank
// names or URLs are skipped.
func ReadCandidates(r io.Reader) ([]scraper.CandidateLink, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	nameCol, urlCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))) {
		case "name", "nombre":
			nameCol = i
		case "url":
			urlCol = i
		}
	}
	if nameCol < 0 || urlCol < 0 {
		return nil, fmt.Errorf("candidate header must contain Name and URL, got %v", header)
	}

	var links []scraper.CandidateLink
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if nameCol >= len(row) || urlCol >= len(row) {
			continue
		}
		link := scraper.CandidateLink{
			DisplayName: strings.TrimSpace(row[nameCol]),
			URL:         strings.TrimSpace(row[urlCol]),
		}
		if link.DisplayName == "" || link.URL == "" {
			continue
		}
		links = append(links, link)
	}
	return links, nil
}
