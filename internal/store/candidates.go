package store

import (
	"context"
	"fmt"
	"time"

	"github.com/baxromumarov/roster-scraper/internal/scraper"
)

type Candidate struct {
	DisplayName string    `json:"display_name"`
	URL         string    `json:"url"`
	SeenAt      time.Time `json:"seen_at"`
}

type Filtered struct {
	ID          int       `json:"id"`
	DisplayName string    `json:"display_name"`
	URL         string    `json:"url"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// SaveCandidates upserts the reconciled candidate set keyed by lowercase display name.
func (s *Store) SaveCandidates(ctx context.Context, links []scraper.CandidateLink) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, link := range links {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO candidates (key, display_name, url, seen_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (key) DO UPDATE SET
    display_name = EXCLUDED.display_name,
    url = EXCLUDED.url,
    seen_at = NOW()
`, link.Key(), link.DisplayName, link.URL); err != nil {
			return fmt.Errorf("upsert candidate %s: %w", link.DisplayName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) ListCandidates(ctx context.Context, limit, offset int) ([]Candidate, error) {
	limit = clampLimit(limit, 100)
	offset = clampOffset(offset)

	rows, err := s.db.QueryContext(ctx, `
SELECT display_name, url, seen_at
FROM candidates
ORDER BY display_name ASC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.DisplayName, &c.URL, &c.SeenAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SaveFiltered(ctx context.Context, entry scraper.FilteredEntry) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO filtered (display_name, url, reason, created_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (url, reason) DO UPDATE SET
    display_name = EXCLUDED.display_name,
    created_at = NOW()
`, entry.Candidate.DisplayName, entry.Candidate.URL, entry.Reason)
	return err
}

// ListFiltered returns filtered entries, newest first. An empty reason lists all.
func (s *Store) ListFiltered(ctx context.Context, reason string, limit, offset int) ([]Filtered, error) {
	limit = clampLimit(limit, 100)
	offset = clampOffset(offset)

	rows, err := s.db.QueryContext(ctx, `
SELECT id, display_name, url, reason, created_at
FROM filtered
WHERE $1 = '' OR reason = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`, reason, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Filtered
	for rows.Next() {
		var f Filtered
		if err := rows.Scan(&f.ID, &f.DisplayName, &f.URL, &f.Reason, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) DeleteStaleFiltered(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.ExecContext(ctx, `
DELETE FROM filtered
WHERE created_at < $1
`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
