package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/baxromumarov/roster-scraper/internal/scraper"
)

type Tenure struct {
	Team   string `json:"team"`
	Joined string `json:"joined"`
	Left   string `json:"left"`
}

type Player struct {
	ID             int       `json:"id"`
	Nickname       string    `json:"nickname"`
	RealName       string    `json:"real_name"`
	Nationality    string    `json:"nationality"`
	BirthInfo      string    `json:"birth_info"`
	PhotoURL       string    `json:"photo_url"`
	Status         string    `json:"status"`
	CurrentTeam    string    `json:"current_team"`
	TeamHistory    []Tenure  `json:"team_history"`
	LastTournament string    `json:"last_tournament"`
	SourceURL      string    `json:"source_url"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SavePlayer upserts the record by source URL and replaces its team history.
func (s *Store) SavePlayer(ctx context.Context, rec scraper.PlayerRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int
	err = tx.QueryRowContext(ctx, `
INSERT INTO players (nickname, real_name, nationality, birth_info, photo_url, status, current_team, last_tournament, source_url, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
ON CONFLICT (source_url) DO UPDATE SET
    nickname = EXCLUDED.nickname,
    real_name = EXCLUDED.real_name,
    nationality = EXCLUDED.nationality,
    birth_info = EXCLUDED.birth_info,
    photo_url = EXCLUDED.photo_url,
    status = EXCLUDED.status,
    current_team = EXCLUDED.current_team,
    last_tournament = EXCLUDED.last_tournament,
    updated_at = NOW()
RETURNING id
`, rec.Nickname, rec.RealName, rec.Nationality, rec.BirthInfo, rec.PhotoURL, string(rec.Status), rec.CurrentTeam, rec.LastTournament, rec.SourceURL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert player: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_teams WHERE player_id = $1`, id); err != nil {
		return 0, fmt.Errorf("clear team history: %w", err)
	}
	for i, t := range rec.TeamHistory {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO player_teams (player_id, position, team, joined, left_at)
VALUES ($1, $2, $3, $4, $5)
`, id, i, t.Team, t.Joined, t.Left); err != nil {
			return 0, fmt.Errorf("insert tenure %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

const playerColumns = `id, nickname, real_name, nationality, birth_info, photo_url, status, current_team, last_tournament, source_url, updated_at`

func scanPlayer(row interface{ Scan(...any) error }) (Player, error) {
	var p Player
	err := row.Scan(
		&p.ID,
		&p.Nickname,
		&p.RealName,
		&p.Nationality,
		&p.BirthInfo,
		&p.PhotoURL,
		&p.Status,
		&p.CurrentTeam,
		&p.LastTournament,
		&p.SourceURL,
		&p.UpdatedAt,
	)
	return p, err
}

func (s *Store) ListPlayers(ctx context.Context, limit, offset int) ([]Player, error) {
	limit = clampLimit(limit, 50)
	offset = clampOffset(offset)

	rows, err := s.db.QueryContext(ctx, `
SELECT `+playerColumns+`
FROM players
ORDER BY nickname ASC, id ASC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachHistory(ctx, players); err != nil {
		return nil, err
	}
	return players, nil
}

// GetPlayer looks a player up by case-insensitive nickname.
func (s *Store) GetPlayer(ctx context.Context, nickname string) (Player, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+playerColumns+`
FROM players
WHERE LOWER(nickname) = LOWER($1)
ORDER BY updated_at DESC
LIMIT 1
`, nickname)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, ErrNotFound
	}
	if err != nil {
		return Player{}, err
	}

	players := []Player{p}
	if err := s.attachHistory(ctx, players); err != nil {
		return Player{}, err
	}
	return players[0], nil
}

func (s *Store) attachHistory(ctx context.Context, players []Player) error {
	if len(players) == 0 {
		return nil
	}
	ids := make([]int64, len(players))
	index := make(map[int]int, len(players))
	for i, p := range players {
		ids[i] = int64(p.ID)
		index[p.ID] = i
		players[i].TeamHistory = []Tenure{}
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT player_id, team, joined, left_at
FROM player_teams
WHERE player_id = ANY($1)
ORDER BY player_id, position
`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load team history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			playerID int
			t        Tenure
		)
		if err := rows.Scan(&playerID, &t.Team, &t.Joined, &t.Left); err != nil {
			return err
		}
		if i, ok := index[playerID]; ok {
			players[i].TeamHistory = append(players[i].TeamHistory, t)
		}
	}
	return rows.Err()
}

func (s *Store) CountPlayers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n)
	return n, err
}
