package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/roster-scraper/internal/core"
	"github.com/baxromumarov/roster-scraper/internal/store"
)

type fakeStore struct {
	players    []store.Player
	lastLimit  int
	lastOffset int
	lastReason string
	err        error
	pingErr    error
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) CountPlayers(context.Context) (int, error) {
	return len(f.players), f.err
}

func (f *fakeStore) ListPlayers(_ context.Context, limit, offset int) ([]store.Player, error) {
	f.lastLimit, f.lastOffset = limit, offset
	return f.players, f.err
}

func (f *fakeStore) GetPlayer(_ context.Context, nickname string) (store.Player, error) {
	for _, p := range f.players {
		if strings.EqualFold(p.Nickname, nickname) {
			return p, nil
		}
	}
	return store.Player{}, store.ErrNotFound
}

func (f *fakeStore) ListCandidates(context.Context, int, int) ([]store.Candidate, error) {
	return nil, f.err
}

func (f *fakeStore) ListFiltered(_ context.Context, reason string, _, _ int) ([]store.Filtered, error) {
	f.lastReason = reason
	return []store.Filtered{{ID: 1, DisplayName: "Team BDS", URL: "/Team_BDS", Reason: reason}}, f.err
}

type fakeScheduler struct {
	busy bool
	last *core.RunResult
}

func (f *fakeScheduler) TriggerNow() bool { return !f.busy }

func (f *fakeScheduler) Running() bool { return f.busy }

func (f *fakeScheduler) LastRun() (core.RunResult, bool) {
	if f.last == nil {
		return core.RunResult{}, false
	}
	return *f.last, true
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	srv := NewServer(&fakeStore{}, &fakeScheduler{})
	rec := do(t, srv.Router(), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())

	srv = NewServer(&fakeStore{pingErr: errors.New("connection refused")}, &fakeScheduler{})
	rec = do(t, srv.Router(), http.MethodGet, "/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListPlayers(t *testing.T) {
	fs := &fakeStore{players: []store.Player{{ID: 1, Nickname: "Shaiiko", Status: "Active", TeamHistory: []store.Tenure{}}}}
	srv := NewServer(fs, &fakeScheduler{})

	rec := do(t, srv.Router(), http.MethodGet, "/players?limit=10&offset=-3")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 10, fs.lastLimit)
	require.Equal(t, 0, fs.lastOffset)

	var body struct {
		Items []store.Player `json:"items"`
		Total int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	require.Equal(t, 1, body.Total)
	require.Equal(t, "Shaiiko", body.Items[0].Nickname)
}

func TestListPlayersEmptyIsArray(t *testing.T) {
	srv := NewServer(&fakeStore{}, &fakeScheduler{})
	rec := do(t, srv.Router(), http.MethodGet, "/players")
	require.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestListPlayersStoreError(t *testing.T) {
	srv := NewServer(&fakeStore{err: errors.New("db down")}, &fakeScheduler{})
	rec := do(t, srv.Router(), http.MethodGet, "/players")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "db down")
}

func TestGetPlayer(t *testing.T) {
	fs := &fakeStore{players: []store.Player{{ID: 1, Nickname: "Shaiiko"}}}
	srv := NewServer(fs, &fakeScheduler{})

	rec := do(t, srv.Router(), http.MethodGet, "/players/shaiiko")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"nickname":"Shaiiko"`)

	rec = do(t, srv.Router(), http.MethodGet, "/players/nobody")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListFilteredByReason(t *testing.T) {
	fs := &fakeStore{}
	srv := NewServer(fs, &fakeScheduler{})

	rec := do(t, srv.Router(), http.MethodGet, "/filtered?reason=name_has_space")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "name_has_space", fs.lastReason)
	require.Contains(t, rec.Body.String(), "Team BDS")
}

func TestTriggerRun(t *testing.T) {
	sched := &fakeScheduler{}
	srv := NewServer(&fakeStore{}, sched)

	rec := do(t, srv.Router(), http.MethodPost, "/runs")
	require.Equal(t, http.StatusAccepted, rec.Code)

	sched.busy = true
	rec = do(t, srv.Router(), http.MethodPost, "/runs")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestStatsIncludesLastRun(t *testing.T) {
	sched := &fakeScheduler{last: &core.RunResult{
		Harvested:  10,
		Unique:     8,
		Enrichment: core.Summary{Records: 5, Filtered: 3, ByReason: map[string]int{"not_player_page": 3}},
	}}
	srv := NewServer(&fakeStore{}, sched)

	rec := do(t, srv.Router(), http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Running bool    `json:"running"`
		LastRun runView `json:"last_run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Running)
	require.Equal(t, 10, body.LastRun.Harvested)
	require.Equal(t, 5, body.LastRun.Records)
	require.Equal(t, 3, body.LastRun.ByReason["not_player_page"])
}

func TestMetricsRoute(t *testing.T) {
	srv := NewServer(&fakeStore{}, &fakeScheduler{})
	rec := do(t, srv.Router(), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListPlayersReportsClampedLimit(t *testing.T) {
	fs := &fakeStore{}
	srv := NewServer(fs, &fakeScheduler{})

	rec := do(t, srv.Router(), http.MethodGet, "/players?limit=5000")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, store.MaxLimit, fs.lastLimit)

	var body struct {
		Limit int `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, store.MaxLimit, body.Limit)
}
