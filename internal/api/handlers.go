package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baxromumarov/roster-scraper/internal/observability"
	"github.com/baxromumarov/roster-scraper/internal/store"
)

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 50)

	players, err := s.store.ListPlayers(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch players: "+err.Error())
		return
	}
	if players == nil {
		players = []store.Player{}
	}

	total, err := s.store.CountPlayers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count players: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  players,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	nickname := chi.URLParam(r, "nickname")

	player, err := s.store.GetPlayer(r.Context(), nickname)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Player not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch player: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, player)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 100)

	candidates, err := s.store.ListCandidates(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch candidates: "+err.Error())
		return
	}
	if candidates == nil {
		candidates = []store.Candidate{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  candidates,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleListFiltered(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 100)
	reason := r.URL.Query().Get("reason")

	entries, err := s.store.ListFiltered(r.Context(), reason, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch filtered entries: "+err.Error())
		return
	}
	if entries == nil {
		entries = []store.Filtered{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  entries,
		"reason": reason,
		"limit":  limit,
		"offset": offset,
	})
}

type runView struct {
	StartedAt  time.Time      `json:"started_at"`
	DurationMs int64          `json:"duration_ms"`
	Harvested  int            `json:"harvested"`
	Unique     int            `json:"unique"`
	Kept       int            `json:"kept"`
	Dropped    int            `json:"dropped"`
	Records    int            `json:"records"`
	Filtered   int            `json:"filtered"`
	Failures   int            `json:"failures"`
	ByReason   map[string]int `json:"by_reason"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"counters": observability.Snapshot(),
	}
	if s.scheduler != nil {
		payload["running"] = s.scheduler.Running()
		if last, ok := s.scheduler.LastRun(); ok {
			payload["last_run"] = runView{
				StartedAt:  last.StartedAt,
				DurationMs: last.Duration.Milliseconds(),
				Harvested:  last.Harvested,
				Unique:     last.Unique,
				Kept:       last.Kept,
				Dropped:    last.Dropped,
				Records:    last.Enrichment.Records,
				Filtered:   last.Enrichment.Filtered,
				Failures:   last.Enrichment.Failures,
				ByReason:   last.Enrichment.ByReason,
			}
		}
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler is not running")
		return
	}
	if !s.scheduler.TriggerNow() {
		respondError(w, http.StatusConflict, "A run is already in progress")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	q := r.URL.Query()
	limit := defaultLimit
	offset := 0

	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > store.MaxLimit {
		limit = store.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
