package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baxromumarov/roster-scraper/internal/core"
	"github.com/baxromumarov/roster-scraper/internal/observability"
	"github.com/baxromumarov/roster-scraper/internal/store"
)

// Store is the read side of the player database.
type Store interface {
	Ping(ctx context.Context) error
	ListPlayers(ctx context.Context, limit, offset int) ([]store.Player, error)
	CountPlayers(ctx context.Context) (int, error)
	GetPlayer(ctx context.Context, nickname string) (store.Player, error)
	ListCandidates(ctx context.Context, limit, offset int) ([]store.Candidate, error)
	ListFiltered(ctx context.Context, reason string, limit, offset int) ([]store.Filtered, error)
}

// Scheduler triggers and reports pipeline runs.
type Scheduler interface {
	TriggerNow() bool
	Running() bool
	LastRun() (core.RunResult, bool)
}

type Server struct {
	router    *chi.Mux
	store     Store
	scheduler Scheduler
}

func NewServer(store Store, scheduler Scheduler) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		store:     store,
		scheduler: scheduler,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/players", s.handleListPlayers)
	s.router.Get("/players/{nickname}", s.handleGetPlayer)
	s.router.Get("/candidates", s.handleListCandidates)
	s.router.Get("/filtered", s.handleListFiltered)
	s.router.Get("/stats", s.handleStats)
	s.router.Post("/runs", s.handleTriggerRun)
	s.router.Method(http.MethodGet, "/metrics", observability.Handler())
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "Database unavailable: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
