// Package server exposes the admin HTTP surface: manual job triggers,
// health and metrics.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"bike-curation/internal/acquisition"
	"bike-curation/internal/domain"
	"bike-curation/internal/observability"
	"bike-curation/internal/scheduler"
	"bike-curation/internal/storage"
)

// Options for creating a Server.
type Options struct {
	Scheduler    *scheduler.Scheduler
	Orchestrator *acquisition.Orchestrator

	// Bounties enables the buyer-request intake endpoint when set.
	Bounties storage.BountyStore

	// DefaultTarget is the acquisition count used when a trigger does
	// not pass ?target=N.
	DefaultTarget int
}

// Server routes admin requests to the scheduler and orchestrator.
type Server struct {
	sched         *scheduler.Scheduler
	orchestrator  *acquisition.Orchestrator
	bounties      storage.BountyStore
	defaultTarget int
}

// New creates a Server.
func New(opts Options) *Server {
	target := opts.DefaultTarget
	if target <= 0 {
		target = 10
	}
	return &Server{
		sched:         opts.Scheduler,
		orchestrator:  opts.Orchestrator,
		bounties:      opts.Bounties,
		defaultTarget: target,
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", observability.Handler())
	r.Post("/jobs/{name}/run", s.handleRunJob)
	if s.bounties != nil {
		r.Post("/bounties", s.handleCreateBounty)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRunJob triggers one job immediately. The acquisition job
// accepts an optional ?target=N override.
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if name == "acquisition" {
		target := s.defaultTarget
		if raw := r.URL.Query().Get("target"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target must be a positive integer"})
				return
			}
			target = n
		}
		result, err := s.orchestrator.Run(r.Context(), target)
		if err != nil {
			log.Printf("[server] acquisition trigger failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	if err := s.sched.Trigger(r.Context(), name); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("[server] job %s trigger failed: %v", name, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed", "job": name})
}

// createBountyRequest is the intake payload. Category is the only
// required constraint; every other field narrows the match when set.
type createBountyRequest struct {
	Category string   `json:"category"`
	Brand    *string  `json:"brand,omitempty"`
	Model    *string  `json:"model,omitempty"`
	Size     *string  `json:"size,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	MinGrade *string  `json:"min_grade,omitempty"`
}

func (s *Server) handleCreateBounty(w http.ResponseWriter, r *http.Request) {
	var req createBountyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	cat, ok := domain.ParseCategory(req.Category)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category: " + req.Category})
		return
	}

	b := &domain.Bounty{
		BountyID:  uuid.NewString(),
		Category:  cat,
		Brand:     req.Brand,
		Model:     req.Model,
		Size:      req.Size,
		MaxPrice:  req.MaxPrice,
		IsOpen:    true,
		CreatedAt: time.Now().UnixMilli(),
	}
	if req.MinGrade != nil {
		g := domain.Grade(*req.MinGrade)
		if g != domain.GradeA && g != domain.GradeB && g != domain.GradeC {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "min_grade must be A, B or C"})
			return
		}
		b.MinGrade = &g
	}

	if err := s.bounties.Insert(r.Context(), b); err != nil {
		log.Printf("[server] bounty insert failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"bounty_id": b.BountyID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] write response: %v", err)
	}
}
