package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"triage-engine/internal/metrics"
	"triage-engine/internal/severity"
	"triage-engine/pkg"
)

// Triager runs one patient description through the triage pipeline. It
// never fails: errors become the safety-fallback result.
type Triager interface {
	Triage(ctx context.Context, patientText string) *pkg.TriageResult
}

// Server bundles the dependencies required by the HTTP handlers. It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	engine Triager
	scorer *severity.Scorer
	logger *zap.Logger
	router chi.Router
}

// NewServer constructs the HTTP surface: the triage and score endpoints, a
// health check, and Prometheus metrics. The rate limit protects the shared
// model endpoint behind the triage route.
func NewServer(engine Triager, scorer *severity.Scorer, logger *zap.Logger, rps, burst int) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		scorer: scorer,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(rateLimiter(rps, burst))

	r.Post("/api/triage", s.handleTriage)
	r.Post("/api/score", s.handleScore)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleTriage runs the pipeline. The response is always 200 with a
// well-formed recommendation; pipeline failure shows up as the URGENT
// safety fallback, not as an HTTP error.
func (s *Server) handleTriage(w http.ResponseWriter, r *http.Request) {
	var req pkg.TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	result := s.engine.Triage(r.Context(), req.Description)
	writeJSON(w, http.StatusOK, result)
}

// handleScore exposes the deterministic severity scorer. It is a separate
// surface from /api/triage: the scorer is a cross-check, not a pipeline
// stage.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req pkg.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Symptoms) == 0 {
		writeError(w, http.StatusBadRequest, "symptoms are required")
		return
	}
	writeJSON(w, http.StatusOK, pkg.ScoreResponse{
		Score:    s.scorer.Score(req.Symptoms),
		Priority: string(s.scorer.Classify(req.Symptoms)),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// rateLimiter bounds request throughput across all clients.
func rateLimiter(rps, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
