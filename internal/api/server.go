package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/roadlog/internal/accuracy"
	"github.com/MikeSquared-Agency/roadlog/internal/interpreter"
	"github.com/MikeSquared-Agency/roadlog/internal/processor"
	"github.com/MikeSquared-Agency/roadlog/internal/registration"
	"github.com/MikeSquared-Agency/roadlog/internal/store"
)

// Registrar stores registrations and feedback.
type Registrar interface {
	Register(ctx context.Context, req processor.RegisterRequest) (*processor.RegisterResult, error)
	RecordFeedback(ctx context.Context, req processor.FeedbackRequest) (*processor.FeedbackResult, error)
}

// StatusSource reports stored totals for the status endpoint.
type StatusSource interface {
	Ping(ctx context.Context) error
	CountRegistrations(ctx context.Context) (map[registration.Type]int64, error)
	ListAccuracy(ctx context.Context) ([]accuracy.Stats, error)
}

type Options struct {
	Port               int
	APIToken           string
	CORSAllowedOrigins []string
	MaxTranscriptLen   int
}

type Server struct {
	router        *chi.Mux
	http          *http.Server
	interp        *interpreter.Interpreter
	registrar     Registrar
	status        StatusSource
	validate      *validator.Validate
	maxTranscript int
	logger        *slog.Logger
}

func NewServer(opts Options, interp *interpreter.Interpreter, registrar Registrar, status StatusSource, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(corsHandler(opts.CORSAllowedOrigins))

	s := &Server{
		router:        router,
		interp:        interp,
		registrar:     registrar,
		status:        status,
		validate:      newValidator(),
		maxTranscript: opts.MaxTranscriptLen,
		logger:        logger,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/roadlog/status", s.statusHandler)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(opts.APIToken))
		r.Get("/schemas", s.listSchemas)
		r.Get("/schemas/{type}", s.getSchema)
		r.Post("/voice/interpret", s.interpret)
		r.Post("/voice/registrations", s.register)
		r.Post("/voice/feedback", s.feedback)
	})

	return s
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.status.Ping(r.Context()); err != nil {
		s.logger.Error("status: database unreachable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"agent": "roadlog", "status": "degraded"})
		return
	}
	counts, err := s.status.CountRegistrations(r.Context())
	if err != nil {
		s.logger.Error("status: count registrations", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"agent": "roadlog", "status": "degraded"})
		return
	}
	stats, err := s.status.ListAccuracy(r.Context())
	if err != nil {
		s.logger.Error("status: list accuracy", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"agent": "roadlog", "status": "degraded"})
		return
	}

	now := time.Now()
	type typeAccuracy struct {
		accuracy.Stats
		CurrentScore float64 `json:"current_score"`
		Rate         float64 `json:"rate"`
	}
	acc := make([]typeAccuracy, 0, len(stats))
	for _, st := range stats {
		acc = append(acc, typeAccuracy{Stats: st, CurrentScore: st.Current(now), Rate: st.Rate()})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"agent":         "roadlog",
		"status":        "ok",
		"registrations": counts,
		"accuracy":      acc,
	})
}

func (s *Server) listSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"types":   registration.AllTypes,
		"schemas": registration.Schemas(),
	})
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	t, err := registration.Parse(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, registration.SchemaFor(t))
}

// fail maps pipeline errors to HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *interpreter.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Error())
	case errors.Is(err, processor.ErrInvalidFeedback):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "registration not found")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
