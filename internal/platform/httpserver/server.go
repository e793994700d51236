package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	arbiterservice "strangler/contexts/migration-control/arbiter-service"
	arbiterdomainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
	arbiterhttp "strangler/contexts/migration-control/arbiter-service/transport/http"
	_ "strangler/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux     *http.ServeMux
	srv     *http.Server
	logger  *slog.Logger
	addr    string
	arbiter arbiterservice.Module
}

func New(
	arbiter arbiterservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":5000"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		arbiter: arbiter,
	}
	s.registerRoutes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the route table for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("POST /reset", s.handleReset)
	s.mux.HandleFunc("GET /mismatches", s.handleListMismatches)
	s.mux.HandleFunc("GET /rollbacks", s.handleListRollbacks)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, arbiterhttp.HealthResponse{Status: "healthy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.arbiter.Handler.GetStatusHandler(r.Context())
	if err != nil {
		writeArbiterDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	resp, err := s.arbiter.Handler.ResetHandler(r.Context())
	if err != nil {
		writeArbiterDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListMismatches(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	resp, err := s.arbiter.Handler.ListMismatchesHandler(r.Context(), limit)
	if err != nil {
		writeArbiterDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRollbacks(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	resp, err := s.arbiter.Handler.ListRollbacksHandler(r.Context(), limit)
	if err != nil {
		writeArbiterDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		writeArbiterError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}

func writeArbiterDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, arbiterdomainerrors.ErrInvalidLimit):
		writeArbiterError(w, http.StatusBadRequest, "invalid_limit", err.Error())
	case errors.Is(err, arbiterdomainerrors.ErrUnknownService):
		writeArbiterError(w, http.StatusNotFound, "unknown_service", err.Error())
	default:
		writeArbiterError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeArbiterError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, arbiterhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
