package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/ticketflow"
	"github.com/aretw0/ticketflow/internal/dto"
	"github.com/aretw0/ticketflow/internal/logging"
	mermaid "github.com/aretw0/ticketflow/internal/presentation/graph"
	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/graph"
	"github.com/aretw0/ticketflow/pkg/support"
)

// MaxBodyBytes bounds the size of a ticket submission.
const MaxBodyBytes = 1 << 20

// Service resolves tickets and serves stored runs.
type Service interface {
	Resolve(ctx context.Context, initial *domain.State) (*domain.RunRecord, error)
	Get(ctx context.Context, runID string) (*domain.RunRecord, error)
	List(ctx context.Context) ([]*domain.RunRecord, error)
}

// Inspector exposes the workflow structure.
type Inspector interface {
	Inspect() []graph.NodeInfo
}

// Server holds the HTTP handlers.
type Server struct {
	Service Service
	Graph   Inspector
	Streams *StreamManager

	metrics http.Handler
	cors    bool
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams enables GET /v1/events. The manager's Hooks must be registered
// on the engine for events to flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithCORS toggles the permissive CORS headers.
func WithCORS(enabled bool) Option {
	return func(s *Server) {
		s.cors = enabled
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the service.
func NewHandler(svc Service, g Inspector, opts ...Option) http.Handler {
	s := &Server{
		Service: svc,
		Graph:   g,
		cors:    true,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.GetHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", s.GetInfo)
		r.Post("/tickets", s.ResolveTicket)
		r.Get("/runs", s.ListRuns)
		r.Get("/runs/{id}", s.GetRun)
		r.Get("/graph", s.GetGraph)
		if s.Streams != nil {
			r.Get("/events", s.SubscribeEvents)
		}
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	if s.cors {
		return enableCORS(r)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ResolveTicket handles POST /v1/tickets. The body is a JSON ticket; the run
// is executed synchronously. Completed runs answer 201, aborted runs 422 with
// the partial record attached.
func (s *Server) ResolveTicket(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		s.logger.Warn("ResolveTicket: Invalid request body", "err", err)
		s.writeError(w, r, http.StatusBadRequest, dto.ErrorResponse{
			Error: fmt.Sprintf("invalid request body: %v", err),
			Kind:  dto.KindBadRequest,
		})
		return
	}

	ticket, err := support.DecodeTicket(raw)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Kind: dto.KindBadRequest})
		return
	}
	initial, err := ticket.State()
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Kind: dto.KindBadRequest})
		return
	}

	rec, err := s.Service.Resolve(r.Context(), initial)
	if err != nil {
		resp := dto.NewErrorResponse(err)
		status := http.StatusInternalServerError
		if rec != nil && errors.Is(err, domain.ErrExecutionAborted) {
			view := dto.View(rec)
			resp.Run = &view
			status = http.StatusUnprocessableEntity
		}
		s.logger.Warn("ResolveTicket: run failed", "err", err, "status", status)
		s.writeError(w, r, status, resp)
		return
	}

	w.Header().Set("Location", "/v1/runs/"+rec.ID)
	writeJSON(w, http.StatusCreated, dto.View(rec))
}

// ListRuns handles GET /v1/runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Service.List(r.Context())
	if err != nil {
		s.logger.Error("ListRuns failed", "err", err)
		s.writeError(w, r, http.StatusInternalServerError, dto.NewErrorResponse(err))
		return
	}
	out := make([]dto.RunSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, dto.Summarize(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetRun handles GET /v1/runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrRunNotFound) {
			status = http.StatusNotFound
		}
		s.writeError(w, r, status, dto.NewErrorResponse(err))
		return
	}
	writeJSON(w, http.StatusOK, dto.View(rec))
}

// GetGraph handles GET /v1/graph. With ?format=mermaid it returns a Mermaid
// flowchart; ?run=<id> overlays the stages that run visited.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	nodes := s.Graph.Inspect()
	if r.URL.Query().Get("format") != "mermaid" {
		writeJSON(w, http.StatusOK, nodes)
		return
	}

	var overlay *mermaid.GraphOverlay
	if runID := r.URL.Query().Get("run"); runID != "" {
		rec, err := s.Service.Get(r.Context(), runID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrRunNotFound) {
				status = http.StatusNotFound
			}
			s.writeError(w, r, status, dto.NewErrorResponse(err))
			return
		}
		overlay = &mermaid.GraphOverlay{VisitedNodes: rec.Path, FailedNode: rec.FailedStage}
	}

	w.Header().Set("Content-Type", "text/vnd.mermaid; charset=utf-8")
	io.WriteString(w, mermaid.GenerateMermaid(nodes, overlay))
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /v1/info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":     "ticketflow-http",
		"version": strings.TrimSpace(ticketflow.Version),
		"stages":  support.Order,
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, resp dto.ErrorResponse) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", middleware.GetReqID(r.Context()), "err", resp.Error)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
