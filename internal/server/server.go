// Package server exposes the validator over HTTP and runs the listener
// lifecycle: serve, drain on cancellation, shut down.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bionicotaku/lingo-utils-claimcheck"
	"github.com/bionicotaku/lingo-utils-claimcheck/internal/config"
	"github.com/bionicotaku/lingo-utils-claimcheck/internal/metrics"
)

const tracerName = "github.com/bionicotaku/lingo-utils-claimcheck/internal/server"

// Server serves POST /api/validate, GET /healthz and, when enabled, the
// Prometheus endpoint.
type Server struct {
	cfg       *config.Config
	validator *claimcheck.Validator
	recorder  *metrics.Recorder
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
	tracer    trace.Tracer

	shuttingDown atomic.Bool
}

// Params groups the dependencies of a Server.
type Params struct {
	Config    *config.Config
	Validator *claimcheck.Validator
	Logger    *zap.Logger
	// Registry receives the validation collectors and backs the metrics
	// endpoint. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// New wires a Server from p.
func New(p Params) (*Server, error) {
	if p.Config == nil {
		return nil, errors.New("config is required")
	}
	if p.Validator == nil {
		return nil, errors.New("validator is required")
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := p.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	return &Server{
		cfg:       p.Config,
		validator: p.Validator,
		recorder:  recorder,
		gatherer:  reg,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/validate", s.handleValidate)
	if s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, s.cfg.Metrics.Path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Run serves on ln until ctx is cancelled, then shuts down gracefully. A nil
// ln listens on the configured address.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		var err error
		ln, err = (&net.ListenConfig{}).Listen(ctx, "tcp", s.cfg.HTTP.Addr)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.HTTP.ReadTimeout,
		WriteTimeout: s.cfg.HTTP.WriteTimeout,
		IdleTimeout:  s.cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting HTTP server",
			zap.String("addr", ln.Addr().String()),
			zap.String("environment", s.cfg.Environment),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down HTTP server")
		s.shuttingDown.Store(true)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
			return err
		}
		s.logger.Info("shutdown complete")
		return nil
	})

	return g.Wait()
}

type validateRequest struct {
	JWT string `json:"jwt"`
}

type validateResponse struct {
	IsValid bool `json:"isValid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "claimcheck.validate")
	defer span.End()

	var req validateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.HTTP.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request body")
		loggerFrom(ctx, s.logger).Debug("invalid request body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	start := time.Now()
	_, err := s.validator.Check(req.JWT)
	s.recorder.Observe(err, time.Since(start))

	outcome := metrics.Outcome(err)
	span.SetAttributes(
		attribute.Bool("claimcheck.valid", err == nil),
		attribute.String("claimcheck.outcome", outcome),
	)
	loggerFrom(ctx, s.logger).Info("token validated", zap.String("outcome", outcome))

	writeJSON(w, http.StatusOK, validateResponse{IsValid: err == nil})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.shuttingDown.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
