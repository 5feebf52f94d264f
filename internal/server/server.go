// Package server exposes the resolve and fetch pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/haven/pkg/buildinfo"
	"github.com/matzehuels/haven/pkg/errors"
	"github.com/matzehuels/haven/pkg/pipeline"
	"github.com/matzehuels/haven/pkg/render"
)

// DefaultAddr is the listen address of `haven serve`.
const DefaultAddr = "127.0.0.1:8080"

const shutdownTimeout = 10 * time.Second

// Config configures a Server.
type Config struct {
	Runner *pipeline.Runner

	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer

	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Server routes HTTP requests to a pipeline Runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New builds the router.
func New(cfg Config) *Server {
	s := &Server{runner: cfg.Runner, logger: cfg.Logger}
	if s.logger == nil {
		s.logger = log.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/resolve", s.handleResolve)
	r.Get("/fetch", s.handleFetch)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "version", buildinfo.Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Current()})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	opts, err := options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	switch format {
	case "", pipeline.FormatText:
		format = pipeline.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Resolve(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format {
	case pipeline.FormatDOT:
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.Write([]byte(render.ToDOT(res.Outcome, render.Options{})))
	case pipeline.FormatSVG:
		svg, err := render.RenderSVG(r.Context(), render.ToDOT(res.Outcome, render.Options{}))
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render svg"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write(svg)
	default:
		writeJSON(w, http.StatusOK, res.Outcome)
	}
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	opts, err := options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Fetch(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// options reads the query parameters shared by /resolve and /fetch.
func options(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{Declaration: q.Get("declaration")}

	var err error
	if opts.SkipInner, err = boolParam(q.Get("skipInner")); err != nil {
		return opts, err
	}
	if opts.Refresh, err = boolParam(q.Get("refresh")); err != nil {
		return opts, err
	}
	return opts, nil
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid boolean %q", v)
	}
	return b, nil
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeMalformedDeclaration, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeIO:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
