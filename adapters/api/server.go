// Package api exposes the cleaning core over HTTP. Every request carries the
// table it operates on; the server keeps no dataset state.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gomend/internal"
	"gomend/internal/cleaning"
	"gomend/internal/config"
	"gomend/internal/errors"
	"gomend/internal/missing"
	"gomend/internal/outlier"
	"gomend/internal/planner"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 32 << 20

// Server holds the core services and the router.
type Server struct {
	router  *chi.Mux
	log     *internal.Logger
	cfg     *config.Config
	engine  *missing.Engine
	suite   *outlier.Suite
	cleaner *cleaning.Service
	planner *planner.Planner
}

// NewServer wires the services from cfg.
func NewServer(cfg *config.Config, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	engine := missing.NewEngine(logger)
	suite := outlier.NewSuite(logger, cfg.Outliers)
	s := &Server{
		router:  chi.NewRouter(),
		log:     logger,
		cfg:     cfg,
		engine:  engine,
		suite:   suite,
		cleaner: cleaning.NewService(logger, engine, suite),
		planner: planner.New(logger, engine),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/missing/report", s.handleMissingReport)
		r.Post("/missing/repair", s.handleRepair)
		r.Post("/outliers/detect", s.handleDetect)
		r.Post("/outliers/handle", s.handleOutliers)
		r.Post("/transform", s.handleTransform)
		r.Post("/summary", s.handleSummary)
		r.Post("/plan", s.handlePlan)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

// ListenAndServe serves on the configured port until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("Starting gomend API server on %s", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.InvalidInput("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodePreconditionFailed:
		return http.StatusUnprocessableEntity
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed: %v", err)
	}
	writeJSON(w, status, ErrorResponse{Code: errors.GetCode(err), Message: err.Error()})
}
