// Package ingress is the HTTP entry point. It answers the vendor's
// verification challenge, verifies signatures on inbound deliveries, and
// splits accept from process: the POST handler returns 202 as soon as the
// payload is authenticated, and normalization plus dispatch run in a
// detached task that is never awaited by the response path.
package ingress

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"warelay/internal/config"
	"warelay/internal/dispatch"
	"warelay/internal/events"
	"warelay/internal/journal"
	"warelay/internal/log"
	"warelay/internal/platform"
)

// Options wires the server to the rest of the pipeline.
type Options struct {
	Config      config.IngressConfig
	AppSecret   string
	VerifyToken string
	Registry    *platform.Registry
	Dispatcher  *dispatch.Dispatcher
	Journal     *journal.Journal
	Hub         *events.Hub
}

// Server is the webhook HTTP server.
type Server struct {
	opts   Options
	logger *slog.Logger
	server *http.Server

	// tasks tracks in-flight async processing so shutdown can drain.
	tasks sync.WaitGroup
}

func New(opts Options) *Server {
	if opts.Config.MaxBodyBytes <= 0 {
		opts.Config.MaxBodyBytes = 1 << 20
	}
	if opts.Config.ShutdownTimeout <= 0 {
		opts.Config.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		opts:   opts,
		logger: log.WithComponent("ingress"),
	}
}

// Start runs the HTTP server until ctx is cancelled, then drains in-flight
// tasks. Blocking.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.opts.Config.Listen,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("ingress server starting",
		"listen", s.opts.Config.Listen,
		"platforms", s.opts.Registry.Names())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("ingress server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.Config.ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ingress shutdown failed: %w", err)
		}
		s.Drain()
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("ingress server error: %w", err)
	}
}

// Drain waits for in-flight async tasks to finish.
func (s *Server) Drain() {
	s.tasks.Wait()
}

// Routes builds the router. Exposed so tests can drive the server through
// httptest without a listener.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/webhook/messenger/{platform}/verify", s.handleVerify)
	r.Get("/webhook/messenger/{tenantID}/{platform}", s.handleChallenge)
	r.Post("/webhook/messenger/{tenantID}/{platform}", s.handleAccept)
	r.Get("/webhook/events", s.handleEvents)

	return r
}

// loggingMiddleware logs HTTP requests (never payload content).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}
