// Package server exposes the short-link routes over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/sundayezeilo/shortlink/internal/config"
	"github.com/sundayezeilo/shortlink/internal/httpx"
	"github.com/sundayezeilo/shortlink/internal/shortener"
)

// HealthResponse is the body of GET /x/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	links   *shortener.Handler
	httpSrv *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, links *shortener.Handler) *Server {
	return &Server{cfg: cfg, logger: logger, links: links}
}

// Handler returns the router behind the middleware chain. Tests drive it directly.
func (s *Server) Handler() http.Handler {
	mw := httpx.Chain(
		httpx.Recovery(s.logger),
		httpx.RequestID,
		httpx.Logger(s.logger),
		httpx.CORS(s.cfg.Server.AllowedOrigins),
	)
	return mw(jsonFallback(s.routes()))
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /x/health", s.health)
	mux.HandleFunc("POST /api/links", s.links.CreateLink)
	mux.HandleFunc("GET /api/links/{token}", s.links.GetLink)
	mux.HandleFunc("DELETE /api/links/{token}", s.links.DeleteLink)
	// More specific /api/links patterns win over this catch-all.
	mux.HandleFunc("GET /{token}", s.links.ResolveLink)
	return mux
}

// jsonFallback serves matched routes through mux and answers unmatched
// paths and wrong methods with the JSON error body instead of plain text.
func jsonFallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := mux.Handler(r)
		if pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		// The mux's own fallback tells 404 and 405 apart and sets Allow.
		rec := &statusCapture{header: make(http.Header), status: http.StatusOK}
		h.ServeHTTP(rec, r)

		if rec.status == http.StatusMethodNotAllowed {
			if allow := rec.header.Get("Allow"); allow != "" {
				w.Header().Set("Allow", allow)
			}
			httpx.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed",
				fmt.Sprintf("method %s is not allowed on %s", r.Method, r.URL.Path))
			return
		}
		httpx.WriteError(w, http.StatusNotFound, "not_found", "page not found")
	})
}

// statusCapture records the status and headers of a handler and drops the body.
type statusCapture struct {
	header http.Header
	status int
}

func (c *statusCapture) Header() http.Header         { return c.header }
func (c *statusCapture) Write(b []byte) (int, error) { return len(b), nil }
func (c *statusCapture) WriteHeader(status int)      { c.status = status }

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: s.cfg.Observability.ServiceName,
		Version: s.cfg.Observability.ServiceVersion,
	})
}

// Start blocks serving requests. When ctx is done it drains in-flight
// requests for at most ShutdownTimeout and returns nil.
func (s *Server) Start(ctx context.Context) error {
	srvCfg := s.cfg.Server
	s.httpSrv = &http.Server{
		Addr:         srvCfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  srvCfg.ReadTimeout,
		WriteTimeout: srvCfg.WriteTimeout,
		IdleTimeout:  srvCfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpSrv.Addr, "env", s.cfg.App.Environment)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("draining connections", "cause", context.Cause(ctx), "timeout", srvCfg.ShutdownTimeout)
	drainCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Shutdown stops the listener and waits for active requests. It force-closes
// remaining connections when ctx expires. Safe to call before Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	err := s.httpSrv.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("drain deadline hit, closing remaining connections")
		return s.httpSrv.Close()
	}
	return err
}
