// Package server exposes the bookmark graph over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/bookmarks"
	"github.com/raphataylor/WebGraph/internal/metrics"
	"github.com/raphataylor/WebGraph/internal/view"
)

// BookmarkReader serves the read-only listing endpoints. Reads go straight
// to the store, which is safe for concurrent use.
type BookmarkReader interface {
	ListBookmarks(ctx context.Context) ([]bookmarks.Site, error)
	ListTags(ctx context.Context) ([]bookmarks.Tag, error)
	Get(ctx context.Context, id string) (bookmarks.Site, error)
}

// SnapshotStore holds the page previews served under /snapshots.
type SnapshotStore interface {
	Put(ctx context.Context, id string, blob []byte) error
	Get(ctx context.Context, id string) ([]byte, bool, error)
	Delete(ctx context.Context, id string) error
}

// Deps are the components a Server routes to.
type Deps struct {
	Loop      *view.Loop
	Bookmarks BookmarkReader
	Snapshots SnapshotStore
	Metrics   *metrics.Collector
	Logger    *zap.Logger
}

// Server is the HTTP host. Anything touching the controller runs on the
// view loop; list and snapshot endpoints use the stores directly.
type Server struct {
	loop      *view.Loop
	bookmarks BookmarkReader
	snapshots SnapshotStore
	metrics   *metrics.Collector
	logger    *zap.Logger
	handler   http.Handler
}

// New builds the router.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		loop:      deps.Loop,
		bookmarks: deps.Bookmarks,
		snapshots: deps.Snapshots,
		metrics:   deps.Metrics,
		logger:    logger,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(s.requestLogger)
	router.Use(chimiddleware.Recoverer)

	router.Get("/health", s.healthCheck)
	if s.metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/bookmarks", func(r chi.Router) {
			r.Get("/", s.listBookmarks)
			r.Post("/", s.createBookmark)
			r.Get("/{id}", s.getBookmark)
			r.Patch("/{id}", s.updateBookmark)
			r.Delete("/{id}", s.deleteBookmark)
			r.Post("/{id}/visit", s.visitBookmark)
			r.Post("/{id}/tags", s.addSiteTag)
			r.Delete("/{id}/tags/{name}", s.removeSiteTag)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.listTags)
			r.Post("/", s.createTag)
			r.Post("/cleanup", s.cleanupTags)
			r.Put("/{id}", s.renameTag)
			r.Delete("/{id}", s.deleteTag)
		})

		r.Route("/snapshots/{id}", func(r chi.Router) {
			r.Get("/", s.getSnapshot)
			r.Put("/", s.putSnapshot)
			r.Delete("/", s.deleteSnapshot)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.getSettings)
			r.Patch("/", s.updateSettings)
			r.Post("/reset", s.resetSettings)
		})

		r.Delete("/space", s.clearSpace)

		r.Route("/graph", func(r chi.Router) {
			r.Get("/frame", s.frame)
			r.Post("/drag", s.drag)
			r.Post("/zoom", s.zoom)
			r.Post("/pan", s.pan)
			r.Post("/resize", s.resize)
			r.Post("/reset-view", s.resetView)
			r.Post("/search", s.search)
			r.Get("/select/{id}", s.selectNode)
			r.Delete("/select", s.clearSelection)
		})
	})

	return router
}

// requestLogger logs each request once it completes and counts it under
// its route pattern so ids do not explode label cardinality.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveHTTP(r.Method, route, status)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())))
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
