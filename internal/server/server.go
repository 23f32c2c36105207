// Package server exposes the canvas contract over HTTP.
//
// Routes:
//
//	GET  /healthz               build info
//	GET  /graph                 validated canonical model
//	GET  /graph/dot             model as Graphviz DOT
//	POST /graph/operations      apply a batch (?dry_run=true previews)
//	POST /graph/diff            diff two refs: {"base": "...", "head": "..."}
//	GET  /snapshots             snapshot history, newest first
//	GET  /snapshots/{hash}      one snapshot (hash may be abbreviated)
//
// Saves are serialized: concurrent POST /graph/operations requests run one at
// a time so that no batch is lost to a read-modify-write race.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nmcanvas/pkg/canvas"
)

// Server serves one canvas contract.
type Server struct {
	contract *canvas.Contract
	logger   *log.Logger
	router   chi.Router

	saveMu sync.Mutex
}

// New creates a server over c. Requests are logged to logger.
func New(c *canvas.Contract, logger *log.Logger) *Server {
	if logger == nil {
		logger = c.Logger
	}
	s := &Server{contract: c, logger: logger.WithPrefix("http")}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/graph", func(r chi.Router) {
		r.Get("/", s.handleGetGraph)
		r.Post("/operations", s.handleOperations)
		r.Post("/diff", s.handleDiff)
		r.Get("/dot", s.handleGraphDOT)
	})
	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", s.handleListSnapshots)
		r.Get("/{hash}", s.handleGetSnapshot)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "model", s.contract.Store.Location())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
