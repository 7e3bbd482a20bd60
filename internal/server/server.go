// Package server is the HTTP plumbing over the concurrency controller: JSON
// request decoding, outcome-to-status mapping and a websocket watch stream.
// All game semantics live below it in engine and controller.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/calebforth/ventureboard/internal/catalog"
	"github.com/calebforth/ventureboard/internal/controller"
	"github.com/calebforth/ventureboard/internal/store"
)

// Server serves the room API.
type Server struct {
	cfg    *Config
	ctl    *controller.Controller
	hub    *watchHub
	logger *log.Logger
}

// NewServer wires a controller over the given store and catalog.
func NewServer(cfg *Config, st store.Store, cat *catalog.Catalog, logger *log.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger.WithPrefix("server"),
	}
	s.hub = newWatchHub(s.logger)
	s.ctl = controller.New(st, cat,
		controller.WithLogger(logger.WithPrefix("controller")),
		controller.WithApplyHook(s.hub.broadcast),
	)
	return s
}

// Controller exposes the wired controller, mainly for tests.
func (s *Server) Controller() *controller.Controller {
	return s.ctl
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms/{id}", s.handleGetRoom)
	mux.HandleFunc("POST /rooms/{id}/actions", s.handleAction)
	mux.HandleFunc("POST /rooms/{id}/deal", s.handleClaimDeal)
	mux.HandleFunc("GET /rooms/{id}/watch", s.handleWatch)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.ListenAddress(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.closeAll()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
