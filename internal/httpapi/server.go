// Package httpapi exposes the deck pipeline, the deck store and the exporters
// over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/deckforge/server/internal/deck/model"
	"github.com/deckforge/server/internal/deck/pipeline"
	logx "github.com/deckforge/server/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg     Config
	handler http.Handler
	limiter *rateLimiter
}

func NewServer(cfg Config, runner pipeline.Runner, repo model.DeckRepository) *Server {
	h := &handlers{runner: runner, repo: repo, cfg: cfg}
	limiter := newRateLimiter(cfg.RateLimit, cfg.RateWindow, cfg.TrustProxy)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /api/themes", h.listThemes)
	mux.HandleFunc("GET /api/formats", h.listFormats)

	// generation routes call the model and are rate limited per IP
	mux.Handle("POST /api/decks", limiter.Middleware(http.HandlerFunc(h.createDeck)))
	mux.Handle("POST /api/outlines", limiter.Middleware(http.HandlerFunc(h.createOutline)))

	mux.HandleFunc("GET /api/decks/{id}", h.getDeck)
	mux.HandleFunc("DELETE /api/decks/{id}", h.deleteDeck)
	mux.HandleFunc("GET /api/decks/{id}/export", h.exportDeck)
	mux.HandleFunc("POST /api/documents", h.uploadDocument)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", "Retry-After", requestIDHeader},
	})

	return &Server{
		cfg:     cfg,
		handler: recoverPanics(logRequests(corsHandler.Handler(mux))),
		limiter: limiter,
	}
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close releases the rate limiter's cleanup goroutine.
func (s *Server) Close() {
	s.limiter.Close()
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logx.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
