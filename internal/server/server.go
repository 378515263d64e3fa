// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search engine over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/threadseeker/internal/engine"
	"github.com/pdiddy/threadseeker/pkg/types"
)

// Searcher is the engine surface the server needs.
type Searcher interface {
	SearchJSON(ctx context.Context, query string) ([]byte, error)
	TrendingJSON(ctx context.Context) ([]byte, error)
	Health() engine.Health
}

// Options configures a Server.
type Options struct {
	Config  types.ServerConfig
	Version string
	Logger  *slog.Logger
}

// Server routes HTTP requests to a Searcher.
type Server struct {
	searcher Searcher
	cfg      types.ServerConfig
	version  string
	logger   *slog.Logger
	router   *gin.Engine
}

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	engine.Health
}

// New builds a server and its router.
func New(searcher Searcher, opts Options) *Server {
	s := &Server{
		searcher: searcher,
		cfg:      opts.Config,
		version:  opts.Version,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.cfg.Mode != "" {
		gin.SetMode(s.cfg.Mode)
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger(s.logger), CORS(s.cfg.AllowedOrigins))

	r.GET("/", s.health)
	r.GET("/health", s.health)
	r.POST("/search", s.search)
	r.GET("/trending", s.trending)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Health:  s.searcher.Health(),
	})
}

func (s *Server) search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: body must be JSON with a non-empty \"query\""})
		return
	}

	data, err := s.searcher.SearchJSON(c.Request.Context(), req.Query)
	if err != nil {
		s.fail(c, "search", err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) trending(c *gin.Context) {
	data, err := s.searcher.TrendingJSON(c.Request.Context())
	if err != nil {
		s.fail(c, "trending", err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// fail maps engine errors to status codes.
func (s *Server) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, engine.ErrEmptyQuery), errors.Is(err, engine.ErrQueryTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled"})
	default:
		s.logger.Error(op+" failed", "error", err, "request_id", GetRequestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
	}
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
