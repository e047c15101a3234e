// Package server provides the JSON API the browser editor calls for model operations.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/creative-compliance/internal/ai"
	"github.com/jonathan/creative-compliance/internal/export"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/server/ratelimit"
	"github.com/jonathan/creative-compliance/internal/storage"
	"github.com/jonathan/creative-compliance/internal/types"
)

// BackgroundRemover cuts the background out of an encoded image
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, image []byte) ([]byte, error)
}

// Deps are the collaborators behind the API. Nil AI, Remover or Library disable their routes with 503.
type Deps struct {
	AI       *ai.Orchestrator
	Remover  BackgroundRemover
	Library  *storage.Library
	Exporter *export.Pipeline
	Limiter  *ratelimit.Limiter
	Logger   *observability.Logger
}

// Config holds server configuration
type Config struct {
	Addr           string
	DefaultProfile types.ProfileID
	// RequestTimeout bounds model and export calls; zero means two minutes
	RequestTimeout time.Duration
	// MaxBodyBytes caps request bodies; zero means 32 MiB
	MaxBodyBytes int64
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        Config
	deps       Deps
	log        *observability.Logger
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 32 << 20
	}
	if deps.Exporter == nil {
		deps.Exporter = export.NewPipeline(export.Options{Logger: deps.Logger})
	}

	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  observability.OrNop(deps.Logger).With("component", "server"),
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.withCORS(), s.withLogging(), s.withBodyLimit())
	if s.deps.Limiter != nil {
		r.Use(s.withRateLimit())
	}

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/formats", s.handleFormats)
		api.GET("/profiles", s.handleProfiles)
		api.POST("/check", s.handleCheck)
		api.POST("/sanitize", s.handleSanitize)
		api.POST("/adapt", s.handleAdapt)
		api.POST("/variants/apply", s.handleApplyVariant)
		api.POST("/export", s.handleExport)
		api.POST("/background-removal", s.handleRemoveBackground)
	}

	aiGroup := api.Group("/ai")
	{
		aiGroup.POST("/analyze", s.handleAnalyze)
		aiGroup.POST("/people", s.handlePeople)
		aiGroup.POST("/copy", s.handleCopy)
		aiGroup.POST("/creative", s.handleCreative)
		aiGroup.POST("/campaign", s.handleCampaign)
	}

	lib := api.Group("")
	{
		lib.GET("/templates", s.handleListTemplates)
		lib.POST("/templates", s.handleSaveTemplate)
		lib.GET("/templates/:id", s.handleGetTemplate)
		lib.DELETE("/templates/:id", s.handleDeleteTemplate)
		lib.GET("/history", s.handleListHistory)
		lib.POST("/history", s.handlePushHistory)
		lib.DELETE("/history", s.handleClearHistory)
		lib.PUT("/keys/:service", s.handleSetKey)
		lib.DELETE("/keys/:service", s.handleDeleteKey)
	}
	return r
}

// Start begins listening and shuts down gracefully on SIGINT, SIGTERM or ctx cancellation
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.deps.Limiter != nil {
		s.deps.Limiter.Stop()
	}
	s.log.Info("server stopped")
	return nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if s.deps.Library != nil && s.deps.Library.Degraded() {
		status["storage"] = "degraded"
	}
	respondOK(c, status)
}

// requestContext bounds a model call by the configured timeout
func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
}
