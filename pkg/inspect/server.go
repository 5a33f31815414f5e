// Package inspect provides an HTTP debug API over wire targets, the envelope
// journal and localized error messages
package inspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZentaChain/zentalk-wire/pkg/journal"
)

// Server is the inspector HTTP server
type Server struct {
	journal    *journal.Journal
	router     *gin.Engine
	limiter    *RateLimiter
	config     *Config
	httpServer *http.Server
	logger     *slog.Logger
}

// Config holds server configuration
type Config struct {
	Port         int
	EnableCORS   bool
	RateLimit    int // requests per minute per client, 0 disables
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		EnableCORS:   true,
		RateLimit:    600,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer creates the inspector. j may be nil, in which case the journal
// routes answer 503.
func NewServer(j *journal.Journal, config *Config, logger *slog.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		journal: j,
		router:  gin.New(),
		config:  config,
		logger:  logger.With("component", "inspect"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	if s.config.EnableCORS {
		s.router.Use(CORSMiddleware())
	}

	if s.config.RateLimit > 0 {
		s.limiter = NewRateLimiter(s.config.RateLimit, time.Minute)
		s.router.Use(RateLimitMiddleware(s.limiter))
	}

	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(gin.Recovery())
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		targets := v1.Group("/targets")
		{
			targets.POST("/decode", s.handleDecodeTarget)
			targets.POST("/encode", s.handleEncodeTarget)
		}

		j := v1.Group("/journal")
		{
			j.GET("/stats", s.handleJournalStats)
			j.GET("/pending", s.handlePending)
			j.GET("/:corrid", s.handleCorrelation)
		}

		v1.GET("/errors/:kind/:code", s.handleLocalizeError)
		v1.GET("/languages", s.handleLanguages)
	}

	s.router.GET("/health", s.handleHealth)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down inspector")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.httpServer.Shutdown(shutdownCtx)
}
