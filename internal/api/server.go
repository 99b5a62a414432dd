package api

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

	"github.com/jonesrussell/rage-tracker/internal/config"
	"github.com/jonesrussell/rage-tracker/internal/handler"
	"github.com/jonesrussell/rage-tracker/internal/logger"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	shutdownTimeout     = 10 * time.Second
)

// Handlers bundles the route handlers wired into the server.
type Handlers struct {
	Events     *handler.EventsHandler
	RageClicks *handler.RageClickHandler
	Health     *handler.HealthHandler
	Metrics    http.Handler
}

// Server wraps the gin engine and HTTP server with lifecycle management.
type Server struct {
	router *gin.Engine
	server *http.Server
	log    logger.Logger
}

// NewServer creates a new HTTP server with the standard middleware chain
// and all API routes registered. The done channel stops background
// goroutines owned by the routes (rate limiter cleanup) on shutdown.
func NewServer(cfg *config.Config, h Handlers, log logger.Logger, done <-chan struct{}) *Server {
	if cfg.Service.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Recovery first so panics in later middleware are caught.
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware())

	SetupRoutes(router, h, cfg, done)

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Service.Port),
			Handler:      router,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
		log: log,
	}
}

// Router returns the underlying gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start begins serving HTTP requests and blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", logger.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// up to the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}

// Run starts the server and blocks until SIGINT or SIGTERM, then stops
// it gracefully.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		s.log.Info("Shutdown signal received", logger.String("signal", sig.String()))
	}

	if err := s.Shutdown(context.Background()); err != nil {
		return err
	}

	// Start returns once the listener has drained.
	return <-errCh
}
