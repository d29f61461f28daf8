package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/lurebox/internal/session"
	"github.com/lurebox/pkg/models"
)

// TurnProcessor is what the transport needs from the engagement
// engine.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, sessionID, text string) (*models.TurnResult, error)
	EndSession(sessionID string) (session.State, bool)
	ResetSession(sessionID string)
	Diagnostics(sessionID string) (session.State, bool)
}

// SessionCounter exposes the live session count for the health
// endpoint.
type SessionCounter interface {
	Len() int
}

// Server is the HTTP transport in front of the engine.
type Server struct {
	echo     *echo.Echo
	port     int
	apiKey   string
	engine   TurnProcessor
	sessions SessionCounter
}

// Options configures the server.
type Options struct {
	Port          int
	APIKey        string
	RatePerMinute int
	Engine        TurnProcessor
	Sessions      SessionCounter
}

// NewServer creates the API server with the standard middleware stack.
func NewServer(o Options) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if o.RatePerMinute > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(float64(o.RatePerMinute) / 60.0))))
	}

	server := &Server{
		echo:     e,
		port:     o.Port,
		apiKey:   o.APIKey,
		engine:   o.Engine,
		sessions: o.Sessions,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.health)

	v1 := s.echo.Group("/api/v1")
	if s.apiKey != "" {
		v1.Use(s.requireAPIKey)
	}
	v1.POST("/message", s.postMessage)
	v1.GET("/session/:id", s.getSession)
	v1.POST("/session/:id/end", s.endSession)
	v1.POST("/session/:id/reset", s.resetSession)
}

// requireAPIKey rejects requests without the configured X-API-Key
// header.
func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("X-API-Key") != s.apiKey {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key")
		}
		return next(c)
	}
}

// Start runs the server until an interrupt, then shuts down
// gracefully.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// StartContext runs the server until ctx is cancelled. Used when the
// caller owns the signal handling.
func (s *Server) StartContext(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}
