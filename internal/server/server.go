// package server contains middleware & handlers for the widget backend web service
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/beatify/internal/auth"
	"github.com/desertthunder/beatify/internal/metrics"
	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/services"
	"github.com/desertthunder/beatify/internal/shared"
	"github.com/desertthunder/beatify/internal/tokens"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the widget backend.
// Implementations handle specific endpoints (auth, widget operations, OAuth callbacks).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Server wires the auth service, Spotify client, token issuer, and widget
// storage into the HTTP surface.
type Server struct {
	config   *shared.Config
	logger   *log.Logger
	auth     *auth.Service
	spotify  services.Service
	issuer   tokens.Issuer
	widgets  *repositories.WidgetRepository
	sessions *scs.SessionManager
	metrics  *metrics.Metrics
	limiter  *ipRateLimiter
	router   *BasicRouter

	httpServer *http.Server
}

// New creates a Server with all routes and middleware registered.
func New(config *shared.Config, logger *log.Logger, authService *auth.Service, spotify services.Service, issuer tokens.Issuer, widgets *repositories.WidgetRepository, m *metrics.Metrics) *Server {
	sessions := scs.New()
	sessions.Lifetime = time.Duration(config.Auth.SessionTTLHours) * time.Hour
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode

	s := &Server{
		config:   config,
		logger:   logger,
		auth:     authService,
		spotify:  spotify,
		issuer:   issuer,
		widgets:  widgets,
		sessions: sessions,
		metrics:  m,
		limiter:  newIPRateLimiter(),
	}
	s.router = s.routes()

	return s
}

// Start runs the HTTP server until ctx is cancelled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// ServeHTTP implements http.Handler so tests can drive the full stack with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
