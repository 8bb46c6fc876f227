// Package api provides the HTTP API server and handlers for the pokedex.
package api

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	domainerrors "github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/ratelimit"
	"github.com/jeduden/bmad-pokedex/internal/validation"
)

const apiPrefix = "/api/v1"

// Options configures the HTTP surface.
type Options struct {
	// AllowedOrigins lists browser origins for CORS and the live search
	// socket. Empty or "*" allows any origin.
	AllowedOrigins []string
	// RequestsPerSec limits requests per client IP. Zero disables the limit.
	RequestsPerSec float64
	Burst          int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  *Services
	router    *chi.Mux
	api       huma.API
	limiter   *ratelimit.KeyedRateLimiter
	validator *validation.Validator
	upgrader  websocket.Upgrader
	origins   []string
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		services:  services,
		router:    router,
		validator: validation.New(),
		origins:   opts.AllowedOrigins,
		logger:    logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	if opts.RequestsPerSec > 0 {
		s.limiter = ratelimit.New(opts.RequestsPerSec, opts.Burst)
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("bmad-pokedex API", "1.0.0")
	humaConfig.Info.Description = "Browse, search and compare entities from the public PokeAPI."
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	router.NotFound(s.handleRouteNotFound)

	s.registerHealthRoutes()
	s.registerPokemonRoutes()
	s.registerTypeRoutes()
	s.registerBrowseRoutes()
	s.registerSearchRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the inbound rate limiter.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.limiter != nil {
		s.router.Use(rateLimitMiddleware(s.limiter, s.logger))
	}
}

func (s *Server) corsOrigins() []string {
	if len(s.origins) == 0 {
		return []string{"*"}
	}
	return s.origins
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	origins := s.corsOrigins()
	return slices.Contains(origins, "*") || slices.Contains(origins, origin)
}

func (s *Server) handleRouteNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, domainerrors.NotFoundf("no route for %s %s", r.Method, r.URL.Path).WithDetails(fromRoute))
}
