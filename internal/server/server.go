// Package server provides the HTTP API for recipebox.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/recipebox/internal/auth"
	"github.com/hyperjump/recipebox/internal/config"
	"github.com/hyperjump/recipebox/internal/indexer"
	"github.com/hyperjump/recipebox/internal/search"
)

// WatchService manages the watched import directories.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the recipebox API.
type Server struct {
	engine   *search.Engine
	indexer  *indexer.Indexer
	accounts *auth.Service
	config   *config.ServerConfig
	logger   *zap.Logger
	limiter  *rate.Limiter

	watch      WatchService
	appConfig  *config.Config
	configPath string
	configMu   sync.Mutex

	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAccounts enables registration, login and favorites. Without it,
// writes are open and the auth and favorites routes are not mounted.
func WithAccounts(a *auth.Service) Option {
	return func(s *Server) { s.accounts = a }
}

// WithWatch exposes the watched import directories. When configPath is set,
// directory changes are saved to it.
func WithWatch(w WatchService, appConfig *config.Config, configPath string) Option {
	return func(s *Server) {
		s.watch = w
		s.appConfig = appConfig
		s.configPath = configPath
	}
}

// WithAppConfig provides the application config reported by the status endpoint.
func WithAppConfig(cfg *config.Config) Option {
	return func(s *Server) { s.appConfig = cfg }
}

// NewServer creates a server with the given dependencies.
func NewServer(engine *search.Engine, idx *indexer.Indexer, cfg *config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		indexer: idx,
		config:  cfg,
		logger:  zap.NewNop(),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit)
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(s.recoverer)
	r.Use(s.metrics)
	r.Use(s.logRequests)
	r.Use(s.rateLimit)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identify)
		r.Get("/status", s.handleStatus)

		r.Get("/recipes", s.handleListRecipes)
		r.Get("/recipes/{id}", s.handleGetRecipe)
		r.Post("/search", s.handleSearch)
		r.Get("/ingredients", s.handleIngredients)
		r.Get("/ingredients/{name}/recipes", s.handleIngredientRecipes)
		r.Get("/reports/recipes.xlsx", s.handleReport)
		r.Get("/watch/directories", s.handleWatchDirectoriesList)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Post("/recipes", s.handleCreateRecipe)
			r.Patch("/recipes/{id}", s.handleUpdateRecipe)
			r.Delete("/recipes/{id}", s.handleDeleteRecipe)
			// Without accounts nobody can be required to log in, so changing
			// what the host imports needs an explicit opt-in.
			if s.accounts != nil || s.config.OpenWatchAdmin {
				r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
				r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
			}
		})

		if s.accounts != nil {
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
			r.Group(func(r chi.Router) {
				r.Use(s.requireUser)
				r.Post("/auth/logout", s.handleLogout)
				r.Delete("/auth/profile", s.handleDeleteProfile)
				r.Get("/favorites", s.handleListFavorites)
				r.Put("/favorites/{id}", s.handleAddFavorite)
				r.Delete("/favorites/{id}", s.handleRemoveFavorite)
			})
		}
	})
	return r
}

// Start serves the API and blocks until the server stops. A Stop before
// Start makes Start return immediately.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr), zap.Bool("accounts", s.accounts != nil))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
