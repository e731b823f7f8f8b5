package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sony/gobreaker/v2"

	"github.com/armystay/hotels/internal/auth"
	"github.com/armystay/hotels/internal/bookmark"
	"github.com/armystay/hotels/internal/catalog"
	"github.com/armystay/hotels/internal/config"
	"github.com/armystay/hotels/internal/feed"
	"github.com/armystay/hotels/internal/handler"
	"github.com/armystay/hotels/internal/middleware"
	"github.com/armystay/hotels/internal/normalize"
	"github.com/armystay/hotels/internal/obs"
	"github.com/armystay/hotels/internal/ratelimit"
)

// Run initializes and runs the application.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := obs.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	metrics := obs.NewMetrics(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat := catalog.New(
		newSource(cfg.Feed, metrics, logger.With("component", "feed")),
		normalize.DefaultReferences(),
		catalog.Options{TTL: cfg.Feed.CacheTTL, FetchTimeout: cfg.Feed.Timeout},
		metrics,
		logger.With("component", "catalog"),
	)
	defer cat.Close()

	// Warm the cache so the first visitor does not wait on the feed.
	if _, _, err := cat.Snapshot(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	go cat.Run(ctx, cfg.Feed.RefreshInterval)

	limiter := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Close()

	var (
		bookmarks bookmark.Store
		accounts  handler.Accounts
		verifier  middleware.TokenVerifier
	)
	if cfg.Auth.Enabled() {
		store, err := bookmark.Open(cfg.Bookmarks.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close bookmark store", "error", err)
			}
		}()

		bookmarks = store
		accounts = auth.NewGoTrue(cfg.Auth.SupabaseURL, cfg.Auth.AnonKey, cfg.Auth.ServiceRoleKey, cfg.Feed.Timeout)
		verifier = auth.NewVerifier(cfg.Auth.JWTSecret)
	} else {
		logger.Warn("supabase is not configured, account and bookmark routes are disabled")
	}

	h := handler.New(cat, bookmarks, accounts, limiter, metrics, logger.With("component", "handler"))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(cfg.CORS, h, verifier, metrics, logger.With("component", "http")),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

// newSource picks the feed: the configured URL behind a circuit breaker, or
// the bundled dataset when no URL is set.
func newSource(cfg config.FeedConfig, metrics *obs.Metrics, logger *slog.Logger) feed.Source {
	if cfg.URL == "" {
		logger.Info("no feed URL configured, serving bundled dataset")
		return feed.NewStaticSource("bundled", feed.Bundled())
	}

	return feed.NewBreakerSource(
		feed.NewHTTPSource("feed", cfg.URL, cfg.Timeout),
		feed.BreakerSettings{
			Failures: cfg.BreakerFailures,
			Timeout:  cfg.BreakerTimeout,
			OnStateChange: func(name string, _, to gobreaker.State) {
				metrics.SetBreakerState(name, int(to))
			},
		},
		logger,
	)
}

func newRouter(corsCfg config.CORSConfig, h *handler.Handler, verifier middleware.TokenVerifier, metrics *obs.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(logger, metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsCfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", obs.HealthHandler(logger))
	r.Method(http.MethodGet, "/metrics", metrics.MetricsHandler())

	h.Mount(r, verifier)
	return r
}
