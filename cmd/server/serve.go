package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-catalog/internal/auth"
	"github.com/iliyamo/movie-catalog/internal/catalog"
	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/database"
	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/importer"
	"github.com/iliyamo/movie-catalog/internal/middleware"
	"github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/router"
)

const shutdownTimeout = 10 * time.Second

type serveConfig struct {
	autoMigrate bool
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. Pending migrations are applied first and, when
IMPORT_CSV_PATH is set, an empty catalog is seeded from that file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.autoMigrate, "auto-migrate", true, "apply pending migrations on startup")
	return cmd
}

func runServe(ctx context.Context, sc *serveConfig) error {
	cfg, logger, err := setup()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	if sc.autoMigrate {
		if err := migrateUp(cfg.Database()); err != nil {
			return err
		}
	}

	db, err := database.Open(ctx, cfg.Database())
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("host", cfg.DBHost).Wrap(err)
	}
	defer db.Close()

	movies := repository.NewMovieRepo(db)
	users := repository.NewUserRepo(db)

	if cfg.ImportCSVPath != "" {
		if _, err := importer.New(movies, logger).ImportFile(ctx, cfg.ImportCSVPath); err != nil {
			logger.Error("csv import failed", "path", cfg.ImportCSVPath, "error", err)
		}
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTTL())
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	accounts := auth.NewService(users, auth.NewHasher(cfg.BcryptCost), tokens)

	opts := []catalog.Option{catalog.WithLogger(logger)}
	if cfg.EventsEnabled {
		opts = append(opts, catalog.WithPublisher(queue.NewPublisher(cfg.RabbitMQURL, logger)))
	}
	svc := catalog.NewService(movies, opts...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	e := router.New(router.Deps{
		Auth:      handler.NewAuthHandler(accounts, logger),
		Movies:    handler.NewMovieHandler(svc, logger),
		Health:    handler.NewHealthHandler(db, movies, version),
		Tokens:    tokens,
		Logger:    logger,
		RateLimit: rateLimiter(ctx, cfg, logger),
		Metrics:   middleware.NewMetrics(reg),
		Gatherer:  reg,
	})

	return serveHTTP(ctx, e, ":"+cfg.Port, cfg.Env, logger)
}

// rateLimiter returns the Redis token bucket middleware, or nil when rate
// limiting is disabled or Redis is unreachable.
func rateLimiter(ctx context.Context, cfg config.Config, logger *slog.Logger) echo.MiddlewareFunc {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "addr", cfg.Redis.Addr, "error", err)
		return nil
	}
	return middleware.NewTokenBucket(cfg.RateLimit, rdb, logger)
}

// serveHTTP runs e until ctx is cancelled, then drains in-flight requests.
func serveHTTP(ctx context.Context, e *echo.Echo, addr, env string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").With("addr", addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}
