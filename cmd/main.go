package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pomorank/pomorank/internal/adapters/detail"
	"github.com/pomorank/pomorank/internal/adapters/http/api"
	"github.com/pomorank/pomorank/internal/adapters/ranking"
	"github.com/pomorank/pomorank/internal/adapters/repository"
	service "github.com/pomorank/pomorank/internal/app"
	"github.com/pomorank/pomorank/internal/config"
	"github.com/pomorank/pomorank/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	rank, cache, store, err := buildStores(cfg)
	if err != nil {
		log.Error(ctx, "failed to build stores", logger.Error(err))
		return
	}

	weekday, err := cfg.Weekday()
	if err != nil {
		log.Error(ctx, "invalid reset weekday", logger.Error(err))
		return
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Error(ctx, "invalid reset timezone", logger.Error(err))
		return
	}

	svc := service.New(rank, cache, store,
		service.WithLogger(log),
		service.WithDetailTTL(time.Duration(cfg.DetailTTLSeconds)*time.Second),
		service.WithMaxLimit(cfg.MaxLeaderboardLimit),
		service.WithSyncInterval(time.Duration(cfg.SyncIntervalMinutes)*time.Minute),
		service.WithSyncRetry(time.Duration(cfg.SyncRetryMinutes)*time.Minute),
		service.WithResetHour(cfg.ResetHour),
		service.WithResetWeekday(weekday),
		service.WithResetLocation(loc),
		service.WithPollInterval(time.Duration(cfg.ResetPollMinutes)*time.Minute),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
}

// buildStores constructs the three stores for the configured backend.
func buildStores(cfg *config.Config) (ranking.Store, detail.Cache, repository.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return ranking.NewTreapStore(), detail.NewMemoryCache(nil), repository.NewMemoryStore(nil), nil
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store, err := repository.OpenGorm(cfg.DatabaseDSN, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		return ranking.NewRedisStore(rdb), detail.NewRedisCache(rdb), store, nil
	}
}
