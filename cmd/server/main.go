package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/flicks-picks/db"
	"github.com/Clark-Hu/flicks-picks/internal/api"
	"github.com/Clark-Hu/flicks-picks/internal/config"
	"github.com/Clark-Hu/flicks-picks/internal/logger"
	"github.com/Clark-Hu/flicks-picks/internal/repository"
	"github.com/Clark-Hu/flicks-picks/internal/session"
	"github.com/Clark-Hu/flicks-picks/internal/store"
	"github.com/Clark-Hu/flicks-picks/internal/views"
	"github.com/Clark-Hu/flicks-picks/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}

	sessionStore, health, closeStore, err := openSessionStore(ctx, cfg, lg)
	if err != nil {
		lg.WithError(err).Fatal("init session store")
	}
	defer closeStore()

	sessionManager := session.NewManager(sessionStore, session.Options{
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.SessionSecure,
		Logger: lg,
	})

	client, err := api.NewClient(cfg.APIBaseURL, api.Options{
		Timeout:    time.Duration(cfg.APITimeoutSecs) * time.Second,
		RatePerSec: float64(cfg.APIRatePerSec),
		Burst:      cfg.APIBurst,
		Logger:     lg,
	})
	if err != nil {
		lg.WithError(err).Fatal("init api client")
	}

	renderer, err := views.New()
	if err != nil {
		lg.WithError(err).Fatal("parse templates")
	}

	handlers := web.NewHandlers(client, sessionManager, lg)
	server, err := web.NewServer(cfg, handlers, sessionManager, renderer, health, lg)
	if err != nil {
		lg.WithError(err).Fatal("init server")
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			lg.WithError(err).Error("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.WithError(err).Error("graceful shutdown error")
	}
}

// openSessionStore builds the browser session store selected by SESSION_BACKEND,
// together with the readiness probe for its backing service.
func openSessionStore(ctx context.Context, cfg config.Config, lg *logrus.Logger) (sessions.Store, web.HealthCheck, func(), error) {
	noop := func() {}

	switch cfg.SessionBackend {
	case config.SessionBackendPostgres:
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		st, err := store.New(dbCtx, cfg.DBURL, store.Options{
			MaxConns:               int32(cfg.DBMaxConns),
			MinConns:               int32(cfg.DBMinConns),
			MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
			MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
			ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			StatementCacheCapacity: cfg.DBStatementCache,
			Logger:                 lg,
		})
		if err != nil {
			return nil, nil, noop, fmt.Errorf("connect database: %w", err)
		}
		if err := st.Migrate(dbCtx, db.Migrations()); err != nil {
			st.Close()
			return nil, nil, noop, fmt.Errorf("migrate: %w", err)
		}

		backend := session.NewPostgresBackend(repository.New(st).Sessions, lg)
		go backend.Sweep(ctx, time.Duration(cfg.SessionSweepSecs)*time.Second)
		return session.NewBackendStore(backend, cfg.SessionSecret), st.HealthCheck, st.Close, nil

	case config.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		backend := session.NewRedisBackend(client)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := backend.Ping(pingCtx); err != nil {
			_ = client.Close()
			return nil, nil, noop, fmt.Errorf("ping redis: %w", err)
		}
		lg.WithField("addr", cfg.RedisAddr).Info("session: using redis backend")
		closeClient := func() { _ = client.Close() }
		return session.NewBackendStore(backend, cfg.SessionSecret), backend.Ping, closeClient, nil

	default:
		return session.NewCookieStore(cfg.SessionSecret), nil, noop, nil
	}
}
