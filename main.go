package main

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

	"bukukas/pkg/config"
	"bukukas/pkg/database"
	"bukukas/pkg/logging"
	"bukukas/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	base := logging.New(cfg.LogLevel, cfg.LogFormat)
	log := logging.Component(base, logging.ComponentApp)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.UsingDevSecret() {
		log.Warn("SESSION_SECRET is not set, using the development secret")
	}
	if cfg.UsingDefaultAdminPassword() {
		log.Warn("SEED_ADMIN_PASSWORD is not set, a new admin account gets the default password")
	}

	// `bukukas migrate` runs AutoMigrate and seeding then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cfg.DB.AutoMigrate = true
		db, err := initDB(cfg, logging.Component(base, logging.ComponentStorage))
		if err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		_ = database.Close(db)
		fmt.Println("migration and seeding completed")
		return
	}

	if err := run(cfg, base); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// run serves until SIGINT/SIGTERM. base is the logger without a component attribute.
func run(cfg *config.Config, base *slog.Logger) error {
	log := logging.Component(base, logging.ComponentApp)
	storageLog := logging.Component(base, logging.ComponentStorage)
	db, err := initDB(cfg, storageLog)
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newSessionStore(ctx, cfg, storageLog)
	if err != nil {
		return err
	}
	defer closeStore()

	gin.SetMode(cfg.GinMode)
	srv, err := newServer(cfg, db, store, base)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", httpSrv.Addr, "db", cfg.DB.Redacted(), "session_store", cfg.SessionStore)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// newSessionStore returns the configured session store and a close func.
func newSessionStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return session.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
	default:
		store := session.NewMemoryStore()
		go store.RunJanitor(ctx, 10*time.Minute)
		log.Info("using in-memory sessions; they are lost on restart")
		return store, func() {}, nil
	}
}
