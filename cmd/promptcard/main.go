package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/promptcard/internal/config"
	"github.com/dukerupert/promptcard/internal/database"
	"github.com/dukerupert/promptcard/internal/logging"
	"github.com/dukerupert/promptcard/internal/mongostore"
	"github.com/dukerupert/promptcard/internal/redisstore"
	"github.com/dukerupert/promptcard/internal/server"
	"github.com/dukerupert/promptcard/internal/store"
	"github.com/dukerupert/promptcard/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("promptcard stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails. Storage is closed
// before it returns in both cases.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStores()

	srv, err := server.New(stores, server.Config{
		SessionSecret: cfg.Secret(logger),
		BcryptCost:    cfg.BcryptCost,
		Assets:        web.FS,
	}, logger)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionManager().Cleanup(cleanupCtx); err != nil {
					logger.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					logger.Info("cleaned up expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("promptcard starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	cleanupCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStores picks MongoDB when MONGODB_URI is set and SQLite otherwise.
// Sessions move to Redis when REDIS_ADDR is set.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (server.Stores, func(), error) {
	var stores server.Stores
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.MongoURI != "" {
		mdb, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return stores, nil, err
		}
		closers = append(closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mdb.Close(ctx); err != nil {
				logger.Error("disconnect mongodb", "error", err)
			}
		})
		stores = server.Stores{
			Users:     mongostore.NewUserStore(mdb.Database),
			Questions: mongostore.NewQuestionStore(mdb.Database),
			Sessions:  mongostore.NewSessionStore(mdb.Database),
		}
		logger.Info("using mongodb storage", "database", mdb.Database.Name())
	} else {
		db, err := database.Open(cfg.DBPath)
		if err != nil {
			return stores, nil, err
		}
		closers = append(closers, func() { db.Close() })
		stores = server.Stores{
			Users:     store.NewUserStore(db),
			Questions: store.NewQuestionStore(db),
			Sessions:  store.NewSessionStore(db),
		}
		logger.Info("using sqlite storage", "path", cfg.DBPath)
	}

	if cfg.RedisAddr != "" {
		client, err := redisstore.Connect(ctx, redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			closeAll()
			return stores, nil, err
		}
		closers = append(closers, func() { client.Close() })
		stores.Sessions = redisstore.NewSessionStore(client)
		logger.Info("using redis sessions", "addr", cfg.RedisAddr)
	}

	return stores, closeAll, nil
}
