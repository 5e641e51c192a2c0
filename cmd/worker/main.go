// Package main is the entry point for the Stoka maintenance worker.
// All tenants share one database; maintenance jobs sweep across them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stoka/internal/domain/notice"
	"stoka/internal/infrastructure/storage/postgres"
	"stoka/internal/infrastructure/storage/postgres/auth_repo"
	"stoka/internal/infrastructure/storage/postgres/notice_repo"
	"stoka/pkg/logger"
)

const (
	noticeSweepInterval = 1 * time.Minute
	cleanupInterval     = 1 * time.Hour
	staleNoticeBatch    = 200
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting stoka maintenance worker")

	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	sessionRepo := auth_repo.NewSessionRepo(txManager)
	noticeRepo := notice_repo.NewNoticeRepo(txManager)
	noticeService := notice.NewService(noticeRepo, txManager)
	idempotencyStore := postgres.NewIdempotencyStore(pool, txManager, 24*time.Hour)

	worker := NewMaintenanceWorker(sessionRepo, noticeService, idempotencyStore, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// SessionPurger deletes sessions past their expiry.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// IdempotencyCleaner removes expired idempotency records.
type IdempotencyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// MaintenanceWorker runs periodic cleanup jobs against the shared database.
type MaintenanceWorker struct {
	sessions    SessionPurger
	notices     *notice.Service
	idempotency IdempotencyCleaner
	log         *logger.Logger
}

func NewMaintenanceWorker(sessions SessionPurger, notices *notice.Service, idempotency IdempotencyCleaner, log *logger.Logger) *MaintenanceWorker {
	return &MaintenanceWorker{
		sessions:    sessions,
		notices:     notices,
		idempotency: idempotency,
		log:         log.WithComponent("worker"),
	}
}

// Run loops until the context is cancelled. Notices are swept frequently
// so expiry is visible within a minute; session and idempotency cleanup
// runs hourly.
func (w *MaintenanceWorker) Run(ctx context.Context) {
	noticeTicker := time.NewTicker(noticeSweepInterval)
	defer noticeTicker.Stop()

	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	// Initial pass so a restart does not delay overdue cleanup.
	w.expireNotices(ctx)
	w.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-noticeTicker.C:
			w.expireNotices(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *MaintenanceWorker) expireNotices(ctx context.Context) {
	expired, err := w.notices.ExpireStale(ctx, staleNoticeBatch)
	if err != nil {
		w.log.Errorw("notice expiry sweep failed", "error", err)
		return
	}
	if expired > 0 {
		w.log.Infow("expired stale notices", "count", expired)
	}
}

func (w *MaintenanceWorker) cleanup(ctx context.Context) {
	purged, err := w.sessions.PurgeExpired(ctx)
	if err != nil {
		w.log.Errorw("session purge failed", "error", err)
	} else if purged > 0 {
		w.log.Infow("purged expired sessions", "count", purged)
	}

	removed, err := w.idempotency.CleanupExpired(ctx)
	if err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if removed > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", removed)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
