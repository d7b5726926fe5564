package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nozzip/seccional/internal/config"
	"github.com/nozzip/seccional/internal/handler"
	"github.com/nozzip/seccional/internal/infra"
	"github.com/nozzip/seccional/internal/middleware"
	"github.com/nozzip/seccional/internal/realtime"
	"github.com/nozzip/seccional/internal/repository"
	"github.com/nozzip/seccional/internal/router"
	"github.com/nozzip/seccional/internal/service"
	"github.com/nozzip/seccional/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in development, JSON in production
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid business timezone")
	}
	layout, err := cfg.Shifts()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid shift layout")
	}
	cal := service.Calendar{Location: loc}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.AutoMigrate)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL, cfg.WorkerPoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_URL not set: feed notifications and jobs stay in-process")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Background infrastructure ────────────────────────────────────────────
	pool := worker.NewPool(rdb)
	feed := worker.NewFeed(rdb)
	hub := realtime.NewHub(cfg.AllowedOrigins())
	limiter := middleware.NewIPRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	var (
		mirror      service.ArchiveMirror
		mirrorState handler.BreakerState
	)
	objects, err := infra.NewObjectClient(infra.StorageConfig{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		UseSSL:    cfg.StorageUseSSL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build object storage client")
	}
	if objects != nil {
		store := infra.NewArchiveStore(objects, cfg.StorageBucket, nil)
		if err := store.EnsureBucket(ctx); err != nil {
			// The mirror is best effort; uploads retry through the pool.
			log.Warn().Err(err).Str("bucket", cfg.StorageBucket).Msg("archive bucket check failed")
		}
		mirror = worker.NewArchiveMirror(store, pool)
		mirrorState = store
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	ledgerRepo := repository.NewLedgerRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	shiftSvc := service.NewShiftService(service.ShiftConfig{
		Calendar:   cal,
		Layout:     layout,
		DefaultDay: cfg.RosterDefaultDay,
	}, service.ShiftDeps{
		Ledgers:      ledgerRepo,
		Transactions: transactionRepo,
		Inventory:    inventoryRepo,
		Roster:       rosterRepo,
		Archives:     archiveRepo,
		Mirror:       mirror,
		Broadcaster:  hub,
	})
	services := router.Services{
		Shifts:       shiftSvc,
		Transactions: service.NewTransactionService(transactionRepo, feed, cal),
		Inventory:    service.NewInventoryService(inventoryRepo, feed),
		Roster:       service.NewRosterService(rosterRepo, cfg.RosterDefaultDay),
		Archives:     service.NewArchiveService(archiveRepo, cal),
	}

	go hub.Run(ctx)
	go feed.Run(ctx, shiftSvc.Refresh)
	go limiter.Run(ctx)
	pool.Start(ctx, cfg.WorkerPoolSize)

	r := router.New(cfg, services, router.Deps{
		DB:          db,
		Redis:       rdb,
		Realtime:    hub,
		Mirror:      mirrorState,
		RateLimiter: limiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("env", cfg.Env).Msgf("seccional listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	cancel()
	// In-flight mirror uploads run detached from requests; let them finish.
	pool.Wait()
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}
