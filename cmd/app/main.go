package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vantari-labs/CompanionBot_Go/internal/cache"
	"github.com/vantari-labs/CompanionBot_Go/internal/config"
	"github.com/vantari-labs/CompanionBot_Go/internal/database"
	"github.com/vantari-labs/CompanionBot_Go/internal/database/postgres"
	"github.com/vantari-labs/CompanionBot_Go/internal/leaderboard"
	"github.com/vantari-labs/CompanionBot_Go/internal/points"
	"github.com/vantari-labs/CompanionBot_Go/internal/premium"
	"github.com/vantari-labs/CompanionBot_Go/internal/registry"
	"github.com/vantari-labs/CompanionBot_Go/internal/reminder"
	"github.com/vantari-labs/CompanionBot_Go/internal/server"
	"github.com/vantari-labs/CompanionBot_Go/internal/streak"
)

const (
	dbMaxConns   = 10
	dbMaxIdle    = 5 * time.Minute
	dbMaxLife    = 30 * time.Minute
	shutdownWait = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable store.
	pool, err := database.NewPool(cfg.GetDBConnString(), dbMaxConns, dbMaxIdle, dbMaxLife)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.InitSchema(ctx, pool); err != nil {
		slog.Error("Schema initialization failed", "error", err)
		os.Exit(1)
	}

	// Ephemeral store. The core degrades without it, so a failed connect
	// falls back to an in-process cache instead of aborting.
	var kv cache.KV
	var boards leaderboard.Service = leaderboard.Noop{}
	redisKV, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("Redis unavailable, using in-process cache", "error", err)
		kv = cache.NewMemory()
	} else {
		kv = redisKV
		boards = leaderboard.NewRedis(redisKV.Client())
	}

	// Content registry.
	catalog, err := registry.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		slog.Error("Catalog load failed", "error", err)
		os.Exit(1)
	}
	tiers := premium.NewStatic(cfg.ProUserIDs...)

	// Repositories and services.
	states := postgres.NewUserStateRepository(pool)
	wallets := postgres.NewWalletRepository(pool)

	tracker := streak.NewTracker(kv, boards)
	pointsSvc := points.NewService(wallets, tracker, boards)

	// Reminder loop.
	if cfg.RemindersEnabled {
		flags := reminder.NewFlags(kv)
		sched := reminder.NewScheduler(pointsSvc, tracker, flags, reminder.LogNotifier{}, nil, tiers, states, catalog)
		if err := sched.Start(ctx); err != nil {
			slog.Error("Reminder scheduler failed to start", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("Reminder loop disabled")
	}

	// Ops server.
	srv := server.NewServer(cfg.Port, pool, kv)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		slog.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	slog.Info("Shutdown complete")
}
