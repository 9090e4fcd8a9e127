package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"auctionhouse-api/internal/cache"
	"auctionhouse-api/internal/collab"
	"auctionhouse-api/internal/config"
	"auctionhouse-api/internal/handler"
	"auctionhouse-api/internal/repository"
	"auctionhouse-api/internal/router"
	"auctionhouse-api/internal/service"
	"auctionhouse-api/internal/session"
	"auctionhouse-api/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.App.Environment)
	defer log.Sync()

	log.Info("starting auction house API",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version))

	// Transactional datastore
	var (
		store repository.Store
		err   error
	)
	switch cfg.Database.Type {
	case "mysql":
		store, err = repository.NewMySQLStore(cfg.Database.MySQLDSN(), log)
		if err != nil {
			log.Fatal("mysql store init failed", zap.Error(err))
		}
		log.Info("mysql store initialized")
	default: // sqlite
		store, err = repository.NewSQLiteStore(cfg.Database.Path, log)
		if err != nil {
			log.Fatal("sqlite store init failed", zap.Error(err))
		}
		log.Info("sqlite store initialized", zap.String("path", cfg.Database.Path))
	}
	defer store.Close()

	// Enumeration cache
	var enumCache cache.Cache
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Warn("redis cache unavailable, falling back to memory", zap.Error(err))
			enumCache = cache.NewMemoryCache()
		} else {
			enumCache = redisCache
			log.Info("redis cache initialized")
		}
	default:
		enumCache = cache.NewMemoryCache()
	}
	defer enumCache.Close()

	// Standalone deployments run against the in-memory ledger and
	// inventory. Oracle and notifier stay nil; the coordinator and the
	// rank sorter degrade to their documented fallbacks.
	currency := collab.NewMemoryCurrency()
	inventory := collab.NewMemoryInventory(36)

	market := service.NewMarketService(service.Config{
		Store:               store,
		Currency:            currency,
		Inventory:           inventory,
		Cache:               enumCache,
		CacheTTL:            cfg.Cache.TTL,
		DefaultListingLimit: cfg.Market.DefaultListingLimit,
		GroupListingLimits:  cfg.Market.GroupListingLimits,
		Logger:              log,
	})

	sweeper := service.NewSweeper(store, cfg.Market.SweepInterval, log)
	sweeper.Start()
	defer sweeper.Stop()

	sessions := session.NewManager()

	r := router.New(router.Config{
		Handler:        handler.New(),
		MarketHandler:  handler.NewMarketHandler(market, cfg.Market.PageSize),
		SessionHandler: handler.NewSessionHandler(sessions, market, cfg.Market.PageSize),
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", zap.String("address", cfg.Server.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
}
