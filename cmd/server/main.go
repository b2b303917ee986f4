package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/swipe-server/internal/app"
	"github.com/oggyb/swipe-server/internal/cache"
	"github.com/oggyb/swipe-server/internal/config"
	"github.com/oggyb/swipe-server/internal/db"
	"github.com/oggyb/swipe-server/internal/logger"
	"github.com/oggyb/swipe-server/internal/repository"
	"github.com/oggyb/swipe-server/internal/server"
	"github.com/oggyb/swipe-server/internal/service/chat"
	"github.com/oggyb/swipe-server/internal/service/match"
	"github.com/oggyb/swipe-server/internal/service/missions"
	"github.com/oggyb/swipe-server/internal/service/relay"
	"github.com/oggyb/swipe-server/internal/service/rooms"
	"github.com/oggyb/swipe-server/internal/service/users"
)

func main() {
	if err := run(); err != nil {
		logger.L().Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		return err
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		return err
	}

	appCtx := app.New(cfg, database, redisCache, log)

	if cfg.Mongo.URI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		store, err := repository.NewMongoStore(connectCtx, cfg)
		cancel()
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Close(closeCtx)
		}()
		appCtx.Messages = store
		log.Info("using mongo message store", "database", cfg.Mongo.Database)
	}

	hub := relay.NewHub(log, redisCache)
	appCtx.Relay = hub

	if cfg.App.ENV == "development" {
		seeded, err := db.SeedTestData(database, cfg.Pricing.StartingCoins)
		if err != nil {
			log.Error("failed to seed", "err", err)
		} else {
			log.Info("seeded demo data", "users", len(seeded))
		}
	}

	handler := server.NewHandler(cfg, log,
		users.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		missions.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
		rooms.NewRegistrar(appCtx),
	)
	grpcAddr := cfg.GRPC.Host + ":" + cfg.GRPC.Port

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.RunHTTP(gctx, cfg, log, handler)
	})
	g.Go(func() error {
		return server.RunGRPC(gctx, grpcAddr, log, relay.NewRegistrar(appCtx, hub))
	})
	return g.Wait()
}
