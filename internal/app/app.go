// Package app wires configuration into the stores, services and image host
// shared by the API and admin binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"estate-market/internal/core/auth"
	"estate-market/internal/core/cache"
	"estate-market/internal/core/config"
	"estate-market/internal/imagehost"
	"estate-market/internal/repo"
	"estate-market/internal/service"
	"estate-market/internal/transport/http/router"
)

var ErrNoJWTSecret = errors.New("jwt.secret is empty")

// Build opens every backend named by cfg. close releases them in reverse.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (router.Deps, func(context.Context), error) {
	if cfg.JWT.Secret == "" {
		return router.Deps{}, nil, ErrNoJWTSecret
	}

	store, err := repo.Open(ctx, cfg, log)
	if err != nil {
		return router.Deps{}, nil, err
	}
	log.Info("store ready", zap.String("driver", cfg.Store.Driver))

	rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if rc != nil {
		if err := rc.Ping(ctx); err != nil {
			// reads fall back to the store when redis is down
			log.Warn("redis unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			log.Info("redis cache ready", zap.String("addr", cfg.Redis.Addr))
		}
	}

	up, err := imagehost.New(ctx, cfg.ImageHost)
	if err != nil {
		log.Warn("image uploads disabled", zap.Error(err))
		up = nil
	}

	listings := service.NewListingService(store.Listings, rc, time.Duration(cfg.Redis.CacheTTLSec)*time.Second, log)
	users := service.NewUserService(store.Users, listings, log)

	deps := router.Deps{
		Log:      log,
		Config:   cfg,
		JWT:      auth.NewJWTer(cfg.JWT),
		Users:    users,
		Listings: listings,
		Uploader: up,
		Ping:     store.Ping,
	}
	closeAll := func(ctx context.Context) {
		if err := rc.Close(); err != nil {
			log.Warn("close redis", zap.Error(err))
		}
		if err := store.Close(ctx); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}
	return deps, closeAll, nil
}

// Describe is the one-line startup summary of cfg.
func Describe(cfg *config.Config) string {
	return fmt.Sprintf("env=%s store=%s imagehost=%s cache=%t",
		cfg.App.Env, cfg.Store.Driver, cfg.ImageHost.Provider, cfg.Redis.Addr != "")
}
