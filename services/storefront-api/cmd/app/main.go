package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/services/storefront-api/internal/assets"
	"storefront-backend/services/storefront-api/internal/auth"
	httpx "storefront-backend/services/storefront-api/internal/http"
	"storefront-backend/services/storefront-api/internal/http/handlers"
	mw "storefront-backend/services/storefront-api/internal/http/middleware"
	"storefront-backend/services/storefront-api/internal/payments"
	"storefront-backend/services/storefront-api/internal/repo"
	"storefront-backend/services/storefront-api/internal/service"
	"storefront-backend/services/storefront-api/migrations"
	"storefront-backend/shared/pkg/cache"
	"storefront-backend/shared/pkg/config"
	"storefront-backend/shared/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("storefront-api", cfg.Common.LogLevel)
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctxDB, cancelDB := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDB()

	db, err := pgxpool.New(ctxDB, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer db.Close()

	if cfg.Postgres.MigrateOnStart {
		migCtx, migCancel := context.WithTimeout(context.Background(), time.Minute)
		err := migrations.Up(migCtx, db)
		migCancel()
		if err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		log.Info().Msg("migrations applied")
	}

	rdb := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctxDB); err != nil {
		// page cache and rate limiting degrade, the API still serves
		log.Warn().Err(err).Msg("redis ping failed")
	}

	store, err := assets.NewS3Store(ctxDB, cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("s3 init failed")
	}
	provider, err := payments.New(cfg.Payments)
	if err != nil {
		log.Fatal().Err(err).Msg("payments init failed")
	}

	users := &repo.UsersPG{DB: db, Outbox: &repo.OutboxPG{}}
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	images := assets.URLBuilder{BaseURL: cfg.Assets.BaseURL}

	accounts := &service.Accounts{
		Users:       users,
		Limiter:     rdb,
		Tokens:      tokens,
		Log:         log,
		AppBaseURL:  cfg.Storefront.AppBaseURL,
		ResetTTL:    cfg.Auth.ResetTokenTTL,
		ResetLimit:  cfg.Auth.ResetRateLimit,
		ResetWindow: cfg.Auth.ResetRateWindow,
		TestUser: service.TestUser{
			Email:    cfg.Storefront.TestUserEmail,
			Password: cfg.Storefront.TestUserPassword,
			Name:     cfg.Storefront.TestUserName,
		},
	}

	h := &httpx.Handlers{
		Health:   handlers.Health,
		Catalog:  &handlers.CatalogHandler{Store: &repo.CatalogPG{DB: db}, Images: images, Log: log},
		Auth:     &handlers.AuthHandler{Accounts: accounts, Log: log},
		Orders:   &handlers.OrdersHandler{Orders: &service.Orders{Orders: &repo.OrdersPG{DB: db}, Users: users}, Images: images, Log: log},
		Account:  &handlers.AccountHandler{Profiles: &service.Profiles{Users: users, Assets: store}, Images: images, Log: log},
		Cart:     &handlers.CartHandler{Carts: &repo.CartsPG{DB: db}, Log: log},
		Payments: &handlers.PaymentsHandler{Provider: provider, Log: log},
		Revalidate: &handlers.RevalidateHandler{
			Secret: cfg.Storefront.RevalidateSecret,
			Pages:  rdb,
			Log:    log,
		},
		Tokens:    tokens,
		PageCache: mw.PageCache(rdb, cfg.Redis.PageTTL, log),
		Log:       log,
	}
	if cfg.Storefront.DevRoutes {
		log.Warn().Msg("dev routes enabled")
		h.Dev = &handlers.DevHandler{Accounts: accounts, Log: log}
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpx.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("payments", provider.Name()).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown...")
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
