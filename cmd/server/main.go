package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmgorelik/estore/internal/cache"
	"github.com/dmgorelik/estore/internal/config"
	"github.com/dmgorelik/estore/internal/db"
	"github.com/dmgorelik/estore/internal/events"
	"github.com/dmgorelik/estore/internal/httpserver"
	"github.com/dmgorelik/estore/internal/logging"
	"github.com/dmgorelik/estore/internal/middleware"
	"github.com/dmgorelik/estore/internal/oauth"
	"github.com/dmgorelik/estore/internal/repo"
	"github.com/dmgorelik/estore/internal/search"
	"github.com/dmgorelik/estore/internal/service"
	"github.com/dmgorelik/estore/internal/session"
	"github.com/dmgorelik/estore/internal/tokens"
)

func main() {
	cfg := config.Load()
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(cfg.ClientURL, "CLIENT_URL")

	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, log)

	gormDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db_open_failed", "error", err)
		os.Exit(1)
	}

	redisCache := cache.New(cfg.RedisAddr)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("redis_unreachable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	producer := events.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	index, err := search.New(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		log.Error("elasticsearch_unreachable", "url", cfg.ESURL, "error", err)
		os.Exit(1)
	}

	var providers []oauth.Provider
	if cfg.YandexClientID != "" {
		providers = append(providers, oauth.NewYandex(cfg.YandexClientID, cfg.YandexClientSecret, cfg.ServerURL))
	}
	if cfg.VKClientID != "" {
		providers = append(providers, oauth.NewVK(cfg.VKClientID, cfg.VKClientSecret, cfg.ServerURL))
	}

	issuer := &tokens.Issuer{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}
	transport := &session.Transport{
		Name:       cfg.RefreshTokenName,
		Domain:     cfg.ServerDomain,
		Days:       cfg.RefreshCookieDays,
		Production: cfg.IsProduction(),
	}

	r := &repo.GormRepo{DB: gormDB}
	authSvc := &service.AuthService{Repo: r, Issuer: issuer, Producer: producer}
	usersSvc := &service.UsersService{Repo: r, Cache: redisCache}
	catalogSvc := &service.CatalogService{Repo: r, Cache: redisCache, Index: index}

	e := httpserver.New(httpserver.Deps{
		Logger:    log,
		Guard:     &middleware.Guard{Issuer: issuer},
		Auth:      &httpserver.AuthHandler{Svc: authSvc, Session: transport, Providers: oauth.NewRegistry(providers...), ClientURL: cfg.ClientURL},
		Users:     &httpserver.UsersHandler{Svc: usersSvc},
		Dashboard: &httpserver.DashboardHandler{Users: usersSvc},
		Products:  &httpserver.ProductHandler{Catalog: catalogSvc},
		ClientURL: cfg.ClientURL,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server_starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server_stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown_failed", "error", err)
	}
	log.Info("server_stopped")
}
