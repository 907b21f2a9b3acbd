package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medverify/backend/internal/anchor"
	"medverify/backend/internal/cache"
	"medverify/backend/internal/config"
	"medverify/backend/internal/httpapi"
	"medverify/backend/internal/logger"
	"medverify/backend/internal/report"
	"medverify/backend/internal/service"
	"medverify/backend/internal/store"
	"medverify/backend/internal/store/memory"
	pgstore "medverify/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}

	zaplog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid log configuration: %v", err)
	}
	defer func() { _ = zaplog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.Database.URL != "" {
		pg, err := pgstore.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	anchorCache := cache.AnchorCache(cache.NoopAnchorCache{})
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisAnchorCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			anchorCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	var resolver anchor.Resolver
	if cfg.Network.ResolverURL != "" {
		resolver = anchor.NewHTTPClient(cfg.Network.ResolverURL)
		log.Println("anchor resolver: http")
	} else {
		resolver = anchor.NewSeededStatic(cfg.Network.Name)
		log.Println("anchor resolver: static (dev mode)")
	}
	resolver = anchor.NewCachedResolver(resolver, anchorCache, time.Duration(cfg.Network.CacheTTLSeconds)*time.Second)

	reporter := report.Reporter(report.NoopReporter{})
	if cfg.Report.URL != "" {
		reporter = report.NewHTTPReporter(cfg.Report.URL)
		log.Println("reporter: http")
	}

	svc := service.New(repo, resolver, reporter, cfg.Network.Name, zaplog)
	auth := httpapi.NewAuthManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.Server.AllowedOrigin, zaplog)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("verification backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if cfg.Database.URL == "" {
		// Dev mode runs on the seeded in-memory store and tolerates the
		// baked-in dev auth secret.
		return nil
	}
	if len(cfg.Auth.Secret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
