package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	catalogapp "github.com/spicemart/backend/internal/catalog/app"
	catalogpg "github.com/spicemart/backend/internal/catalog/infra/postgres"
	guestapp "github.com/spicemart/backend/internal/guest/app"
	"github.com/spicemart/backend/internal/guest/httpapi"
	"github.com/spicemart/backend/internal/guest/infra/adapter"
	guestpg "github.com/spicemart/backend/internal/guest/infra/postgres"
	"github.com/spicemart/backend/internal/guest/infra/redisstore"

	"github.com/spicemart/backend/pkg/config"
	"github.com/spicemart/backend/pkg/logger"
	"github.com/spicemart/backend/pkg/postgres"
	"github.com/spicemart/backend/pkg/redis"
	"github.com/spicemart/backend/pkg/shutdown"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "api", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	db := mustDB(log, cfg)
	defer db.Close()

	rdb := mustRedis(log, cfg)
	defer rdb.Close()

	// Catalog
	catalogRepo := catalogpg.NewProductRepo(db)
	catalogSvc := catalogapp.NewService(catalogRepo)

	// Guest session state
	sessions := redisstore.New(rdb, cfg.GuestStateTTL)
	catalogReader := adapter.NewCatalogServiceReader(catalogSvc)
	cartStore := guestpg.NewCartStore(db)
	wishlistStore := guestpg.NewWishlistStore(db)

	cartSvc := guestapp.NewCartService(sessions, catalogReader, cartStore, cfg.EnrichConcurrency)
	wishlistSvc := guestapp.NewWishlistService(sessions, catalogReader, wishlistStore, cfg.EnrichConcurrency)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	httpapi.New(cartSvc, wishlistSvc, logger.Component(log, "httpapi")).Register(mux)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", slog.Any("err", err))
	}

	wg.Wait()
	log.Info("bye")
}

func mustDB(log *slog.Logger, cfg config.Config) *sql.DB {
	db, err := postgres.Open(postgres.Config{
		Host: cfg.PostgresHost,
		Port: cfg.PostgresPort,
		User: cfg.PostgresUser,
		Pass: cfg.PostgresPass,
		DB:   cfg.PostgresDB,
	})
	if err != nil {
		log.Error("db open failed", slog.Any("err", err))
		os.Exit(1)
	}
	return db
}

func mustRedis(log *slog.Logger, cfg config.Config) *goredis.Client {
	client, err := redis.Open(redis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Error("redis open failed", slog.Any("err", err))
		os.Exit(1)
	}
	return client
}
