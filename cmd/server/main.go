package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/oribuyin/backend/internal/cart"
	"github.com/oribuyin/backend/internal/catalog"
	"github.com/oribuyin/backend/internal/httpx"
	"github.com/oribuyin/backend/internal/order"
	"github.com/oribuyin/backend/internal/pkg/cache"
	"github.com/oribuyin/backend/internal/pkg/config"
	"github.com/oribuyin/backend/internal/pkg/telemetry"
	"github.com/oribuyin/backend/internal/review"
	"github.com/oribuyin/backend/internal/search"
	"github.com/oribuyin/backend/internal/store"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, "oribuyin-server")
	if err != nil {
		log.Fatalf("telemetry setup failed: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(flushCtx)
	}()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("store open failed: %v", err)
	}
	defer st.Close()

	trends := search.NewTracker(
		cache.NewRedisCache(cfg.RedisAddr),
		cfg.SearchHistoryLimit,
		cfg.SearchHistoryTTL,
	)

	handlers := httpx.Handlers{
		Orders:  httpx.NewOrderHandler(order.NewService(st, cfg.DefaultShippingFee)),
		Cart:    httpx.NewCartHandler(cart.NewService(st)),
		Catalog: httpx.NewCatalogHandler(catalog.NewService(st, trends)),
		Search:  httpx.NewSearchHandler(trends),
		Reviews: httpx.NewReviewHandler(review.NewService(st)),
	}

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpx.NewRouter(handlers, cfg.JWTSecret),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("OriBuyin server running on %s", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server failed: %v", err)
	}
}
