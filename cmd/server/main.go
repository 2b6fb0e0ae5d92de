package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rcameron/tillsync/internal/adapter/handler"
	"github.com/rcameron/tillsync/internal/adapter/storage"
	"github.com/rcameron/tillsync/internal/config"
	"github.com/rcameron/tillsync/internal/core/service"
	"github.com/rcameron/tillsync/internal/observability"
	"github.com/rcameron/tillsync/internal/queue"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load(logger)

	// Tracing
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, "tillsync")
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to connect mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	// RabbitMQ is optional; without it, partial-consistency outcomes are
	// log-only.
	var broker queue.Broker
	if cfg.RabbitMQURL != "" {
		rabbit, err := queue.NewRabbitMQBroker(queue.Config{
			URL:           cfg.RabbitMQURL,
			PrefetchCount: 10,
		})
		if err != nil {
			logger.Fatal("failed to connect rabbitmq", zap.Error(err))
		}
		broker = rabbit
		logger.Info("connected to rabbitmq")
	} else {
		logger.Warn("RABBITMQ_URL not set, reconciliation events disabled")
	}

	// Adapters
	orderStore := storage.NewMySQLOrderStore(db)
	inventoryLedger := storage.NewMySQLInventoryLedger(db)
	menuCatalog := storage.NewMySQLMenuCatalog(db)
	catalogCache := storage.NewRedisCatalogCache(rdb)

	// Services
	coordinator := service.NewCoordinator(orderStore, inventoryLedger, broker, logger)
	catalog := service.NewCatalogService(menuCatalog, inventoryLedger, catalogCache, cfg.MenuCacheTTL, logger)

	// HTTP server
	router := gin.New()
	router.Use(gin.Recovery())

	httpHandler := handler.NewHTTPHandler(coordinator, catalog, orderStore, inventoryLedger, cfg.TaxRate, logger)
	httpHandler.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	if broker != nil {
		broker.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	rdb.Close()
	db.Close()

	logger.Info("shutdown complete")
}
