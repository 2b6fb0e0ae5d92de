package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rcameron/tillsync/internal/config"
	"github.com/rcameron/tillsync/internal/core/domain"
	"github.com/rcameron/tillsync/internal/queue"
)

// The reconciler drains the reconciliation queue: every event is an order
// store mutation whose inventory adjustment did not happen. It surfaces
// them for back-office staff to square the two stores. Events it cannot
// decode go to the DLQ.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load(logger)
	if cfg.RabbitMQURL == "" {
		logger.Fatal("RABBITMQ_URL is required")
	}

	broker, err := queue.NewRabbitMQBroker(queue.Config{
		URL:           cfg.RabbitMQURL,
		PrefetchCount: 10,
	})
	if err != nil {
		logger.Fatal("failed to connect rabbitmq", zap.Error(err))
	}
	defer broker.Close()

	err = broker.Subscribe(ctx, queue.QueueReconciliation, func(ctx context.Context, message []byte) error {
		var event domain.ReconciliationEvent
		if err := json.Unmarshal(message, &event); err != nil {
			return fmt.Errorf("unmarshal reconciliation event: %w", err)
		}

		logger.Warn("inventory reconciliation needed",
			zap.String("operation", event.Operation),
			zap.String("order_id", event.OrderID),
			zap.String("line_item_id", event.LineItemID),
			zap.String("menu_item_id", event.MenuItemID),
			zap.Int("quantity", event.Quantity),
			zap.String("reason", event.Reason),
			zap.Time("occurred_at", event.OccurredAt))
		return nil
	})
	if err != nil {
		logger.Fatal("failed to subscribe", zap.Error(err))
	}

	logger.Info("reconciler listening", zap.String("queue", queue.QueueReconciliation))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
}
