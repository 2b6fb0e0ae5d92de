package queue

import (
	"context"
)

// Broker publishes and consumes reconciliation messages. The coordinator
// only publishes; a back-office consumer drains the queue.
type Broker interface {
	Publish(ctx context.Context, queueName string, message []byte) error
	Subscribe(ctx context.Context, queueName string, handler MessageHandler) error
	Close() error
}

type MessageHandler func(ctx context.Context, message []byte) error

const (
	QueueReconciliation    = "inventory-reconciliation"
	QueueReconciliationDLQ = "inventory-reconciliation-dlq"
)
