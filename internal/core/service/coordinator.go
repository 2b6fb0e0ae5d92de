package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rcameron/tillsync/internal/core/domain"
	"github.com/rcameron/tillsync/internal/port"
	"github.com/rcameron/tillsync/internal/queue"
)

// Coordinator keeps on-hand inventory in step with order line item
// lifecycle events. Orders and inventory live in separately-queried
// aggregates with no transaction spanning both, so each operation here is
// a two-phase sequence with an explicit policy for the step that fails:
//
//   - The order store is the system of record. Its mutations are never
//     rolled back because inventory bookkeeping failed.
//   - Inventory mutations are best-effort. When one fails the caller gets
//     a typed outcome, a warn log, and (when a broker is wired) a
//     reconciliation event - never an error that would abort the sale.
//
// The Coordinator holds no state between calls and is safe to share
// across concurrent callers.
type Coordinator struct {
	orders    port.OrderStore
	inventory port.InventoryLedger
	broker    queue.Broker
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewCoordinator wires the coordinator. broker may be nil, in which case
// partial-consistency outcomes are log-only.
func NewCoordinator(orders port.OrderStore, inventory port.InventoryLedger, broker queue.Broker, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		orders:    orders,
		inventory: inventory,
		broker:    broker,
		logger:    logger,
		tracer:    otel.Tracer("tillsync/coordinator"),
	}
}

// ReserveResult reports what a reservation did. Line is always populated:
// on OutcomeAdjustFailed the sale stands even though stock was not taken.
type ReserveResult struct {
	Line    domain.OrderLineItem
	Outcome domain.InventoryOutcome
	OnHand  int // remaining stock when Outcome is OutcomeAdjusted
}

// ReleaseResult reports a release. Deleted is false when the line was
// already gone, in which case nothing was restocked.
type ReleaseResult struct {
	Deleted bool
	Outcome domain.InventoryOutcome
}

// AdjustResult reports an inventory adjustment for a quantity change.
type AdjustResult struct {
	Outcome domain.InventoryOutcome
	OnHand  int
}

// CancelResult reports a cancellation: how many lines were released and
// how many left inventory unrestored.
type CancelResult struct {
	LinesReleased int
	RestockFailed int
}

// ReserveForNewLine records the sale of quantity units of item on order,
// then takes the matching stock out of inventory.
//
// Phase one creates the line item; if that fails nothing has happened and
// the error is returned. Phase two decrements inventory; if that fails the
// line item stands and the result carries OutcomeAdjustFailed so the
// caller can compensate (manager override, restock, void) instead of
// silently losing the sale record.
func (c *Coordinator) ReserveForNewLine(ctx context.Context, item domain.MenuItem, order domain.Order, quantity int) (*ReserveResult, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.ReserveForNewLine",
		trace.WithAttributes(
			attribute.String("menu_item.id", item.ID),
			attribute.String("order.id", order.ID),
			attribute.Int("quantity", quantity),
		))
	defer span.End()

	if item.ID == "" {
		return nil, domain.ErrInvalidMenuItem
	}
	if order.ID == "" {
		return nil, domain.ErrInvalidOrder
	}
	if order.Finalized {
		return nil, domain.ErrOrderFinalized
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	line, err := c.orders.CreateLineItem(ctx, item, order.ID, quantity)
	if err != nil {
		return nil, fmt.Errorf("line item creation failed: %w", err)
	}

	inv, err := c.inventory.FindByMenuItem(ctx, item.ID)
	if err != nil {
		// The sale is already recorded; a lookup failure here leaves
		// inventory untouched, which is exactly a partial-consistency
		// outcome.
		c.reportInconsistency(ctx, span, "reserve", *line, err)
		return &ReserveResult{Line: *line, Outcome: domain.OutcomeAdjustFailed}, nil
	}
	if inv == nil {
		c.logger.Warn("no inventory tracked for menu item, sold without stock limit",
			zap.String("menu_item_id", item.ID),
			zap.String("line_item_id", line.ID))
		span.SetAttributes(attribute.String("inventory.outcome", string(domain.OutcomeUntracked)))
		return &ReserveResult{Line: *line, Outcome: domain.OutcomeUntracked}, nil
	}

	updated, err := c.inventory.Decrement(ctx, inv.ID, quantity)
	if err != nil {
		c.reportInconsistency(ctx, span, "reserve", *line, err)
		return &ReserveResult{Line: *line, Outcome: domain.OutcomeAdjustFailed}, nil
	}

	span.SetAttributes(attribute.String("inventory.outcome", string(domain.OutcomeAdjusted)))
	return &ReserveResult{Line: *line, Outcome: domain.OutcomeAdjusted, OnHand: updated.QuantityOnHand}, nil
}

// ReleaseForDeletedLine restores the line's quantity to inventory and then
// deletes the line. The deletion always proceeds: a phantom line on a
// cancelled order is worse than a stale inventory count, so restocking is
// best-effort. Releasing an already-deleted line is a no-op, not an error,
// and never double-increments stock.
func (c *Coordinator) ReleaseForDeletedLine(ctx context.Context, lineItemID string) (*ReleaseResult, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.ReleaseForDeletedLine",
		trace.WithAttributes(attribute.String("line_item.id", lineItemID)))
	defer span.End()

	line, err := c.orders.GetLineItem(ctx, lineItemID)
	if err != nil {
		return nil, fmt.Errorf("line item lookup failed: %w", err)
	}
	if line == nil {
		span.SetAttributes(attribute.String("inventory.outcome", string(domain.OutcomeSkipped)))
		return &ReleaseResult{Deleted: false, Outcome: domain.OutcomeSkipped}, nil
	}

	outcome := c.restock(ctx, span, *line)

	if err := c.orders.DeleteLineItem(ctx, lineItemID); err != nil {
		// Stock may already be back while the line still exists - report
		// it loudly, the stores disagree in the opposite direction now.
		c.reportInconsistency(ctx, span, "release-delete", *line, err)
		return &ReleaseResult{Deleted: false, Outcome: outcome}, fmt.Errorf("line item deletion failed: %w", err)
	}

	return &ReleaseResult{Deleted: true, Outcome: outcome}, nil
}

func (c *Coordinator) restock(ctx context.Context, span trace.Span, line domain.OrderLineItem) domain.InventoryOutcome {
	inv, err := c.inventory.FindByMenuItem(ctx, line.MenuItemID)
	if err != nil {
		c.reportInconsistency(ctx, span, "release", line, err)
		return domain.OutcomeAdjustFailed
	}
	if inv == nil {
		c.logger.Warn("no inventory tracked for menu item, nothing to restore",
			zap.String("menu_item_id", line.MenuItemID),
			zap.String("line_item_id", line.ID))
		span.SetAttributes(attribute.String("inventory.outcome", string(domain.OutcomeUntracked)))
		return domain.OutcomeUntracked
	}

	if _, err := c.inventory.Increment(ctx, inv.ID, line.Quantity); err != nil {
		c.reportInconsistency(ctx, span, "release", line, err)
		return domain.OutcomeAdjustFailed
	}

	span.SetAttributes(attribute.String("inventory.outcome", string(domain.OutcomeAdjusted)))
	return domain.OutcomeAdjusted
}

// AdjustForQuantityDelta brings inventory in line with a resized line
// item. The caller updates the stored quantity through the order store
// first; this only moves stock by the delta. A positive delta sold more
// units (decrement), a negative delta returned units (increment).
func (c *Coordinator) AdjustForQuantityDelta(ctx context.Context, line domain.OrderLineItem, delta int) (*AdjustResult, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.AdjustForQuantityDelta",
		trace.WithAttributes(
			attribute.String("line_item.id", line.ID),
			attribute.Int("delta", delta),
		))
	defer span.End()

	if line.ID == "" {
		return nil, domain.ErrInvalidLineItem
	}
	if delta == 0 {
		return &AdjustResult{Outcome: domain.OutcomeSkipped}, nil
	}

	inv, err := c.inventory.FindByMenuItem(ctx, line.MenuItemID)
	if err != nil {
		c.reportInconsistency(ctx, span, "adjust", line, err)
		return &AdjustResult{Outcome: domain.OutcomeAdjustFailed}, nil
	}
	if inv == nil {
		span.SetAttributes(attribute.String("inventory.outcome", string(domain.OutcomeUntracked)))
		return &AdjustResult{Outcome: domain.OutcomeUntracked}, nil
	}

	var updated *domain.InventoryItem
	if delta > 0 {
		updated, err = c.inventory.Decrement(ctx, inv.ID, delta)
	} else {
		updated, err = c.inventory.Increment(ctx, inv.ID, -delta)
	}
	if err != nil {
		c.reportInconsistency(ctx, span, "adjust", line, err)
		return &AdjustResult{Outcome: domain.OutcomeAdjustFailed}, nil
	}

	span.SetAttributes(attribute.String("inventory.outcome", string(domain.OutcomeAdjusted)))
	return &AdjustResult{Outcome: domain.OutcomeAdjusted, OnHand: updated.QuantityOnHand}, nil
}

// CancelOrder releases every line of an open order and deletes the order.
// Per-line restock failures do not stop the cancellation; they are
// counted, logged, and reported for reconciliation like any other partial
// consistency.
func (c *Coordinator) CancelOrder(ctx context.Context, orderID string) (*CancelResult, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.CancelOrder",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order, err := c.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order lookup failed: %w", err)
	}
	if order == nil {
		return &CancelResult{}, nil
	}
	if order.Finalized {
		return nil, domain.ErrOrderFinalized
	}

	result := &CancelResult{}
	for _, line := range order.Lines {
		release, err := c.ReleaseForDeletedLine(ctx, line.ID)
		if err != nil {
			result.RestockFailed++
			continue
		}
		if release.Deleted {
			result.LinesReleased++
		}
		if release.Outcome == domain.OutcomeAdjustFailed {
			result.RestockFailed++
		}
	}

	if err := c.orders.DeleteOrder(ctx, orderID); err != nil {
		return result, fmt.Errorf("order deletion failed: %w", err)
	}

	return result, nil
}

// reportInconsistency is the single funnel for partial-consistency
// outcomes: warn log with every id needed for manual reconciliation, span
// attribute, and a durable event when a broker is configured. Publish
// failures are themselves log-only.
func (c *Coordinator) reportInconsistency(ctx context.Context, span trace.Span, operation string, line domain.OrderLineItem, cause error) {
	c.logger.Warn("order store and inventory ledger disagree",
		zap.String("operation", operation),
		zap.String("order_id", line.OrderID),
		zap.String("line_item_id", line.ID),
		zap.String("menu_item_id", line.MenuItemID),
		zap.Int("quantity", line.Quantity),
		zap.Error(cause))
	span.SetAttributes(attribute.String("inventory.outcome", string(domain.OutcomeAdjustFailed)))

	if c.broker == nil {
		return
	}

	event := domain.ReconciliationEvent{
		Operation:  operation,
		OrderID:    line.OrderID,
		LineItemID: line.ID,
		MenuItemID: line.MenuItemID,
		Quantity:   line.Quantity,
		Reason:     cause.Error(),
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("failed to marshal reconciliation event", zap.Error(err))
		return
	}
	if err := c.broker.Publish(ctx, queue.QueueReconciliation, payload); err != nil {
		c.logger.Error("failed to publish reconciliation event",
			zap.String("line_item_id", line.ID),
			zap.Error(err))
	}
}
