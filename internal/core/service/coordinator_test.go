package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rcameron/tillsync/internal/core/domain"
	"github.com/rcameron/tillsync/internal/queue"
)

// Mock OrderStore
type mockOrderStore struct {
	mu            sync.Mutex
	orders        map[string]domain.Order
	lines         map[string]domain.OrderLineItem
	nextID        int
	createLineErr error
	deleteLineErr error
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{
		orders: make(map[string]domain.Order),
		lines:  make(map[string]domain.OrderLineItem),
	}
}

func (m *mockOrderStore) addOrder(id string, finalized bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[id] = domain.Order{ID: id, Finalized: finalized}
}

func (m *mockOrderStore) lineCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines)
}

func (m *mockOrderStore) CreateOrder(ctx context.Context) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order := domain.Order{ID: fmt.Sprintf("order-%d", m.nextID)}
	m.orders[order.ID] = order
	return &order, nil
}

func (m *mockOrderStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	for _, line := range m.lines {
		if line.OrderID == orderID {
			order.Lines = append(order.Lines, line)
		}
	}
	return &order, nil
}

func (m *mockOrderStore) ListOpenOrders(ctx context.Context) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockOrderStore) ListFinalizedOrders(ctx context.Context) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockOrderStore) CreateLineItem(ctx context.Context, item domain.MenuItem, orderID string, quantity int) (*domain.OrderLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createLineErr != nil {
		return nil, m.createLineErr
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	if _, ok := m.orders[orderID]; !ok {
		return nil, domain.ErrNotFound
	}
	m.nextID++
	line := domain.OrderLineItem{
		ID:         fmt.Sprintf("line-%d", m.nextID),
		OrderID:    orderID,
		MenuItemID: item.ID,
		NameAtSale: item.Name,
		UnitPrice:  item.Price,
		Quantity:   quantity,
	}
	m.lines[line.ID] = line
	return &line, nil
}

func (m *mockOrderStore) GetLineItem(ctx context.Context, lineItemID string) (*domain.OrderLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[lineItemID]
	if !ok {
		return nil, nil
	}
	return &line, nil
}

func (m *mockOrderStore) ListLineItems(ctx context.Context, orderID string) ([]domain.OrderLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var lines []domain.OrderLineItem
	for _, line := range m.lines {
		if line.OrderID == orderID {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (m *mockOrderStore) UpdateLineItemQuantity(ctx context.Context, lineItemID string, quantity int) (*domain.OrderLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	line, ok := m.lines[lineItemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	line.Quantity = quantity
	m.lines[lineItemID] = line
	return &line, nil
}

func (m *mockOrderStore) DeleteLineItem(ctx context.Context, lineItemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteLineErr != nil {
		return m.deleteLineErr
	}
	delete(m.lines, lineItemID)
	return nil
}

func (m *mockOrderStore) DeleteOrder(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, line := range m.lines {
		if line.OrderID == orderID {
			delete(m.lines, id)
		}
	}
	delete(m.orders, orderID)
	return nil
}

func (m *mockOrderStore) FinalizeOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	order.Finalized = true
	m.orders[orderID] = order
	return &order, nil
}

// Mock InventoryLedger
type mockInventoryLedger struct {
	mu      sync.Mutex
	items   map[string]domain.InventoryItem
	findErr error
	decErr  error
	incErr  error
}

func newMockInventoryLedger() *mockInventoryLedger {
	return &mockInventoryLedger{items: make(map[string]domain.InventoryItem)}
}

func (m *mockInventoryLedger) addItem(id, menuItemID string, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = domain.InventoryItem{ID: id, MenuItemID: menuItemID, QuantityOnHand: quantity}
}

func (m *mockInventoryLedger) onHand(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].QuantityOnHand
}

func (m *mockInventoryLedger) Create(ctx context.Context, menuItemID string, quantity int) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := domain.InventoryItem{ID: "inv-" + menuItemID, MenuItemID: menuItemID, QuantityOnHand: quantity}
	m.items[item.ID] = item
	return &item, nil
}

func (m *mockInventoryLedger) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *mockInventoryLedger) List(ctx context.Context) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.InventoryItem
	for _, item := range m.items {
		items = append(items, item)
	}
	return items, nil
}

func (m *mockInventoryLedger) FindByMenuItem(ctx context.Context, menuItemID string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, item := range m.items {
		if item.MenuItemID == menuItemID {
			return &item, nil
		}
	}
	return nil, nil
}

func (m *mockInventoryLedger) Decrement(ctx context.Context, id string, amount int) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.decErr != nil {
		return nil, m.decErr
	}
	if amount < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	item, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if item.QuantityOnHand < amount {
		return nil, domain.ErrInsufficientStock
	}
	item.QuantityOnHand -= amount
	m.items[id] = item
	return &item, nil
}

func (m *mockInventoryLedger) Increment(ctx context.Context, id string, amount int) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incErr != nil {
		return nil, m.incErr
	}
	if amount < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	item, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	item.QuantityOnHand += amount
	m.items[id] = item
	return &item, nil
}

func (m *mockInventoryLedger) SetQuantity(ctx context.Context, id string, quantity int) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	item.QuantityOnHand = quantity
	m.items[id] = item
	return &item, nil
}

func (m *mockInventoryLedger) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// Mock Broker capturing published reconciliation events
type mockBroker struct {
	mu       sync.Mutex
	messages [][]byte
}

func (m *mockBroker) Publish(ctx context.Context, queueName string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *mockBroker) Subscribe(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	return nil
}

func (m *mockBroker) Close() error { return nil }

func (m *mockBroker) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func testMenuItem() domain.MenuItem {
	return domain.MenuItem{
		ID:       "menu-1",
		Name:     "Espresso",
		Price:    decimal.RequireFromString("3.50"),
		Category: "Drinks",
	}
}

func TestReserveForNewLine_Success(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	store.addOrder("order-1", false)
	ledger.addItem("inv-1", "menu-1", 10)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	item := testMenuItem()
	result, err := coord.ReserveForNewLine(context.Background(), item, domain.Order{ID: "order-1"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != domain.OutcomeAdjusted {
		t.Errorf("expected adjusted, got %s", result.Outcome)
	}
	if result.Line.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", result.Line.Quantity)
	}
	if !result.Line.UnitPrice.Equal(item.Price) {
		t.Errorf("expected unit price %s, got %s", item.Price, result.Line.UnitPrice)
	}
	if result.Line.NameAtSale != "Espresso" {
		t.Errorf("expected name snapshot Espresso, got %s", result.Line.NameAtSale)
	}
	if result.OnHand != 7 {
		t.Errorf("expected 7 on hand, got %d", result.OnHand)
	}
	if got := ledger.onHand("inv-1"); got != 7 {
		t.Errorf("expected inventory 7, got %d", got)
	}
}

func TestReserveForNewLine_RejectsInvalidQuantity(t *testing.T) {
	for _, quantity := range []int{0, -1, -10} {
		store := newMockOrderStore()
		ledger := newMockInventoryLedger()
		store.addOrder("order-1", false)
		ledger.addItem("inv-1", "menu-1", 10)

		coord := NewCoordinator(store, ledger, nil, zap.NewNop())

		_, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), domain.Order{ID: "order-1"}, quantity)
		if !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("quantity %d: expected ErrInvalidQuantity, got %v", quantity, err)
		}
		if store.lineCount() != 0 {
			t.Errorf("quantity %d: expected no line items created", quantity)
		}
		if got := ledger.onHand("inv-1"); got != 10 {
			t.Errorf("quantity %d: expected inventory untouched at 10, got %d", quantity, got)
		}
	}
}

func TestReserveForNewLine_RejectsFinalizedOrder(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	store.addOrder("order-1", true)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	_, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), domain.Order{ID: "order-1", Finalized: true}, 1)
	if !errors.Is(err, domain.ErrOrderFinalized) {
		t.Errorf("expected ErrOrderFinalized, got %v", err)
	}
	if store.lineCount() != 0 {
		t.Error("expected no line items created")
	}
}

func TestReserveForNewLine_InsufficientStockKeepsSale(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	broker := &mockBroker{}
	store.addOrder("order-1", false)
	ledger.addItem("inv-1", "menu-1", 2)

	coord := NewCoordinator(store, ledger, broker, zap.NewNop())

	result, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), domain.Order{ID: "order-1"}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != domain.OutcomeAdjustFailed {
		t.Errorf("expected adjust_failed, got %s", result.Outcome)
	}
	if result.Line.Quantity != 5 {
		t.Errorf("expected line quantity 5, got %d", result.Line.Quantity)
	}
	if store.lineCount() != 1 {
		t.Error("expected line item to remain created")
	}
	if got := ledger.onHand("inv-1"); got != 2 {
		t.Errorf("expected inventory unchanged at 2, got %d", got)
	}
	if broker.count() != 1 {
		t.Errorf("expected 1 reconciliation event, got %d", broker.count())
	}

	var event domain.ReconciliationEvent
	if err := json.Unmarshal(broker.messages[0], &event); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	if event.Operation != "reserve" {
		t.Errorf("expected operation reserve, got %s", event.Operation)
	}
	if event.OrderID != "order-1" || event.MenuItemID != "menu-1" || event.Quantity != 5 {
		t.Errorf("event missing reconciliation detail: %+v", event)
	}
	if event.LineItemID != result.Line.ID {
		t.Errorf("expected event line item %s, got %s", result.Line.ID, event.LineItemID)
	}
}

func TestReserveForNewLine_UntrackedItemSellsUnlimited(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	store.addOrder("order-1", false)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	result, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), domain.Order{ID: "order-1"}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != domain.OutcomeUntracked {
		t.Errorf("expected untracked, got %s", result.Outcome)
	}
	if store.lineCount() != 1 {
		t.Error("expected line item created")
	}
}

func TestReserveForNewLine_CreationFailureTouchesNoInventory(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	store.addOrder("order-1", false)
	store.createLineErr = errors.New("connection reset")
	ledger.addItem("inv-1", "menu-1", 10)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	_, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), domain.Order{ID: "order-1"}, 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := ledger.onHand("inv-1"); got != 10 {
		t.Errorf("expected inventory untouched at 10, got %d", got)
	}
}

func TestReleaseForDeletedLine_RoundTrip(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	store.addOrder("order-1", false)
	ledger.addItem("inv-1", "menu-1", 10)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	reserved, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), domain.Order{ID: "order-1"}, 3)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if got := ledger.onHand("inv-1"); got != 7 {
		t.Fatalf("expected inventory 7 after reserve, got %d", got)
	}

	released, err := coord.ReleaseForDeletedLine(context.Background(), reserved.Line.ID)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if !released.Deleted {
		t.Error("expected line to be deleted")
	}
	if released.Outcome != domain.OutcomeAdjusted {
		t.Errorf("expected adjusted, got %s", released.Outcome)
	}
	if got := ledger.onHand("inv-1"); got != 10 {
		t.Errorf("expected inventory restored to 10, got %d", got)
	}
	if store.lineCount() != 0 {
		t.Error("expected no line items left")
	}
}

func TestReleaseForDeletedLine_SecondCallIsNoop(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	store.addOrder("order-1", false)
	ledger.addItem("inv-1", "menu-1", 10)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	reserved, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), domain.Order{ID: "order-1"}, 3)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	if _, err := coord.ReleaseForDeletedLine(context.Background(), reserved.Line.ID); err != nil {
		t.Fatalf("first release failed: %v", err)
	}

	second, err := coord.ReleaseForDeletedLine(context.Background(), reserved.Line.ID)
	if err != nil {
		t.Fatalf("second release failed: %v", err)
	}
	if second.Deleted {
		t.Error("expected second release to report nothing deleted")
	}
	if second.Outcome != domain.OutcomeSkipped {
		t.Errorf("expected skipped, got %s", second.Outcome)
	}
	if got := ledger.onHand("inv-1"); got != 10 {
		t.Errorf("expected no double increment, inventory should be 10, got %d", got)
	}
}

func TestReleaseForDeletedLine_DeletesEvenWhenRestockFails(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	broker := &mockBroker{}
	store.addOrder("order-1", false)
	ledger.addItem("inv-1", "menu-1", 10)

	coord := NewCoordinator(store, ledger, broker, zap.NewNop())

	reserved, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), domain.Order{ID: "order-1"}, 3)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	ledger.incErr = errors.New("connection reset")

	released, err := coord.ReleaseForDeletedLine(context.Background(), reserved.Line.ID)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if !released.Deleted {
		t.Error("expected line deleted despite restock failure")
	}
	if released.Outcome != domain.OutcomeAdjustFailed {
		t.Errorf("expected adjust_failed, got %s", released.Outcome)
	}
	if store.lineCount() != 0 {
		t.Error("expected line item deleted")
	}
	if broker.count() != 1 {
		t.Errorf("expected 1 reconciliation event, got %d", broker.count())
	}
}

func TestReleaseForDeletedLine_UntrackedItemStillDeletes(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	store.addOrder("order-1", false)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	reserved, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), domain.Order{ID: "order-1"}, 2)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	released, err := coord.ReleaseForDeletedLine(context.Background(), reserved.Line.ID)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if !released.Deleted {
		t.Error("expected line deleted")
	}
	if released.Outcome != domain.OutcomeUntracked {
		t.Errorf("expected untracked, got %s", released.Outcome)
	}
}

func TestAdjustForQuantityDelta_ReducedQuantityRestocks(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	ledger.addItem("inv-1", "menu-1", 6)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	line := domain.OrderLineItem{ID: "line-1", OrderID: "order-1", MenuItemID: "menu-1", Quantity: 1}
	result, err := coord.AdjustForQuantityDelta(context.Background(), line, -2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != domain.OutcomeAdjusted {
		t.Errorf("expected adjusted, got %s", result.Outcome)
	}
	if got := ledger.onHand("inv-1"); got != 8 {
		t.Errorf("expected inventory 8, got %d", got)
	}
}

func TestAdjustForQuantityDelta_IncreasedQuantityReserves(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	ledger.addItem("inv-1", "menu-1", 6)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	line := domain.OrderLineItem{ID: "line-1", OrderID: "order-1", MenuItemID: "menu-1", Quantity: 3}
	result, err := coord.AdjustForQuantityDelta(context.Background(), line, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != domain.OutcomeAdjusted {
		t.Errorf("expected adjusted, got %s", result.Outcome)
	}
	if result.OnHand != 4 {
		t.Errorf("expected 4 on hand, got %d", result.OnHand)
	}
}

func TestAdjustForQuantityDelta_ZeroDeltaIsSkipped(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	ledger.addItem("inv-1", "menu-1", 6)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	line := domain.OrderLineItem{ID: "line-1", MenuItemID: "menu-1", Quantity: 3}
	result, err := coord.AdjustForQuantityDelta(context.Background(), line, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != domain.OutcomeSkipped {
		t.Errorf("expected skipped, got %s", result.Outcome)
	}
	if got := ledger.onHand("inv-1"); got != 6 {
		t.Errorf("expected inventory unchanged at 6, got %d", got)
	}
}

func TestAdjustForQuantityDelta_RejectsMissingLineID(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	ledger.addItem("inv-1", "menu-1", 6)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	_, err := coord.AdjustForQuantityDelta(context.Background(), domain.OrderLineItem{MenuItemID: "menu-1"}, 2)
	if !errors.Is(err, domain.ErrInvalidLineItem) {
		t.Errorf("expected ErrInvalidLineItem, got %v", err)
	}
	if got := ledger.onHand("inv-1"); got != 6 {
		t.Errorf("expected inventory untouched at 6, got %d", got)
	}
}

func TestAdjustForQuantityDelta_DecrementFailureFlagsInconsistency(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	broker := &mockBroker{}
	ledger.addItem("inv-1", "menu-1", 1)

	coord := NewCoordinator(store, ledger, broker, zap.NewNop())

	line := domain.OrderLineItem{ID: "line-1", OrderID: "order-1", MenuItemID: "menu-1", Quantity: 5}
	result, err := coord.AdjustForQuantityDelta(context.Background(), line, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != domain.OutcomeAdjustFailed {
		t.Errorf("expected adjust_failed, got %s", result.Outcome)
	}
	if got := ledger.onHand("inv-1"); got != 1 {
		t.Errorf("expected inventory unchanged at 1, got %d", got)
	}
	if broker.count() != 1 {
		t.Errorf("expected 1 reconciliation event, got %d", broker.count())
	}
}

func TestMultiLineScenario(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	store.addOrder("order-1", false)
	ledger.addItem("inv-1", "menu-1", 10)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())
	order := domain.Order{ID: "order-1"}

	first, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), order, 3)
	if err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	if got := ledger.onHand("inv-1"); got != 7 {
		t.Fatalf("expected inventory 7, got %d", got)
	}

	second, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), order, 4)
	if err != nil {
		t.Fatalf("second reserve failed: %v", err)
	}
	if got := ledger.onHand("inv-1"); got != 3 {
		t.Fatalf("expected inventory 3, got %d", got)
	}

	if _, err := coord.ReleaseForDeletedLine(context.Background(), first.Line.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if got := ledger.onHand("inv-1"); got != 6 {
		t.Errorf("expected inventory 6, got %d", got)
	}

	remaining, err := store.ListLineItems(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 line remaining, got %d", len(remaining))
	}
	if remaining[0].ID != second.Line.ID || remaining[0].Quantity != 4 {
		t.Errorf("expected remaining line %s with quantity 4, got %+v", second.Line.ID, remaining[0])
	}
}

func TestCancelOrder_ReleasesAllLines(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	store.addOrder("order-1", false)
	ledger.addItem("inv-1", "menu-1", 10)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())
	order := domain.Order{ID: "order-1"}

	if _, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), order, 3); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if _, err := coord.ReserveForNewLine(context.Background(), testMenuItem(), order, 2); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	result, err := coord.CancelOrder(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if result.LinesReleased != 2 {
		t.Errorf("expected 2 lines released, got %d", result.LinesReleased)
	}
	if result.RestockFailed != 0 {
		t.Errorf("expected 0 restock failures, got %d", result.RestockFailed)
	}
	if got := ledger.onHand("inv-1"); got != 10 {
		t.Errorf("expected inventory restored to 10, got %d", got)
	}

	order2, _ := store.GetOrder(context.Background(), "order-1")
	if order2 != nil {
		t.Error("expected order deleted")
	}
}

func TestCancelOrder_RejectsFinalizedOrder(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()
	store.addOrder("order-1", true)

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	_, err := coord.CancelOrder(context.Background(), "order-1")
	if !errors.Is(err, domain.ErrOrderFinalized) {
		t.Errorf("expected ErrOrderFinalized, got %v", err)
	}
}

func TestCancelOrder_MissingOrderIsNoop(t *testing.T) {
	store := newMockOrderStore()
	ledger := newMockInventoryLedger()

	coord := NewCoordinator(store, ledger, nil, zap.NewNop())

	result, err := coord.CancelOrder(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.LinesReleased != 0 || result.RestockFailed != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
