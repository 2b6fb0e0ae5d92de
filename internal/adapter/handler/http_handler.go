package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rcameron/tillsync/internal/core/domain"
	"github.com/rcameron/tillsync/internal/core/service"
	"github.com/rcameron/tillsync/internal/port"
)

// HTTPHandler is the thin order-entry surface over the coordinator. It
// translates partial-consistency outcomes into a soft "consistency" field
// on a successful response; an inventory bookkeeping failure never turns a
// recorded sale into an HTTP error.
type HTTPHandler struct {
	coordinator *service.Coordinator
	catalog     *service.CatalogService
	orders      port.OrderStore
	inventory   port.InventoryLedger
	taxRate     decimal.Decimal
	logger      *zap.Logger
}

func NewHTTPHandler(coordinator *service.Coordinator, catalog *service.CatalogService, orders port.OrderStore, inventory port.InventoryLedger, taxRate decimal.Decimal, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		coordinator: coordinator,
		catalog:     catalog,
		orders:      orders,
		inventory:   inventory,
		taxRate:     taxRate,
		logger:      logger,
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.healthCheck)

	api := r.Group("/api")
	{
		api.POST("/orders", h.createOrder)
		api.GET("/orders/open", h.listOpenOrders)
		api.GET("/orders/finalized", h.listFinalizedOrders)
		api.GET("/orders/:id", h.getOrder)
		api.DELETE("/orders/:id", h.cancelOrder)
		api.POST("/orders/:id/finalize", h.finalizeOrder)
		api.POST("/orders/:id/lines", h.addLine)

		api.PATCH("/lines/:id", h.resizeLine)
		api.DELETE("/lines/:id", h.removeLine)

		api.GET("/menu", h.listMenu)
		api.POST("/menu", h.createMenuItem)
		api.PATCH("/menu/:id/price", h.updateMenuItemPrice)
		api.DELETE("/menu/:id", h.deleteMenuItem)

		api.GET("/inventory", h.listInventory)
		api.POST("/inventory", h.createInventoryItem)
		api.PUT("/inventory/:id/quantity", h.setInventoryQuantity)
	}
}

type lineResponse struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	MenuItemID string          `json:"menu_item_id"`
	NameAtSale string          `json:"name_at_sale"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

type orderResponse struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	FinalizedAt   *time.Time      `json:"finalized_at,omitempty"`
	Finalized     bool            `json:"finalized"`
	Lines         []lineResponse  `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalAfterTax decimal.Decimal `json:"total_after_tax"`
}

func toLineResponse(line domain.OrderLineItem) lineResponse {
	return lineResponse{
		ID:         line.ID,
		OrderID:    line.OrderID,
		MenuItemID: line.MenuItemID,
		NameAtSale: line.NameAtSale,
		UnitPrice:  line.UnitPrice,
		Quantity:   line.Quantity,
		LineTotal:  line.LineTotal(),
	}
}

func (h *HTTPHandler) toOrderResponse(order domain.Order) orderResponse {
	lines := make([]lineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, toLineResponse(line))
	}
	return orderResponse{
		ID:            order.ID,
		CreatedAt:     order.CreatedAt,
		FinalizedAt:   order.FinalizedAt,
		Finalized:     order.Finalized,
		Lines:         lines,
		Subtotal:      order.Subtotal(),
		TotalAfterTax: order.TotalAfterTax(h.taxRate),
	}
}

func (h *HTTPHandler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) createOrder(c *gin.Context) {
	order, err := h.orders.CreateOrder(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toOrderResponse(*order))
}

func (h *HTTPHandler) getOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, h.toOrderResponse(*order))
}

func (h *HTTPHandler) listOpenOrders(c *gin.Context) {
	h.listOrders(c, h.orders.ListOpenOrders)
}

func (h *HTTPHandler) listFinalizedOrders(c *gin.Context) {
	h.listOrders(c, h.orders.ListFinalizedOrders)
}

func (h *HTTPHandler) listOrders(c *gin.Context, list func(ctx context.Context) ([]domain.Order, error)) {
	orders, err := list(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	responses := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, h.toOrderResponse(order))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *HTTPHandler) finalizeOrder(c *gin.Context) {
	order, err := h.orders.FinalizeOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toOrderResponse(*order))
}

func (h *HTTPHandler) cancelOrder(c *gin.Context) {
	result, err := h.coordinator.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lines_released": result.LinesReleased,
		"restock_failed": result.RestockFailed,
	})
}

type addLineRequest struct {
	MenuItemID string `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
}

func (h *HTTPHandler) addLine(c *gin.Context) {
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()

	item, err := h.catalog.GetItem(ctx, req.MenuItemID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "menu item not found"})
		return
	}

	order, err := h.orders.GetOrder(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	result, err := h.coordinator.ReserveForNewLine(ctx, *item, *order, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"line":        toLineResponse(result.Line),
		"consistency": result.Outcome,
	})
}

type resizeLineRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *HTTPHandler) resizeLine(c *gin.Context) {
	var req resizeLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be at least 1; delete the line to remove it"})
		return
	}

	ctx := c.Request.Context()

	line, err := h.orders.GetLineItem(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if line == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "line item not found"})
		return
	}

	delta := req.Quantity - line.Quantity

	updated, err := h.orders.UpdateLineItemQuantity(ctx, line.ID, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.coordinator.AdjustForQuantityDelta(ctx, *updated, delta)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"line":        toLineResponse(*updated),
		"consistency": result.Outcome,
	})
}

func (h *HTTPHandler) removeLine(c *gin.Context) {
	result, err := h.coordinator.ReleaseForDeletedLine(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deleted":     result.Deleted,
		"consistency": result.Outcome,
	})
}

func (h *HTTPHandler) listMenu(c *gin.Context) {
	views, err := h.catalog.ListMenu(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	type menuItemResponse struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Price     decimal.Decimal `json:"price"`
		Category  string          `json:"category"`
		Available bool            `json:"available"`
	}

	responses := make([]menuItemResponse, 0, len(views))
	for _, view := range views {
		responses = append(responses, menuItemResponse{
			ID:        view.ID,
			Name:      view.Name,
			Price:     view.Price,
			Category:  view.Category,
			Available: view.Available,
		})
	}
	c.JSON(http.StatusOK, responses)
}

type createMenuItemRequest struct {
	Name     string          `json:"name" binding:"required"`
	Category string          `json:"category" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required"`
}

func (h *HTTPHandler) createMenuItem(c *gin.Context) {
	var req createMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	item, err := h.catalog.CreateItem(c.Request.Context(), req.Name, req.Category, req.Price)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

type updatePriceRequest struct {
	Price decimal.Decimal `json:"price" binding:"required"`
}

func (h *HTTPHandler) updateMenuItemPrice(c *gin.Context) {
	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	item, err := h.catalog.UpdateItemPrice(c.Request.Context(), c.Param("id"), req.Price)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *HTTPHandler) deleteMenuItem(c *gin.Context) {
	if err := h.catalog.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) listInventory(c *gin.Context) {
	items, err := h.inventory.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type createInventoryRequest struct {
	MenuItemID string `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
}

func (h *HTTPHandler) createInventoryItem(c *gin.Context) {
	var req createInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	item, err := h.inventory.Create(c.Request.Context(), req.MenuItemID, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *HTTPHandler) setInventoryQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	item, err := h.inventory.SetQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// fail maps domain errors to HTTP statuses. Anything unrecognized is a
// store failure and stays opaque to the client.
func (h *HTTPHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidMenuItem),
		errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidLineItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderFinalized):
		c.JSON(http.StatusConflict, gin.H{"error": "order is finalized"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
