package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bunnybingsu/api/internal/middleware"
	"github.com/bunnybingsu/api/internal/model"
	"github.com/bunnybingsu/api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartServicer defines the service methods needed by cart handlers.
// Satisfied by *service.CartService; narrow interface for testability.
type CartServicer interface {
	Get(ctx context.Context, deviceKey string) (*service.CartView, error)
	AddItem(ctx context.Context, deviceKey string, req service.AddItemRequest) (*service.CartView, error)
	RemoveItem(ctx context.Context, deviceKey string, index int) (*service.CartView, error)
	SetQuantity(ctx context.Context, deviceKey string, index, quantity int) (*service.CartView, error)
	Clear(ctx context.Context, deviceKey string) error
	SetTable(ctx context.Context, deviceKey, table string) error
	CustomerKey(ctx context.Context, deviceKey string) (string, error)
	Checkout(ctx context.Context, deviceKey, table string) (*model.Order, error)
}

// CustomerOrders lists the orders placed from one device.
// Satisfied by *service.OrderService.
type CustomerOrders interface {
	ListByCustomer(ctx context.Context, customerKey string) ([]model.Order, error)
}

// CartHandler handles the shopper's cart, checkout and order history.
// Every route expects the device middleware to have run.
type CartHandler struct {
	svc    CartServicer
	orders CustomerOrders
	log    *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(svc CartServicer, orders CustomerOrders, log *zap.Logger) *CartHandler {
	return &CartHandler{svc: svc, orders: orders, log: log}
}

// RegisterRoutes registers shopper endpoints on the given Chi router.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.Get)
	r.Post("/cart/items", h.AddItem)
	r.Patch("/cart/items/{index}", h.SetQuantity)
	r.Delete("/cart/items/{index}", h.RemoveItem)
	r.Delete("/cart", h.Clear)
	r.Put("/cart/table", h.SetTable)
	r.Post("/checkout", h.Checkout)
	r.Get("/my-orders", h.MyOrders)
}

// --- Request types ---

type addItemRequest struct {
	MenuItemID string          `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	Selection  model.Selection `json:"selection"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type tableRequest struct {
	Table string `json:"table"`
}

// --- Helpers ---

func (h *CartHandler) device(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := middleware.DeviceFromContext(r.Context())
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing customer key"})
		return "", false
	}
	return key, true
}

func parseIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item index"})
		return 0, false
	}
	return index, true
}

// --- Handlers ---

// Get returns the device's cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := h.device(w, r)
	if !ok {
		return
	}
	v, err := h.svc.Get(r.Context(), key)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(v))
}

// AddItem adds a customized menu item to the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	key, ok := h.device(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MenuItemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu_item_id is required"})
		return
	}

	v, err := h.svc.AddItem(r.Context(), key, service.AddItemRequest{
		MenuItemID: req.MenuItemID,
		Quantity:   req.Quantity,
		Selection:  req.Selection,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartResponse(v))
}

// SetQuantity changes the quantity of one cart row.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	key, ok := h.device(w, r)
	if !ok {
		return
	}
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	v, err := h.svc.SetQuantity(r.Context(), key, index, req.Quantity)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(v))
}

// RemoveItem deletes one cart row.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	key, ok := h.device(w, r)
	if !ok {
		return
	}
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	v, err := h.svc.RemoveItem(r.Context(), key, index)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(v))
}

// Clear empties the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	key, ok := h.device(w, r)
	if !ok {
		return
	}
	if err := h.svc.Clear(r.Context(), key); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTable stores the device's table number. An empty table clears it.
func (h *CartHandler) SetTable(w http.ResponseWriter, r *http.Request) {
	key, ok := h.device(w, r)
	if !ok {
		return
	}
	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.svc.SetTable(r.Context(), key, req.Table); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	v, err := h.svc.Get(r.Context(), key)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(v))
}

// Checkout places the cart as an order. The body is optional; a table in
// it overrides the stored one.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	key, ok := h.device(w, r)
	if !ok {
		return
	}
	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.Checkout(r.Context(), key, req.Table)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(*order))
}

// MyOrders lists the orders placed from this device, newest first.
func (h *CartHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	key, ok := h.device(w, r)
	if !ok {
		return
	}
	customerKey, err := h.svc.CustomerKey(r.Context(), key)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	orders, err := h.orders.ListByCustomer(r.Context(), customerKey)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}
