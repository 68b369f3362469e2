package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bunnybingsu/api/internal/model"
	"github.com/bunnybingsu/api/internal/pricing"
	"github.com/bunnybingsu/api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderServicer defines the service methods needed by the staff order
// handlers. Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	List(ctx context.Context) ([]model.Order, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	SetServed(ctx context.Context, id string, served bool) (*model.Order, error)
	ToggleServed(ctx context.Context, id string) (*model.Order, error)
	MarkPaid(ctx context.Context, id string) (*model.Order, error)
	Complete(ctx context.Context, id string) (*model.Order, error)
	ChangeTable(ctx context.Context, id, table string) (*model.Order, error)
	Delete(ctx context.Context, id string) error
	HistoryPredicate(scope, date string) (pricing.Filter, error)
	ClearHistory(ctx context.Context, pred pricing.Filter) (int, error)
	MergeTable(ctx context.Context, table string) (*model.Order, error)
}

// OrderHandler handles the staff order board.
type OrderHandler struct {
	svc OrderServicer
	log *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, log *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside the admin subrouter: /admin
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Post("/orders/clear", h.ClearHistory)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/served", h.Served)
	r.Patch("/orders/{id}/paid", h.Paid)
	r.Patch("/orders/{id}/complete", h.Complete)
	r.Patch("/orders/{id}/table", h.ChangeTable)
	r.Delete("/orders/{id}", h.Delete)
	r.Post("/tables/{table}/merge", h.MergeTable)
}

// --- Request / Response types ---

type servedRequest struct {
	Served *bool `json:"served"`
}

type clearHistoryRequest struct {
	Scope string `json:"scope"`
	Date  string `json:"date"`
}

type clearHistoryResponse struct {
	Deleted int    `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

type mergeErrorResponse struct {
	Error           string   `json:"error"`
	SurvivorID      string   `json:"survivor_id"`
	SurvivorUpdated bool     `json:"survivor_updated"`
	Deleted         []string `json:"deleted"`
	Remaining       []string `json:"remaining"`
}

// --- Handlers ---

// List returns every order, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// Get returns one order.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Served sets the served flag from {"served": bool}, or toggles it when the
// body is empty or omits the field.
func (h *OrderHandler) Served(w http.ResponseWriter, r *http.Request) {
	var req servedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id := chi.URLParam(r, "id")
	var (
		order *model.Order
		err   error
	)
	if req.Served == nil {
		order, err = h.svc.ToggleServed(r.Context(), id)
	} else {
		order, err = h.svc.SetServed(r.Context(), id, *req.Served)
	}
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Paid marks an order paid.
func (h *OrderHandler) Paid(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.MarkPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Complete moves an order to completed.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// ChangeTable moves an order to another table.
func (h *OrderHandler) ChangeTable(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	order, err := h.svc.ChangeTable(r.Context(), chi.URLParam(r, "id"), req.Table)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Delete removes an order. Deleting an order that is already gone succeeds.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearHistory deletes the orders matched by the requested scope.
func (h *OrderHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	var req clearHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	pred, err := h.svc.HistoryPredicate(req.Scope, req.Date)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	deleted, err := h.svc.ClearHistory(r.Context(), pred)
	if err != nil {
		h.log.Error("clear order history", zap.Int("deleted", deleted), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, clearHistoryResponse{
			Deleted: deleted,
			Error:   "some orders could not be deleted",
		})
		return
	}
	writeJSON(w, http.StatusOK, clearHistoryResponse{Deleted: deleted})
}

// MergeTable folds the unpaid orders of a table into one.
func (h *OrderHandler) MergeTable(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.MergeTable(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		var merr *service.MergeError
		if errors.As(err, &merr) {
			h.log.Error("merge table", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, mergeErrorResponse{
				Error:           "merge did not complete",
				SurvivorID:      merr.SurvivorID,
				SurvivorUpdated: merr.SurvivorUpdated,
				Deleted:         orEmpty(merr.Deleted),
				Remaining:       orEmpty(merr.Remaining),
			})
			return
		}
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}
