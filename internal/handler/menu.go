package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bunnybingsu/api/internal/menu"
	"github.com/bunnybingsu/api/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MenuServicer defines the service methods needed by menu handlers.
// Satisfied by *service.MenuService; narrow interface for testability.
type MenuServicer interface {
	List(ctx context.Context) ([]model.MenuItem, error)
	Get(ctx context.Context, id string) (*model.MenuItem, error)
	Create(ctx context.Context, item model.MenuItem) (*model.MenuItem, error)
	Update(ctx context.Context, id string, item model.MenuItem) (*model.MenuItem, error)
	Delete(ctx context.Context, id string) error
}

// MenuHandler handles menu endpoints.
type MenuHandler struct {
	svc MenuServicer
	log *zap.Logger
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(svc MenuServicer, log *zap.Logger) *MenuHandler {
	return &MenuHandler{svc: svc, log: log}
}

// RegisterRoutes registers the public menu endpoints.
// Expected to be mounted at /menu.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/rules", h.Rules)
}

// RegisterAdminRoutes registers menu editing endpoints.
// Expected to be mounted at /admin/menu.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request types ---

type optionRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type menuItemRequest struct {
	Name         string          `json:"name"`
	Price        string          `json:"price"`
	Image        string          `json:"image"`
	Mode         string          `json:"mode"`
	Available    *bool           `json:"available"`
	Sauces       []string        `json:"sauces"`
	Flavors      []string        `json:"flavors"`
	Toppings     []string        `json:"toppings"`
	Cheeses      []optionRequest `json:"cheeses"`
	Extras       []optionRequest `json:"extras"`
	Descriptions []string        `json:"descriptions"`
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s", field)
	}
	return d, nil
}

func parseOptions(family string, in []optionRequest) ([]model.PricedOption, error) {
	out := make([]model.PricedOption, len(in))
	for i, o := range in {
		price, err := parseMoney(family+" price", o.Price)
		if err != nil {
			return nil, err
		}
		out[i] = model.PricedOption{Name: o.Name, Price: price}
	}
	return out, nil
}

// toMenuItem converts the request body. Items are available unless the
// request says otherwise.
func (req menuItemRequest) toMenuItem() (model.MenuItem, error) {
	price, err := parseMoney("price", req.Price)
	if err != nil {
		return model.MenuItem{}, err
	}
	cheeses, err := parseOptions("cheese", req.Cheeses)
	if err != nil {
		return model.MenuItem{}, err
	}
	extras, err := parseOptions("extra", req.Extras)
	if err != nil {
		return model.MenuItem{}, err
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return model.MenuItem{
		Name:         req.Name,
		Price:        price,
		Image:        req.Image,
		Mode:         req.Mode,
		Available:    available,
		Sauces:       orEmpty(req.Sauces),
		Flavors:      orEmpty(req.Flavors),
		Toppings:     orEmpty(req.Toppings),
		Cheeses:      cheeses,
		Extras:       extras,
		Descriptions: orEmpty(req.Descriptions),
	}, nil
}

// --- Handlers ---

// List returns the whole menu.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuResponses(items))
}

// Get returns one menu item.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(*item))
}

// Rules returns the picker layout for a menu item's mode.
func (h *MenuHandler) Rules(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, menu.For(item.Mode))
}

// Create adds a menu item.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	item, err := req.toMenuItem()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	created, err := h.svc.Create(r.Context(), item)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(*created))
}

// Update replaces a menu item.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	item, err := req.toMenuItem()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), item)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(*updated))
}

// Delete removes a menu item.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
