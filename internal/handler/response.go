package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bunnybingsu/api/internal/cart"
	"github.com/bunnybingsu/api/internal/docstore"
	"github.com/bunnybingsu/api/internal/menu"
	"github.com/bunnybingsu/api/internal/model"
	"github.com/bunnybingsu/api/internal/pricing"
	"github.com/bunnybingsu/api/internal/service"
	"go.uber.org/zap"
)

// --- Response types ---

type optionResponse struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type menuItemResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Price        string           `json:"price"`
	Image        string           `json:"image"`
	Mode         string           `json:"mode"`
	Available    bool             `json:"available"`
	Sauces       []string         `json:"sauces"`
	Flavors      []string         `json:"flavors"`
	Toppings     []string         `json:"toppings"`
	Cheeses      []optionResponse `json:"cheeses"`
	Extras       []optionResponse `json:"extras"`
	Descriptions []string         `json:"descriptions"`
}

type lineItemResponse struct {
	LineID       string           `json:"line_id"`
	MenuItemID   string           `json:"menu_item_id"`
	Name         string           `json:"name"`
	Mode         string           `json:"mode"`
	Quantity     int              `json:"quantity"`
	Price        string           `json:"price"`
	Sauces       []string         `json:"sauces"`
	Flavors      []string         `json:"flavors"`
	Toppings     []string         `json:"toppings"`
	Cheeses      []optionResponse `json:"cheeses"`
	Extras       []optionResponse `json:"extras"`
	Descriptions []string         `json:"descriptions"`
	UnitPrice    string           `json:"unit_price"`
	LineTotal    string           `json:"line_total"`
}

type cartResponse struct {
	Items []lineItemResponse `json:"items"`
	Table string             `json:"table"`
	Total string             `json:"total"`
}

type orderResponse struct {
	ID         string             `json:"id"`
	Table      string             `json:"table"`
	TableLabel string             `json:"table_label"`
	CreatedAt  time.Time          `json:"created_at"`
	Status     string             `json:"status"`
	Served     bool               `json:"served"`
	Paid       bool               `json:"paid"`
	Total      string             `json:"total"`
	Items      []lineItemResponse `json:"items"`
}

func toOptionResponses(opts []model.PricedOption) []optionResponse {
	out := make([]optionResponse, len(opts))
	for i, o := range opts {
		out[i] = optionResponse{Name: o.Name, Price: pricing.Display(o.Price)}
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toMenuItemResponse(m model.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:           m.ID,
		Name:         m.Name,
		Price:        pricing.Display(m.Price),
		Image:        m.Image,
		Mode:         m.Mode,
		Available:    m.Available,
		Sauces:       orEmpty(m.Sauces),
		Flavors:      orEmpty(m.Flavors),
		Toppings:     orEmpty(m.Toppings),
		Cheeses:      toOptionResponses(m.Cheeses),
		Extras:       toOptionResponses(m.Extras),
		Descriptions: orEmpty(m.Descriptions),
	}
}

func toMenuResponses(items []model.MenuItem) []menuItemResponse {
	out := make([]menuItemResponse, len(items))
	for i, m := range items {
		out[i] = toMenuItemResponse(m)
	}
	return out
}

func toLineItemResponse(li model.LineItem) lineItemResponse {
	return lineItemResponse{
		LineID:       li.LineID,
		MenuItemID:   li.MenuItemID,
		Name:         li.Name,
		Mode:         li.Mode,
		Quantity:     li.Quantity,
		Price:        pricing.Display(li.Price),
		Sauces:       orEmpty(li.Sauces),
		Flavors:      orEmpty(li.Flavors),
		Toppings:     orEmpty(li.Toppings),
		Cheeses:      toOptionResponses(li.Cheeses),
		Extras:       toOptionResponses(li.Extras),
		Descriptions: orEmpty(li.Descriptions),
		UnitPrice:    pricing.Display(pricing.UnitPrice(li)),
		LineTotal:    pricing.Display(pricing.LineTotal(li)),
	}
}

func toLineItemResponses(items []model.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, len(items))
	for i, li := range items {
		out[i] = toLineItemResponse(li)
	}
	return out
}

func toCartResponse(v *service.CartView) cartResponse {
	return cartResponse{
		Items: toLineItemResponses(v.Items),
		Table: v.Table,
		Total: pricing.Display(v.Total),
	}
}

func toOrderResponse(o model.Order) orderResponse {
	return orderResponse{
		ID:         o.ID,
		Table:      o.Table,
		TableLabel: o.TableLabel(),
		CreatedAt:  o.CreatedAt,
		Status:     o.Status,
		Served:     o.Served,
		Paid:       o.Paid,
		Total:      pricing.Display(pricing.Total(o)),
		Items:      toLineItemResponses(o.Items),
	}
}

func toOrderResponses(orders []model.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

// MenuPayload renders a menu collection snapshot for the live feed.
func MenuPayload(docs []docstore.Document) any {
	return toMenuResponses(service.MenuFromSnapshot(docs))
}

// OrdersPayload renders an orders collection snapshot for the live feed,
// newest order first.
func OrdersPayload(docs []docstore.Document) any {
	return toOrderResponses(service.NewestFirst(service.OrdersFromSnapshot(docs)))
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode JSON response", zap.Error(err))
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, menu.ErrInvalidSelection) ||
		errors.Is(err, cart.ErrInvalidQuantity) ||
		errors.Is(err, cart.ErrIndexOutOfRange) ||
		errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrTableRequired) ||
		errors.Is(err, service.ErrNameRequired) ||
		errors.Is(err, service.ErrNegativePrice) ||
		errors.Is(err, service.ErrUnknownMode) ||
		errors.Is(err, service.ErrOptionNameRequired) ||
		errors.Is(err, service.ErrInvalidScope) ||
		errors.Is(err, service.ErrInvalidDate) ||
		errors.Is(err, service.ErrInvalidFilter) ||
		errors.Is(err, service.ErrInvalidDateSpan)
}

// writeServiceError maps a service error to its HTTP status. Unexpected
// errors are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrMenuItemNotFound), errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrMenuItemUnavailable), errors.Is(err, service.ErrNothingToMerge):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
