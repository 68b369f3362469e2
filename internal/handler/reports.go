package handler

import (
	"context"
	"net/http"

	"github.com/bunnybingsu/api/internal/pricing"
	"github.com/bunnybingsu/api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReportsServicer defines the service methods needed by report handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type ReportsServicer interface {
	Sales(ctx context.Context, date, filterName string) (*service.SalesReport, error)
	DailySales(ctx context.Context, start, end, filterName string) ([]pricing.DailyTotal, string, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	svc ReportsServicer
	log *zap.Logger
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(svc ReportsServicer, log *zap.Logger) *ReportsHandler {
	return &ReportsHandler{svc: svc, log: log}
}

// RegisterRoutes registers report endpoints.
// Expected to be mounted inside the admin subrouter: /admin/reports
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sales", h.Sales)
	r.Get("/daily", h.DailySales)
}

// --- Response types ---

type salesResponse struct {
	Date       string `json:"date,omitempty"`
	Filter     string `json:"filter"`
	OrderCount int    `json:"order_count"`
	Total      string `json:"total"`
}

type dailySalesRow struct {
	Date       string `json:"date"`
	OrderCount int    `json:"order_count"`
	Total      string `json:"total"`
}

type dailySalesResponse struct {
	StartDate string          `json:"start_date,omitempty"`
	EndDate   string          `json:"end_date,omitempty"`
	Filter    string          `json:"filter"`
	Days      []dailySalesRow `json:"days"`
}

// --- Handlers ---

// Sales totals sales for ?date=YYYY-MM-DD (all time when absent) using
// ?filter= (the configured default when absent).
func (h *ReportsHandler) Sales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.svc.Sales(r.Context(), q.Get("date"), q.Get("filter"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, salesResponse{
		Date:       report.Date,
		Filter:     report.Filter,
		OrderCount: report.OrderCount,
		Total:      pricing.Display(report.Total),
	})
}

// DailySales breaks sales down per calendar date between ?start_date= and
// ?end_date=, both optional and inclusive.
func (h *ReportsHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start_date"), q.Get("end_date")
	rows, filter, err := h.svc.DailySales(r.Context(), start, end, q.Get("filter"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	days := make([]dailySalesRow, len(rows))
	for i, row := range rows {
		days[i] = dailySalesRow{Date: row.Date, OrderCount: row.OrderCount, Total: pricing.Display(row.Total)}
	}
	writeJSON(w, http.StatusOK, dailySalesResponse{StartDate: start, EndDate: end, Filter: filter, Days: days})
}
