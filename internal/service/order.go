package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bunnybingsu/api/internal/docstore"
	"github.com/bunnybingsu/api/internal/enum"
	"github.com/bunnybingsu/api/internal/model"
	"github.com/bunnybingsu/api/internal/pricing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Errors returned by the order service.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrNothingToMerge  = errors.New("fewer than two unpaid orders for table")
	ErrInvalidScope    = errors.New("invalid scope")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidFilter   = errors.New("invalid sales filter")
	ErrInvalidDateSpan = errors.New("start_date must not be after end_date")
)

// Clear-history scopes.
const (
	ScopeAll    = "all"
	ScopeServed = "served"
	ScopePaid   = "paid"
	ScopeDate   = "date"
)

// MergeError reports a merge that stopped part way. The survivor may
// already hold the merged items while some of the other orders still exist.
type MergeError struct {
	Table      string
	SurvivorID string
	// SurvivorUpdated is false when the merged item list was never written;
	// in that case no order was deleted.
	SurvivorUpdated bool
	Deleted         []string
	Remaining       []string
	Err             error
}

func (e *MergeError) Error() string {
	if !e.SurvivorUpdated {
		return fmt.Sprintf("merge table %s: update order %s: %v", e.Table, e.SurvivorID, e.Err)
	}
	return fmt.Sprintf("merge table %s: order %s updated but %d order(s) not deleted (%s): %v",
		e.Table, e.SurvivorID, len(e.Remaining), strings.Join(e.Remaining, ", "), e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// OrderService handles the staff-side order lifecycle and sales reports.
type OrderService struct {
	docs       Documents
	filterName string
	loc        *time.Location
	log        *zap.Logger
}

// NewOrderService creates a new OrderService. salesFilter names the filter
// reports use when the caller does not pick one; loc is the time zone that
// defines an order's calendar date.
func NewOrderService(docs Documents, salesFilter string, loc *time.Location, log *zap.Logger) (*OrderService, error) {
	if _, err := pricing.ParseFilter(salesFilter); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &OrderService{docs: docs, filterName: salesFilter, loc: loc, log: log.Named("orders")}, nil
}

// Location is the time zone used for calendar dates.
func (s *OrderService) Location() *time.Location { return s.loc }

// List returns every order, newest first.
func (s *OrderService) List(ctx context.Context) ([]model.Order, error) {
	orders, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return NewestFirst(orders), nil
}

// ListByCustomer returns the orders placed from one device, newest first.
func (s *OrderService) ListByCustomer(ctx context.Context, customerKey string) ([]model.Order, error) {
	if customerKey == "" {
		return []model.Order{}, nil
	}
	orders, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	mine := []model.Order{}
	for _, o := range orders {
		if o.CustomerKey == customerKey {
			mine = append(mine, o)
		}
	}
	return NewestFirst(mine), nil
}

// OrdersFromSnapshot decodes an orders collection snapshot.
func OrdersFromSnapshot(docs []docstore.Document) []model.Order {
	orders := make([]model.Order, len(docs))
	for i, d := range docs {
		orders[i] = model.OrderFromDocument(d)
	}
	return orders
}

// NewestFirst sorts orders by creation time, newest first, in place.
func NewestFirst(orders []model.Order) []model.Order {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (s *OrderService) listAll(ctx context.Context) ([]model.Order, error) {
	docs, err := s.docs.ListAll(ctx, enum.CollectionOrders)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return OrdersFromSnapshot(docs), nil
}

// Get returns one order or ErrOrderNotFound.
func (s *OrderService) Get(ctx context.Context, id string) (*model.Order, error) {
	doc, err := s.docs.GetByID(ctx, enum.CollectionOrders, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if doc == nil {
		return nil, ErrOrderNotFound
	}
	o := model.OrderFromDocument(*doc)
	return &o, nil
}

func (s *OrderService) update(ctx context.Context, id string, partial map[string]any) (*model.Order, error) {
	if err := s.docs.Update(ctx, enum.CollectionOrders, id, partial); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return s.Get(ctx, id)
}

// SetServed sets the served flag. Served is reversible.
func (s *OrderService) SetServed(ctx context.Context, id string, served bool) (*model.Order, error) {
	return s.update(ctx, id, map[string]any{model.FieldServed: served})
}

// MarkServed sets served to true.
func (s *OrderService) MarkServed(ctx context.Context, id string) (*model.Order, error) {
	return s.SetServed(ctx, id, true)
}

// ToggleServed flips the served flag.
func (s *OrderService) ToggleServed(ctx context.Context, id string) (*model.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SetServed(ctx, id, !o.Served)
}

// MarkPaid sets paid to true. There is no way back to unpaid; marking a
// paid order again is a no-op.
func (s *OrderService) MarkPaid(ctx context.Context, id string) (*model.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Paid {
		return o, nil
	}
	return s.update(ctx, id, map[string]any{model.FieldPaid: true})
}

// Complete moves a pending order to completed. Completing a completed order
// is a no-op.
func (s *OrderService) Complete(ctx context.Context, id string) (*model.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == enum.OrderStatusCompleted {
		return o, nil
	}
	return s.update(ctx, id, map[string]any{model.FieldStatus: enum.OrderStatusCompleted})
}

// ChangeTable moves an order to another table. An empty table leaves the
// order without one.
func (s *OrderService) ChangeTable(ctx context.Context, id, table string) (*model.Order, error) {
	return s.update(ctx, id, map[string]any{model.FieldTable: strings.TrimSpace(table)})
}

// Delete removes an order. Deleting a missing order succeeds so that the
// call is safe to retry.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, enum.CollectionOrders, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	s.log.Info("order deleted", zap.String("order_id", id))
	return nil
}

// HistoryPredicate builds the clear-history predicate for scope. date is
// only used by ScopeDate.
func (s *OrderService) HistoryPredicate(scope, date string) (pricing.Filter, error) {
	switch scope {
	case ScopeAll:
		return pricing.AllOrders, nil
	case ScopeServed:
		return pricing.ServedOnly, nil
	case ScopePaid:
		return pricing.PaidOnly, nil
	case ScopeDate:
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, ErrInvalidDate
		}
		return pricing.OnDate(date, s.loc), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
}

// ClearHistory deletes every order matched by pred and returns how many
// were deleted. It keeps going after a failed delete and reports all
// failures together.
func (s *OrderService) ClearHistory(ctx context.Context, pred pricing.Filter) (int, error) {
	orders, err := s.listAll(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	var errs []error
	for _, o := range orders {
		if !pred(o) {
			continue
		}
		if err := s.docs.Delete(ctx, enum.CollectionOrders, o.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete order %s: %w", o.ID, err))
			continue
		}
		deleted++
	}
	s.log.Info("order history cleared", zap.Int("deleted", deleted), zap.Int("failed", len(errs)))
	return deleted, errors.Join(errs...)
}

// MergeTable folds every unpaid order of table into the oldest one. The
// survivor gets all item lists concatenated in creation order and a total
// equal to the sum of the merged orders' totals; the other orders are then
// deleted. With fewer than two unpaid orders nothing is written and
// ErrNothingToMerge is returned. A failure part way returns *MergeError;
// the survivor records the merged order ids, so calling MergeTable again
// finishes the deletes without merging those orders twice.
func (s *OrderService) MergeTable(ctx context.Context, table string) (*model.Order, error) {
	table = strings.TrimSpace(table)
	orders, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}

	// Orders already merged into another one are leftovers of an earlier
	// merge that stopped part way; they are deleted without being merged again.
	absorbed := map[string]bool{}
	for _, o := range orders {
		for _, id := range o.MergedFrom {
			absorbed[id] = true
		}
	}

	var open, stale []model.Order
	for _, o := range orders {
		if o.Table != table || o.Paid {
			continue
		}
		if absorbed[o.ID] {
			stale = append(stale, o)
			continue
		}
		open = append(open, o)
	}
	if len(open) == 0 || (len(open) < 2 && len(stale) == 0) {
		return nil, fmt.Errorf("%w %q", ErrNothingToMerge, table)
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].CreatedAt.Before(open[j].CreatedAt) })

	survivor := open[0]
	if len(open) > 1 {
		items := []model.LineItem{}
		total := decimal.Zero
		mergedFrom := append([]string{}, survivor.MergedFrom...)
		for i, o := range open {
			for _, li := range o.Items {
				items = append(items, li.Clone())
			}
			total = total.Add(pricing.Total(o))
			if i > 0 {
				mergedFrom = append(mergedFrom, o.ID)
			}
		}

		err = s.docs.Update(ctx, enum.CollectionOrders, survivor.ID, map[string]any{
			model.FieldItems:      model.ItemsData(items),
			model.FieldTotal:      total.InexactFloat64(),
			model.FieldMergedFrom: model.StringsData(mergedFrom),
		})
		if err != nil {
			return nil, &MergeError{Table: table, SurvivorID: survivor.ID, Err: err}
		}
	}

	merr := &MergeError{Table: table, SurvivorID: survivor.ID, SurvivorUpdated: true}
	var errs []error
	leftovers := append(append([]model.Order{}, open[1:]...), stale...)
	for _, o := range leftovers {
		if err := s.docs.Delete(ctx, enum.CollectionOrders, o.ID); err != nil {
			merr.Remaining = append(merr.Remaining, o.ID)
			errs = append(errs, fmt.Errorf("delete order %s: %w", o.ID, err))
			continue
		}
		merr.Deleted = append(merr.Deleted, o.ID)
	}
	if len(errs) > 0 {
		merr.Err = errors.Join(errs...)
		s.log.Error("merge table incomplete", zap.String("table", table), zap.Error(merr))
		return nil, merr
	}

	s.log.Info("orders merged",
		zap.String("table", table),
		zap.String("survivor", survivor.ID),
		zap.Strings("deleted", merr.Deleted),
	)
	return s.Get(ctx, survivor.ID)
}

// SalesReport is a sales aggregate.
type SalesReport struct {
	// Date is empty for an all-time report.
	Date       string
	Filter     string
	OrderCount int
	Total      decimal.Decimal
}

func (s *OrderService) filter(name string) (string, pricing.Filter, error) {
	if name == "" {
		name = s.filterName
	}
	f, err := pricing.ParseFilter(name)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidFilter, name)
	}
	return name, f, nil
}

// Sales totals the orders accepted by the named filter (the configured
// default when empty), restricted to one calendar date when date is set.
func (s *OrderService) Sales(ctx context.Context, date, filterName string) (*SalesReport, error) {
	name, f, err := s.filter(filterName)
	if err != nil {
		return nil, err
	}
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, ErrInvalidDate
		}
		f = pricing.And(pricing.OnDate(date, s.loc), f)
	}
	orders, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &SalesReport{Date: date, Filter: name, Total: pricing.SalesTotal(orders, f)}
	for _, o := range orders {
		if f(o) {
			report.OrderCount++
		}
	}
	return report, nil
}

// DailySales breaks the filtered sales down per calendar date between
// start and end inclusive. Either bound may be empty.
func (s *OrderService) DailySales(ctx context.Context, start, end, filterName string) ([]pricing.DailyTotal, string, error) {
	name, f, err := s.filter(filterName)
	if err != nil {
		return nil, "", err
	}
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, "", ErrInvalidDate
		}
	}
	if start != "" && end != "" && start > end {
		return nil, "", ErrInvalidDateSpan
	}

	orders, err := s.listAll(ctx)
	if err != nil {
		return nil, "", err
	}
	rows := pricing.DailySales(orders, s.loc, f)
	out := []pricing.DailyTotal{}
	for _, r := range rows {
		if (start == "" || r.Date >= start) && (end == "" || r.Date <= end) {
			out = append(out, r)
		}
	}
	return out, name, nil
}
