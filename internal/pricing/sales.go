package pricing

import (
	"fmt"
	"sort"
	"time"

	"github.com/bunnybingsu/api/internal/enum"
	"github.com/bunnybingsu/api/internal/model"
	"github.com/shopspring/decimal"
)

// Filter decides whether an order counts towards a sales aggregate.
type Filter func(o model.Order) bool

// AllOrders counts every order.
func AllOrders(model.Order) bool { return true }

// ServedOnly counts orders that were served.
func ServedOnly(o model.Order) bool { return o.Served }

// PaidOnly counts orders that were paid.
func PaidOnly(o model.Order) bool { return o.Paid }

// ServedAndPaid counts orders that were both served and paid.
func ServedAndPaid(o model.Order) bool { return o.Served && o.Paid }

// ParseFilter maps a configuration value to a Filter.
func ParseFilter(name string) (Filter, error) {
	switch name {
	case enum.SalesFilterAll:
		return AllOrders, nil
	case enum.SalesFilterServed:
		return ServedOnly, nil
	case enum.SalesFilterPaid:
		return PaidOnly, nil
	case enum.SalesFilterServedAndPaid:
		return ServedAndPaid, nil
	}
	return nil, fmt.Errorf("unknown sales filter %q", name)
}

// OnDate matches orders whose creation time falls on the calendar day date
// (YYYY-MM-DD) in loc.
func OnDate(date string, loc *time.Location) Filter {
	return func(o model.Order) bool {
		return CalendarDate(o.CreatedAt, loc) == date
	}
}

// And matches orders accepted by every filter.
func And(filters ...Filter) Filter {
	return func(o model.Order) bool {
		for _, f := range filters {
			if !f(o) {
				return false
			}
		}
		return true
	}
}

// CalendarDate formats t as YYYY-MM-DD in loc.
func CalendarDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// SalesTotal sums Total over the orders accepted by filter.
func SalesTotal(orders []model.Order, filter Filter) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if filter(o) {
			total = total.Add(Total(o))
		}
	}
	return total
}

// DailyTotal is one row of a per-day sales breakdown.
type DailyTotal struct {
	Date       string
	OrderCount int
	Total      decimal.Decimal
}

// DailySales groups the orders accepted by filter by calendar date in loc,
// oldest day first.
func DailySales(orders []model.Order, loc *time.Location, filter Filter) []DailyTotal {
	byDate := map[string]*DailyTotal{}
	for _, o := range orders {
		if !filter(o) {
			continue
		}
		date := CalendarDate(o.CreatedAt, loc)
		row, ok := byDate[date]
		if !ok {
			row = &DailyTotal{Date: date, Total: decimal.Zero}
			byDate[date] = row
		}
		row.OrderCount++
		row.Total = row.Total.Add(Total(o))
	}

	out := make([]DailyTotal, 0, len(byDate))
	for _, row := range byDate {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
