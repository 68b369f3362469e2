package model

import (
	"time"

	"github.com/bunnybingsu/api/internal/enum"
	"github.com/shopspring/decimal"
)

// PricedOption is a named add-on with a per-unit price (cheeses, extras).
type PricedOption struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// MenuItem is an entry of the menu collection.
type MenuItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Mode         string          `json:"mode"`
	Available    bool            `json:"available"`
	Sauces       []string        `json:"sauces"`
	Flavors      []string        `json:"flavors"`
	Toppings     []string        `json:"toppings"`
	Cheeses      []PricedOption  `json:"cheeses"`
	Extras       []PricedOption  `json:"extras"`
	Descriptions []string        `json:"descriptions"`
}

// Selection is what a shopper picked while customizing a menu item.
// Options are referenced by name. SauceSlots is used instead of Sauces by
// modes that ask for one sauce per sub-item (slot order is significant,
// an empty string means the slot was left unselected).
type Selection struct {
	Sauces       []string `json:"sauces"`
	SauceSlots   []string `json:"sauce_slots,omitempty"`
	Flavors      []string `json:"flavors"`
	Toppings     []string `json:"toppings"`
	Cheeses      []string `json:"cheeses"`
	Extras       []string `json:"extras"`
	Descriptions []string `json:"descriptions"`
}

// LineItem is one cart row, and later one entry of an order's item list.
//
// ExtraPrice and CheesePrice are the per-unit sums of the chosen extras and
// cheeses. They are invalid for legacy documents that never stored them, in
// which case the sums are derived from Extras and Cheeses.
type LineItem struct {
	LineID       string              `json:"line_id"`
	MenuItemID   string              `json:"id"`
	Name         string              `json:"name"`
	Price        decimal.Decimal     `json:"price"`
	Mode         string              `json:"mode"`
	Quantity     int                 `json:"quantity"`
	Sauces       []string            `json:"sauces"`
	Flavors      []string            `json:"flavors"`
	Toppings     []string            `json:"toppings"`
	Cheeses      []PricedOption      `json:"cheeses"`
	Extras       []PricedOption      `json:"extras"`
	Descriptions []string            `json:"descriptions"`
	ExtraPrice   decimal.NullDecimal `json:"extra_price"`
	CheesePrice  decimal.NullDecimal `json:"cheese_price"`
}

// Clone returns a deep copy so that order snapshots never share slices with
// the cart they were taken from.
func (li LineItem) Clone() LineItem {
	out := li
	out.Sauces = cloneStrings(li.Sauces)
	out.Flavors = cloneStrings(li.Flavors)
	out.Toppings = cloneStrings(li.Toppings)
	out.Descriptions = cloneStrings(li.Descriptions)
	out.Cheeses = cloneOptions(li.Cheeses)
	out.Extras = cloneOptions(li.Extras)
	return out
}

// Order is a placed order.
type Order struct {
	ID          string
	Table       string
	CreatedAt   time.Time
	Items       []LineItem
	Status      string
	Served      bool
	Paid        bool
	CustomerKey string
	// Total is the persisted total; invalid when the document has none.
	Total decimal.NullDecimal
	// MergedFrom lists the orders whose items were merged into this one.
	MergedFrom []string
}

// TableLabel returns the table for display, or the "No table" sentinel.
func (o Order) TableLabel() string {
	if o.Table == "" {
		return enum.NoTableLabel
	}
	return o.Table
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneOptions(in []PricedOption) []PricedOption {
	if in == nil {
		return []PricedOption{}
	}
	out := make([]PricedOption, len(in))
	copy(out, in)
	return out
}
