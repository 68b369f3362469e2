// Package pricing computes line-item and order totals.
//
// A line's unit price is its base price plus the per-unit prices of the
// chosen extras and cheeses. Sauces, flavors, toppings and descriptions never
// change the price. All sums are kept unrounded; Display rounds to two
// decimals for presentation only.
package pricing

import (
	"github.com/bunnybingsu/api/internal/model"
	"github.com/shopspring/decimal"
)

// NewLineItem builds a cart line for item from the shopper's selection.
// Options are looked up in the item's catalogs by name so that add-on prices
// always come from the menu; names not present in a catalog are dropped.
// The caller assigns LineID.
func NewLineItem(item model.MenuItem, quantity int, sel model.Selection) model.LineItem {
	sauces := sel.Sauces
	if len(sel.SauceSlots) > 0 {
		sauces = nil
		for _, s := range sel.SauceSlots {
			if s != "" {
				sauces = append(sauces, s)
			}
		}
	}

	cheeses := pickOptions(item.Cheeses, sel.Cheeses)
	extras := pickOptions(item.Extras, sel.Extras)

	return model.LineItem{
		MenuItemID:   item.ID,
		Name:         item.Name,
		Price:        item.Price,
		Mode:         item.Mode,
		Quantity:     quantity,
		Sauces:       pickNames(item.Sauces, sauces),
		Flavors:      pickNames(item.Flavors, sel.Flavors),
		Toppings:     pickNames(item.Toppings, sel.Toppings),
		Cheeses:      cheeses,
		Extras:       extras,
		Descriptions: pickNames(item.Descriptions, sel.Descriptions),
		ExtraPrice:   decimal.NewNullDecimal(sumOptions(extras)),
		CheesePrice:  decimal.NewNullDecimal(sumOptions(cheeses)),
	}
}

// ExtraPrice is the per-unit price of the line's extras. A stored extraPrice
// wins; otherwise the chosen extras are summed.
func ExtraPrice(li model.LineItem) decimal.Decimal {
	if li.ExtraPrice.Valid {
		return li.ExtraPrice.Decimal
	}
	return sumOptions(li.Extras)
}

// CheesePrice is the per-unit price of the line's cheeses, resolved like
// ExtraPrice.
func CheesePrice(li model.LineItem) decimal.Decimal {
	if li.CheesePrice.Valid {
		return li.CheesePrice.Decimal
	}
	return sumOptions(li.Cheeses)
}

// UnitPrice is base price + extras + cheeses.
func UnitPrice(li model.LineItem) decimal.Decimal {
	return li.Price.Add(ExtraPrice(li)).Add(CheesePrice(li))
}

// LineTotal is UnitPrice * quantity.
func LineTotal(li model.LineItem) decimal.Decimal {
	return UnitPrice(li).Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// ItemsTotal sums LineTotal over items.
func ItemsTotal(items []model.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(LineTotal(li))
	}
	return total
}

// OrderTotal computes the order total from its item snapshots.
func OrderTotal(o model.Order) decimal.Decimal {
	return ItemsTotal(o.Items)
}

// Total returns the persisted total when the order has one, and the computed
// OrderTotal otherwise.
func Total(o model.Order) decimal.Decimal {
	if o.Total.Valid {
		return o.Total.Decimal
	}
	return OrderTotal(o)
}

// Display renders an amount with two decimals.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func sumOptions(opts []model.PricedOption) decimal.Decimal {
	total := decimal.Zero
	for _, o := range opts {
		total = total.Add(o.Price)
	}
	return total
}

func pickNames(catalog, chosen []string) []string {
	out := []string{}
	for _, c := range chosen {
		for _, name := range catalog {
			if name == c {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func pickOptions(catalog []model.PricedOption, chosen []string) []model.PricedOption {
	out := []model.PricedOption{}
	for _, c := range chosen {
		for _, opt := range catalog {
			if opt.Name == c {
				out = append(out, opt)
				break
			}
		}
	}
	return out
}
