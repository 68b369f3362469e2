package model

import (
	"encoding/json"
	"strconv"

	"github.com/bunnybingsu/api/internal/docstore"
	"github.com/shopspring/decimal"
)

// Document field names. They match what the storefront has always written,
// so documents created before this service existed still decode.
const (
	fieldName         = "name"
	fieldPrice        = "price"
	fieldImage        = "image"
	fieldMode         = "mode"
	fieldAvailable    = "available"
	fieldSauces       = "sauces"
	fieldFlavors      = "flavors"
	fieldToppings     = "toppings"
	fieldCheeses      = "cheeses"
	fieldExtras       = "extras"
	fieldDescriptions = "descriptions"

	fieldID          = "id"
	fieldLineID      = "lineId"
	fieldQuantity    = "quantity"
	fieldExtraPrice  = "extraPrice"
	fieldCheesePrice = "cheesePrice"

	FieldTable       = "table"
	FieldItems       = "items"
	FieldStatus      = "status"
	FieldServed      = "served"
	FieldPaid        = "paid"
	FieldCustomerKey = "customerKey"
	FieldTotal       = "total"
	FieldMergedFrom  = "mergedFrom"
)

// MenuItemFromDocument decodes a menu document. Missing or malformed fields
// take their zero value; missing add-on lists become empty.
func MenuItemFromDocument(doc docstore.Document) MenuItem {
	d := doc.Data
	return MenuItem{
		ID:           doc.ID,
		Name:         asString(d[fieldName]),
		Price:        asDecimal(d[fieldPrice]).Decimal,
		Image:        asString(d[fieldImage]),
		Mode:         asString(d[fieldMode]),
		Available:    asBool(d[fieldAvailable]),
		Sauces:       asStrings(d[fieldSauces]),
		Flavors:      asStrings(d[fieldFlavors]),
		Toppings:     asStrings(d[fieldToppings]),
		Cheeses:      asOptions(d[fieldCheeses]),
		Extras:       asOptions(d[fieldExtras]),
		Descriptions: asStrings(d[fieldDescriptions]),
	}
}

// Data encodes the menu item for storage. The ID is not part of the data.
func (m MenuItem) Data() map[string]any {
	return map[string]any{
		fieldName:         m.Name,
		fieldPrice:        m.Price.InexactFloat64(),
		fieldImage:        m.Image,
		fieldMode:         m.Mode,
		fieldAvailable:    m.Available,
		fieldSauces:       StringsData(m.Sauces),
		fieldFlavors:      StringsData(m.Flavors),
		fieldToppings:     StringsData(m.Toppings),
		fieldCheeses:      optionsData(m.Cheeses),
		fieldExtras:       optionsData(m.Extras),
		fieldDescriptions: StringsData(m.Descriptions),
	}
}

// LineItemFromData decodes one entry of an order's items list.
func LineItemFromData(v any) LineItem {
	d, _ := v.(map[string]any)
	qty := asInt(d[fieldQuantity])
	return LineItem{
		LineID:       asString(d[fieldLineID]),
		MenuItemID:   asString(d[fieldID]),
		Name:         asString(d[fieldName]),
		Price:        asDecimal(d[fieldPrice]).Decimal,
		Mode:         asString(d[fieldMode]),
		Quantity:     qty,
		Sauces:       asStrings(d[fieldSauces]),
		Flavors:      asStrings(d[fieldFlavors]),
		Toppings:     asStrings(d[fieldToppings]),
		Cheeses:      asOptions(d[fieldCheeses]),
		Extras:       asOptions(d[fieldExtras]),
		Descriptions: asStrings(d[fieldDescriptions]),
		ExtraPrice:   asDecimal(d[fieldExtraPrice]),
		CheesePrice:  asDecimal(d[fieldCheesePrice]),
	}
}

// Data encodes the line item for storage inside an order document.
func (li LineItem) Data() map[string]any {
	d := map[string]any{
		fieldLineID:       li.LineID,
		fieldID:           li.MenuItemID,
		fieldName:         li.Name,
		fieldPrice:        li.Price.InexactFloat64(),
		fieldMode:         li.Mode,
		fieldQuantity:     li.Quantity,
		fieldSauces:       StringsData(li.Sauces),
		fieldFlavors:      StringsData(li.Flavors),
		fieldToppings:     StringsData(li.Toppings),
		fieldCheeses:      optionsData(li.Cheeses),
		fieldExtras:       optionsData(li.Extras),
		fieldDescriptions: StringsData(li.Descriptions),
	}
	if li.ExtraPrice.Valid {
		d[fieldExtraPrice] = li.ExtraPrice.Decimal.InexactFloat64()
	}
	if li.CheesePrice.Valid {
		d[fieldCheesePrice] = li.CheesePrice.Decimal.InexactFloat64()
	}
	return d
}

// ItemsData encodes an item list for storage.
func ItemsData(items []LineItem) []any {
	out := make([]any, len(items))
	for i, li := range items {
		out[i] = li.Data()
	}
	return out
}

// OrderFromDocument decodes an order document.
func OrderFromDocument(doc docstore.Document) Order {
	d := doc.Data
	raw, _ := d[FieldItems].([]any)
	items := make([]LineItem, len(raw))
	for i, v := range raw {
		items[i] = LineItemFromData(v)
	}
	return Order{
		ID:          doc.ID,
		Table:       asString(d[FieldTable]),
		CreatedAt:   doc.CreatedAt,
		Items:       items,
		Status:      asString(d[FieldStatus]),
		Served:      asBool(d[FieldServed]),
		Paid:        asBool(d[FieldPaid]),
		CustomerKey: asString(d[FieldCustomerKey]),
		Total:       asDecimal(d[FieldTotal]),
		MergedFrom:  asStrings(d[FieldMergedFrom]),
	}
}

// Data encodes the order for storage. ID and CreatedAt are store-assigned.
func (o Order) Data() map[string]any {
	d := map[string]any{
		FieldTable:       o.Table,
		FieldItems:       ItemsData(o.Items),
		FieldStatus:      o.Status,
		FieldServed:      o.Served,
		FieldPaid:        o.Paid,
		FieldCustomerKey: o.CustomerKey,
	}
	if o.Total.Valid {
		d[FieldTotal] = o.Total.Decimal.InexactFloat64()
	}
	if len(o.MergedFrom) > 0 {
		d[FieldMergedFrom] = StringsData(o.MergedFrom)
	}
	return d
}

// --- Permissive decoding helpers ---

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	}
	return 0
}

// asDecimal reads a number (or numeric string). Anything else is invalid.
func asDecimal(v any) decimal.NullDecimal {
	switch t := v.(type) {
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(t))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(t)))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(t))
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return decimal.NewNullDecimal(d)
		}
	case string:
		if d, err := decimal.NewFromString(t); err == nil {
			return decimal.NewNullDecimal(d)
		}
	}
	return decimal.NullDecimal{}
}

func asStrings(v any) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asOptions(v any) []PricedOption {
	raw, _ := v.([]any)
	out := make([]PricedOption, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, PricedOption{
			Name:  asString(m[fieldName]),
			Price: asDecimal(m[fieldPrice]).Decimal,
		})
	}
	return out
}

// StringsData encodes a string list as a document value.
func StringsData(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func optionsData(in []PricedOption) []any {
	out := make([]any, len(in))
	for i, o := range in {
		out[i] = map[string]any{
			fieldName:  o.Name,
			fieldPrice: o.Price.InexactFloat64(),
		}
	}
	return out
}
