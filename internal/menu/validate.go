package menu

import (
	"errors"
	"fmt"

	"github.com/bunnybingsu/api/internal/enum"
	"github.com/bunnybingsu/api/internal/model"
)

// ErrInvalidSelection is wrapped by every SelectionError.
var ErrInvalidSelection = errors.New("invalid selection")

// SelectionError rejects a customization. Family names the add-on family
// at fault.
type SelectionError struct {
	Family  string
	Message string
}

func (e *SelectionError) Error() string { return e.Message }

func (e *SelectionError) Unwrap() error { return ErrInvalidSelection }

func selectionErr(family, format string, args ...any) *SelectionError {
	return &SelectionError{Family: family, Message: fmt.Sprintf(format, args...)}
}

// Validate checks sel against the rules for item's mode. It rejects a
// required family left empty while the item offers options for it, more
// picks than a picker allows, picks from hidden families and names that are
// not in the item's catalog.
func Validate(item model.MenuItem, sel model.Selection) error {
	r := For(item.Mode)

	if r.SauceSlots > 0 {
		if err := validateSlots(r, item.Sauces, sel); err != nil {
			return err
		}
	} else {
		if len(sel.SauceSlots) > 0 {
			return selectionErr(enum.FamilySauce, "%s does not take per-part sauces", item.Name)
		}
		if err := validateFamily(enum.FamilySauce, r.Sauce, item.Sauces, sel.Sauces); err != nil {
			return err
		}
	}

	checks := []struct {
		family  string
		picker  Picker
		catalog []string
		chosen  []string
	}{
		{enum.FamilyFlavor, r.Flavor, item.Flavors, sel.Flavors},
		{enum.FamilyTopping, r.Topping, item.Toppings, sel.Toppings},
		{enum.FamilyCheese, r.Cheese, optionNames(item.Cheeses), sel.Cheeses},
		{enum.FamilyExtra, r.Extra, optionNames(item.Extras), sel.Extras},
		{enum.FamilyDescription, r.Description, item.Descriptions, sel.Descriptions},
	}
	for _, c := range checks {
		if err := validateFamily(c.family, c.picker, c.catalog, c.chosen); err != nil {
			return err
		}
	}
	return nil
}

func validateFamily(family string, p Picker, catalog, chosen []string) error {
	if !p.Shown() {
		if len(chosen) > 0 {
			return selectionErr(family, "%s options are not available for this item", family)
		}
		return nil
	}
	if p.Required && len(catalog) > 0 && len(chosen) == 0 {
		return selectionErr(family, "please select a %s", family)
	}
	if limit := p.Limit(); limit > 0 && len(chosen) > limit {
		if limit == 1 {
			return selectionErr(family, "only one %s may be selected", family)
		}
		return selectionErr(family, "at most %d %s options may be selected", limit, family)
	}
	seen := make(map[string]bool, len(chosen))
	for _, name := range chosen {
		if !contains(catalog, name) {
			return selectionErr(family, "unknown %s %q", family, name)
		}
		if seen[name] {
			return selectionErr(family, "%s %q selected twice", family, name)
		}
		seen[name] = true
	}
	return nil
}

// validateSlots checks the per-part sauce pickers. A plain Sauces list is
// accepted in place of slots so older clients keep working.
func validateSlots(r Rules, catalog []string, sel model.Selection) error {
	slots := sel.SauceSlots
	if len(slots) == 0 && len(sel.Sauces) > 0 {
		slots = sel.Sauces
	}
	if len(slots) > r.SauceSlots {
		return selectionErr(enum.FamilySauce, "at most %d sauces may be selected", r.SauceSlots)
	}
	if len(catalog) == 0 {
		for _, s := range slots {
			if s != "" {
				return selectionErr(enum.FamilySauce, "unknown sauce %q", s)
			}
		}
		return nil
	}
	for i := 0; i < r.SauceSlots; i++ {
		var name string
		if i < len(slots) {
			name = slots[i]
		}
		if name == "" {
			if r.Sauce.Required {
				return selectionErr(enum.FamilySauce, "please select a sauce for part %d", i+1)
			}
			continue
		}
		if !contains(catalog, name) {
			return selectionErr(enum.FamilySauce, "unknown sauce %q", name)
		}
	}
	return nil
}

func optionNames(opts []model.PricedOption) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Name
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
