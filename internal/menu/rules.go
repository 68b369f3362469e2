// Package menu holds the per-category (mode) customization rules: which
// add-on families a menu item offers, how many options a shopper may pick
// from each, and which families must be chosen before the item can go into
// the cart.
package menu

import (
	"github.com/bunnybingsu/api/internal/enum"
)

// Arity is how many options of a family a shopper may pick.
type Arity int

const (
	// ArityNone hides the family.
	ArityNone Arity = iota
	// AritySingle allows zero or one option.
	AritySingle
	// ArityMulti allows any number of options, up to Picker.Max when set.
	ArityMulti
)

func (a Arity) String() string {
	switch a {
	case AritySingle:
		return "single"
	case ArityMulti:
		return "multi"
	}
	return "none"
}

// MarshalText renders the arity as its name in API responses.
func (a Arity) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Picker describes one add-on family picker.
type Picker struct {
	Arity Arity `json:"arity"`
	// Max caps a multi-select picker; 0 means uncapped.
	Max int `json:"max,omitempty"`
	// Required pickers must have a selection whenever the item offers at
	// least one option for the family.
	Required bool `json:"required"`
}

// Shown reports whether the picker is displayed.
func (p Picker) Shown() bool { return p.Arity != ArityNone }

// Limit is the largest number of options the picker accepts, or 0 when
// uncapped.
func (p Picker) Limit() int {
	switch p.Arity {
	case ArityNone:
		return 0
	case AritySingle:
		return 1
	}
	return p.Max
}

// Rules is the picker layout for one mode.
type Rules struct {
	Mode        string `json:"mode"`
	Sauce       Picker `json:"sauce"`
	Flavor      Picker `json:"flavor"`
	Topping     Picker `json:"topping"`
	Cheese      Picker `json:"cheese"`
	Extra       Picker `json:"extra"`
	Description Picker `json:"description"`
	// SauceSlots replaces the sauce picker with that many independent
	// single-select pickers, one per sub-item (base, bread).
	SauceSlots int `json:"sauce_slots,omitempty"`
}

var (
	optional = func(a Arity, max int) Picker { return Picker{Arity: a, Max: max} }
	required = func(a Arity, max int) Picker { return Picker{Arity: a, Max: max, Required: true} }
)

var modeRules = map[string]Rules{
	enum.ModeShavedIce: {Sauce: optional(AritySingle, 0)},
	enum.ModeToast:     {Sauce: optional(AritySingle, 0)},
	enum.ModeCombo: {
		Sauce:      required(AritySingle, 0),
		SauceSlots: 2,
		Flavor:     required(AritySingle, 0),
	},
	enum.ModeTwister: {
		Sauce:   required(ArityMulti, 2),
		Flavor:  required(AritySingle, 0),
		Topping: required(ArityMulti, 3),
	},
	enum.ModeSmoothie:  {Extra: optional(ArityMulti, 0)},
	enum.ModeJuice:     {Extra: optional(ArityMulti, 0)},
	enum.ModeFries:     {Cheese: required(ArityMulti, 0)},
	enum.ModeSpaghetti: {Description: optional(ArityMulti, 0)},
	enum.ModeTopping:   {},
	enum.ModeSoda:      {},
	enum.ModeCake:      {},
}

// For returns the rules for mode. Unknown modes, including the empty mode,
// get the default layout: an optional sauce multi-select.
func For(mode string) Rules {
	r, ok := modeRules[mode]
	if !ok {
		r = Rules{Sauce: optional(ArityMulti, 0)}
	}
	r.Mode = mode
	return r
}

// Modes lists every mode with dedicated rules.
func Modes() []string {
	return []string{
		enum.ModeShavedIce,
		enum.ModeToast,
		enum.ModeTwister,
		enum.ModeCombo,
		enum.ModeJuice,
		enum.ModeSmoothie,
		enum.ModeFries,
		enum.ModeSoda,
		enum.ModeTopping,
		enum.ModeCake,
		enum.ModeSpaghetti,
	}
}

// Known reports whether mode is the default mode or has dedicated rules.
func Known(mode string) bool {
	if mode == enum.ModeDefault {
		return true
	}
	_, ok := modeRules[mode]
	return ok
}
