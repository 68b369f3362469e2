// Package cart is a shopper's session state: the cart rows, the chosen
// table number and the device's customer key. A Session is loaded from the
// device's storage and writes itself back after every mutation; when the
// write fails the in-memory state is rolled back so it never drifts from
// what is stored.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/bunnybingsu/api/internal/enum"
	"github.com/bunnybingsu/api/internal/model"
	"github.com/bunnybingsu/api/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrIndexOutOfRange = errors.New("cart index out of range")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrUnknownPolicy   = errors.New("unknown cart policy")
)

// ValidPolicy reports whether p names a supported aggregation policy.
func ValidPolicy(p string) bool {
	switch p {
	case enum.CartPolicyUnique, enum.CartPolicyAppend, enum.CartPolicyMerge:
		return true
	}
	return false
}

// Session is one device's cart state. It is not safe for concurrent use;
// callers serialize access per device.
type Session struct {
	kv     storage.KV
	policy string
	newID  func() string

	items       []model.LineItem
	table       string
	customerKey string
}

// Option configures a Session.
type Option func(*Session)

// WithIDGenerator overrides how line IDs and customer keys are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// Load reads the session from kv. A missing or unreadable cart entry loads
// as an empty cart. policy selects how Add treats a row identical to an
// existing one.
func Load(ctx context.Context, kv storage.KV, policy string, opts ...Option) (*Session, error) {
	if !ValidPolicy(policy) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
	s := &Session{
		kv:     kv,
		policy: policy,
		newID:  uuid.NewString,
		items:  []model.LineItem{},
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, ok, err := kv.Get(ctx, enum.StorageKeyCart)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if ok && raw != "" {
		var items []model.LineItem
		if err := json.Unmarshal([]byte(raw), &items); err == nil && items != nil {
			s.items = items
		}
	}

	if s.table, _, err = kv.Get(ctx, enum.StorageKeyTableNumber); err != nil {
		return nil, fmt.Errorf("load table number: %w", err)
	}
	if s.customerKey, _, err = kv.Get(ctx, enum.StorageKeyCustomerKey); err != nil {
		return nil, fmt.Errorf("load customer key: %w", err)
	}
	return s, nil
}

// Items returns a copy of the cart rows.
func (s *Session) Items() []model.LineItem {
	out := make([]model.LineItem, len(s.items))
	for i, li := range s.items {
		out[i] = li.Clone()
	}
	return out
}

// Len is the number of cart rows.
func (s *Session) Len() int { return len(s.items) }

// Table is the chosen table number, empty when none was chosen.
func (s *Session) Table() string { return s.table }

// Policy is the aggregation policy the session was loaded with.
func (s *Session) Policy() string { return s.policy }

// Add puts li into the cart and returns the index of the row that holds it.
//
// Under the unique policy every call creates a new row with a fresh line ID,
// even when an identical row exists. The append policy also always appends
// but keeps li's LineID when set. The merge policy adds li's quantity to
// the first row with the same menu item, sauces, flavors and extras.
func (s *Session) Add(ctx context.Context, li model.LineItem) (int, error) {
	if li.Quantity < 1 {
		return 0, ErrInvalidQuantity
	}
	li = li.Clone()
	prev := s.snapshot()

	idx := -1
	if s.policy == enum.CartPolicyMerge {
		for i := range s.items {
			if sameSelection(s.items[i], li) {
				s.items[i].Quantity += li.Quantity
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		if s.policy == enum.CartPolicyUnique || li.LineID == "" {
			li.LineID = s.newID()
		}
		s.items = append(s.items, li)
		idx = len(s.items) - 1
	}

	if err := s.saveCart(ctx); err != nil {
		s.items = prev
		return 0, err
	}
	return idx, nil
}

// Remove deletes exactly the row at index. The other rows keep their order.
func (s *Session) Remove(ctx context.Context, index int) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	prev := s.snapshot()
	s.items = append(s.items[:index:index], s.items[index+1:]...)
	if err := s.saveCart(ctx); err != nil {
		s.items = prev
		return err
	}
	return nil
}

// SetQuantity changes the quantity of the row at index.
func (s *Session) SetQuantity(ctx context.Context, index, quantity int) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	prev := s.snapshot()
	s.items[index].Quantity = quantity
	if err := s.saveCart(ctx); err != nil {
		s.items = prev
		return err
	}
	return nil
}

// Clear empties the cart.
func (s *Session) Clear(ctx context.Context) error {
	prev := s.snapshot()
	s.items = []model.LineItem{}
	if err := s.saveCart(ctx); err != nil {
		s.items = prev
		return err
	}
	return nil
}

// SetTable stores the table number. An empty table clears it.
func (s *Session) SetTable(ctx context.Context, table string) error {
	var err error
	if table == "" {
		err = s.kv.Delete(ctx, enum.StorageKeyTableNumber)
	} else {
		err = s.kv.Set(ctx, enum.StorageKeyTableNumber, table)
	}
	if err != nil {
		return fmt.Errorf("save table number: %w", err)
	}
	s.table = table
	return nil
}

// CustomerKey returns the device's customer key, generating and storing
// one on first use.
func (s *Session) CustomerKey(ctx context.Context) (string, error) {
	if s.customerKey != "" {
		return s.customerKey, nil
	}
	key := s.newID()
	if err := s.kv.Set(ctx, enum.StorageKeyCustomerKey, key); err != nil {
		return "", fmt.Errorf("save customer key: %w", err)
	}
	s.customerKey = key
	return key, nil
}

func (s *Session) saveCart(ctx context.Context) error {
	b, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, enum.StorageKeyCart, string(b)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Session) snapshot() []model.LineItem {
	out := make([]model.LineItem, len(s.items))
	for i, li := range s.items {
		out[i] = li.Clone()
	}
	return out
}

// sameSelection compares the fields that identify a row under the merge
// policy.
func sameSelection(a, b model.LineItem) bool {
	return a.MenuItemID == b.MenuItemID &&
		equalStrings(a.Sauces, b.Sauces) &&
		equalStrings(a.Flavors, b.Flavors) &&
		reflect.DeepEqual(optionKeys(a.Extras), optionKeys(b.Extras))
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func optionKeys(opts []model.PricedOption) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Name + "@" + o.Price.String()
	}
	return out
}
