package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bunnybingsu/api/internal/cart"
	"github.com/bunnybingsu/api/internal/enum"
	"github.com/bunnybingsu/api/internal/menu"
	"github.com/bunnybingsu/api/internal/model"
	"github.com/bunnybingsu/api/internal/pricing"
	"github.com/bunnybingsu/api/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Errors returned by the cart and checkout operations.
var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrTableRequired = errors.New("table number is required")
)

// CartView is a device's cart as shown to the shopper.
type CartView struct {
	Items []model.LineItem
	Table string
	Total decimal.Decimal
}

// AddItemRequest is one add-to-cart action.
type AddItemRequest struct {
	MenuItemID string
	Quantity   int
	Selection  model.Selection
}

// CartService runs cart and checkout operations for shopper devices.
// Operations on the same device are serialized.
type CartService struct {
	devices  storage.Store
	docs     Documents
	menu     *MenuService
	policy   string
	notifier Notifier
	log      *zap.Logger

	mu    sync.Mutex
	locks map[string]*deviceLock
}

// deviceLock is a per-device mutex shared by the calls currently using it.
type deviceLock struct {
	sync.Mutex
	refs int
}

// NewCartService creates a new CartService. notifier may be nil.
func NewCartService(devices storage.Store, docs Documents, policy string, notifier Notifier, log *zap.Logger) *CartService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &CartService{
		devices:  devices,
		docs:     docs,
		menu:     NewMenuService(docs),
		policy:   policy,
		notifier: notifier,
		log:      log.Named("cart"),
		locks:    make(map[string]*deviceLock),
	}
}

// lockDevice locks the device and returns the matching unlock. The entry is
// dropped once no call holds or waits for it.
func (s *CartService) lockDevice(deviceKey string) func() {
	s.mu.Lock()
	l, ok := s.locks[deviceKey]
	if !ok {
		l = &deviceLock{}
		s.locks[deviceKey] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, deviceKey)
		}
		s.mu.Unlock()
	}
}

func (s *CartService) withSession(ctx context.Context, deviceKey string, fn func(*cart.Session) error) error {
	unlock := s.lockDevice(deviceKey)
	defer unlock()

	sess, err := cart.Load(ctx, s.devices.ForDevice(deviceKey), s.policy)
	if err != nil {
		return err
	}
	return fn(sess)
}

func view(sess *cart.Session) *CartView {
	items := sess.Items()
	return &CartView{Items: items, Table: sess.Table(), Total: pricing.ItemsTotal(items)}
}

// Get returns the device's cart.
func (s *CartService) Get(ctx context.Context, deviceKey string) (*CartView, error) {
	var v *CartView
	err := s.withSession(ctx, deviceKey, func(sess *cart.Session) error {
		v = view(sess)
		return nil
	})
	return v, err
}

// AddItem validates the selection against the item's mode rules, prices it
// from the current menu and adds it to the cart.
func (s *CartService) AddItem(ctx context.Context, deviceKey string, req AddItemRequest) (*CartView, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		return nil, cart.ErrInvalidQuantity
	}
	item, err := s.menu.Get(ctx, req.MenuItemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, ErrMenuItemUnavailable
	}
	if err := menu.Validate(*item, req.Selection); err != nil {
		return nil, err
	}
	li := pricing.NewLineItem(*item, req.Quantity, req.Selection)

	var v *CartView
	err = s.withSession(ctx, deviceKey, func(sess *cart.Session) error {
		if _, err := sess.Add(ctx, li); err != nil {
			return err
		}
		v = view(sess)
		return nil
	})
	return v, err
}

// RemoveItem deletes the cart row at index.
func (s *CartService) RemoveItem(ctx context.Context, deviceKey string, index int) (*CartView, error) {
	var v *CartView
	err := s.withSession(ctx, deviceKey, func(sess *cart.Session) error {
		if err := sess.Remove(ctx, index); err != nil {
			return err
		}
		v = view(sess)
		return nil
	})
	return v, err
}

// SetQuantity changes the quantity of the cart row at index.
func (s *CartService) SetQuantity(ctx context.Context, deviceKey string, index, quantity int) (*CartView, error) {
	var v *CartView
	err := s.withSession(ctx, deviceKey, func(sess *cart.Session) error {
		if err := sess.SetQuantity(ctx, index, quantity); err != nil {
			return err
		}
		v = view(sess)
		return nil
	})
	return v, err
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, deviceKey string) error {
	return s.withSession(ctx, deviceKey, func(sess *cart.Session) error {
		return sess.Clear(ctx)
	})
}

// SetTable stores the device's table number.
func (s *CartService) SetTable(ctx context.Context, deviceKey, table string) error {
	table = strings.TrimSpace(table)
	return s.withSession(ctx, deviceKey, func(sess *cart.Session) error {
		if sess.Table() == table {
			return nil
		}
		return sess.SetTable(ctx, table)
	})
}

// CustomerKey returns the device's customer key, creating it on first use.
func (s *CartService) CustomerKey(ctx context.Context, deviceKey string) (string, error) {
	var key string
	err := s.withSession(ctx, deviceKey, func(sess *cart.Session) error {
		var err error
		key, err = sess.CustomerKey(ctx)
		return err
	})
	return key, err
}

// Checkout turns the device's cart into a pending order. table overrides the
// stored table number when not empty. Either the order is stored and the
// cart emptied, or neither happens.
func (s *CartService) Checkout(ctx context.Context, deviceKey, table string) (*model.Order, error) {
	var order *model.Order
	err := s.withSession(ctx, deviceKey, func(sess *cart.Session) error {
		table = strings.TrimSpace(table)
		if table == "" {
			table = sess.Table()
		}
		if table == "" {
			return ErrTableRequired
		}
		if sess.Len() == 0 {
			return ErrEmptyCart
		}
		customerKey, err := sess.CustomerKey(ctx)
		if err != nil {
			return err
		}

		items := sess.Items()
		o := model.Order{
			Table:       table,
			Items:       items,
			Status:      enum.OrderStatusPending,
			CustomerKey: customerKey,
			Total:       decimal.NewNullDecimal(pricing.ItemsTotal(items)),
		}
		id, err := s.docs.Create(ctx, enum.CollectionOrders, o.Data())
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if err := sess.Clear(ctx); err != nil {
			if delErr := s.docs.Delete(ctx, enum.CollectionOrders, id); delErr != nil {
				s.log.Error("roll back order after cart clear failed",
					zap.String("order_id", id), zap.Error(delErr))
				return errors.Join(err, fmt.Errorf("roll back order %s: %w", id, delErr))
			}
			return err
		}
		if sess.Table() != table {
			if err := sess.SetTable(ctx, table); err != nil {
				s.log.Warn("remember table number", zap.Error(err))
			}
		}

		doc, err := s.docs.GetByID(ctx, enum.CollectionOrders, id)
		if err != nil || doc == nil {
			o.ID = id
			order = &o
		} else {
			placed := model.OrderFromDocument(*doc)
			order = &placed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("table", order.Table),
		zap.Int("items", len(order.Items)),
		zap.String("total", pricing.Display(pricing.Total(*order))),
	)
	if err := s.notifier.OrderPlaced(ctx, *order); err != nil {
		s.log.Warn("notify staff", zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}
