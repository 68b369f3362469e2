package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bunnybingsu/api/internal/docstore"
	"github.com/bunnybingsu/api/internal/enum"
	"github.com/bunnybingsu/api/internal/menu"
	"github.com/bunnybingsu/api/internal/model"
)

// Errors returned by the menu service.
var (
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrNameRequired        = errors.New("name is required")
	ErrNegativePrice       = errors.New("price must be >= 0")
	ErrUnknownMode         = errors.New("unknown mode")
	ErrOptionNameRequired  = errors.New("option name is required")
)

// MenuService reads and edits the menu collection.
type MenuService struct {
	docs Documents
}

// NewMenuService creates a new MenuService.
func NewMenuService(docs Documents) *MenuService {
	return &MenuService{docs: docs}
}

// List returns every menu item in creation order.
func (s *MenuService) List(ctx context.Context) ([]model.MenuItem, error) {
	docs, err := s.docs.ListAll(ctx, enum.CollectionMenu)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return MenuFromSnapshot(docs), nil
}

// MenuFromSnapshot decodes a menu collection snapshot.
func MenuFromSnapshot(docs []docstore.Document) []model.MenuItem {
	items := make([]model.MenuItem, len(docs))
	for i, d := range docs {
		items[i] = model.MenuItemFromDocument(d)
	}
	return items
}

// Get returns one menu item or ErrMenuItemNotFound.
func (s *MenuService) Get(ctx context.Context, id string) (*model.MenuItem, error) {
	doc, err := s.docs.GetByID(ctx, enum.CollectionMenu, id)
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	if doc == nil {
		return nil, ErrMenuItemNotFound
	}
	item := model.MenuItemFromDocument(*doc)
	return &item, nil
}

// Create validates and stores a new menu item.
func (s *MenuService) Create(ctx context.Context, item model.MenuItem) (*model.MenuItem, error) {
	if err := validateMenuItem(&item); err != nil {
		return nil, err
	}
	id, err := s.docs.Create(ctx, enum.CollectionMenu, item.Data())
	if err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}
	return s.Get(ctx, id)
}

// Update replaces every field of an existing menu item.
func (s *MenuService) Update(ctx context.Context, id string, item model.MenuItem) (*model.MenuItem, error) {
	if err := validateMenuItem(&item); err != nil {
		return nil, err
	}
	if err := s.docs.Update(ctx, enum.CollectionMenu, id, item.Data()); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("update menu item: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a menu item. Placed orders keep their own snapshot of it.
func (s *MenuService) Delete(ctx context.Context, id string) error {
	doc, err := s.docs.GetByID(ctx, enum.CollectionMenu, id)
	if err != nil {
		return fmt.Errorf("get menu item: %w", err)
	}
	if doc == nil {
		return ErrMenuItemNotFound
	}
	if err := s.docs.Delete(ctx, enum.CollectionMenu, id); err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	return nil
}

func validateMenuItem(item *model.MenuItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return ErrNameRequired
	}
	if item.Price.IsNegative() {
		return ErrNegativePrice
	}
	if !menu.Known(item.Mode) {
		return fmt.Errorf("%w: %q", ErrUnknownMode, item.Mode)
	}
	for family, opts := range map[string][]model.PricedOption{
		enum.FamilyCheese: item.Cheeses,
		enum.FamilyExtra:  item.Extras,
	} {
		for i, o := range opts {
			if strings.TrimSpace(o.Name) == "" {
				return fmt.Errorf("%s[%d]: %w", family, i, ErrOptionNameRequired)
			}
			if o.Price.IsNegative() {
				return fmt.Errorf("%s[%d]: %w", family, i, ErrNegativePrice)
			}
		}
	}
	return nil
}
