package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bunnybingsu/api/internal/enum"
	"github.com/bunnybingsu/api/internal/model"
	"github.com/shopspring/decimal"
)

func TestMenuService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc := NewMenuService(newDocs())

	created, err := svc.Create(ctx, model.MenuItem{
		Name:      "  Cheese Fries ",
		Price:     decimal.RequireFromString("59.5"),
		Mode:      enum.ModeFries,
		Available: true,
		Cheeses:   []model.PricedOption{{Name: "cheddar", Price: decimal.NewFromInt(15)}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Name != "Cheese Fries" {
		t.Fatalf("unexpected item: %+v", created)
	}
	if !created.Price.Equal(decimal.RequireFromString("59.5")) {
		t.Fatalf("price = %s", created.Price)
	}

	created.Available = false
	updated, err := svc.Update(ctx, created.ID, *created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Available {
		t.Fatal("expected unavailable")
	}

	items, err := svc.List(ctx)
	if err != nil || len(items) != 1 {
		t.Fatalf("list: %d items (%v)", len(items), err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatalf("expected ErrMenuItemNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatalf("expected ErrMenuItemNotFound, got %v", err)
	}
}

func TestMenuService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewMenuService(newDocs())

	tests := []struct {
		name string
		item model.MenuItem
		want error
	}{
		{"missing name", model.MenuItem{Price: decimal.NewFromInt(1)}, ErrNameRequired},
		{"negative price", model.MenuItem{Name: "x", Price: decimal.NewFromInt(-1)}, ErrNegativePrice},
		{"unknown mode", model.MenuItem{Name: "x", Mode: "pizza"}, ErrUnknownMode},
		{"negative extra", model.MenuItem{
			Name:   "x",
			Extras: []model.PricedOption{{Name: "boba", Price: decimal.NewFromInt(-5)}},
		}, ErrNegativePrice},
		{"unnamed cheese", model.MenuItem{
			Name:    "x",
			Cheeses: []model.PricedOption{{Price: decimal.NewFromInt(5)}},
		}, ErrOptionNameRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.item); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := svc.Update(ctx, "missing", model.MenuItem{Name: "x"}); !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatalf("expected ErrMenuItemNotFound, got %v", err)
	}
}
