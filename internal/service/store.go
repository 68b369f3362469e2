package service

import (
	"context"

	"github.com/bunnybingsu/api/internal/docstore"
	"github.com/bunnybingsu/api/internal/model"
)

// Documents is the document store subset the services use.
// Satisfied by *docstore.MemoryStore and *docstore.PGStore.
type Documents interface {
	ListAll(ctx context.Context, collection string) ([]docstore.Document, error)
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, partial map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	GetByID(ctx context.Context, collection, id string) (*docstore.Document, error)
}

// Notifier announces new orders to staff.
type Notifier interface {
	OrderPlaced(ctx context.Context, order model.Order) error
}

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(context.Context, model.Order) error { return nil }
