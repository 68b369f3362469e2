// Package docstore is the persistence collaborator for menu and order
// documents. A document is a flat JSON-style mapping with a store-assigned
// ID and creation timestamp.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Update when the target document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a stored record. Data holds JSON-native values only
// (string, float64, bool, []any, map[string]any, nil).
type Document struct {
	ID        string
	CreatedAt time.Time
	Data      map[string]any
}

// Snapshot is the full content of a collection at one point in time.
type Snapshot struct {
	Collection string
	Docs       []Document
}

// Store is implemented by MemoryStore and PGStore.
type Store interface {
	ListAll(ctx context.Context, collection string) ([]Document, error)
	// Subscribe delivers the current snapshot immediately and a new one after
	// every change. A slow reader skips intermediate snapshots but always
	// ends up with the latest. The channel is closed after unsubscribe is
	// called or ctx is done.
	Subscribe(ctx context.Context, collection string) (<-chan Snapshot, func(), error)
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	// Update merges the top-level fields of partial into the document.
	Update(ctx context.Context, collection, id string, partial map[string]any) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// GetByID returns nil, nil when the document does not exist.
	GetByID(ctx context.Context, collection, id string) (*Document, error)
}

// normalize deep-copies data into JSON-native types so that both store
// implementations hand back identically typed values.
func normalize(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// offer delivers snap on a one-slot channel, replacing any snapshot the
// reader has not picked up yet.
func offer(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
