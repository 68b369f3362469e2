package ws

import (
	"context"
	"encoding/json"

	"github.com/bunnybingsu/api/internal/docstore"
	"go.uber.org/zap"
)

// Subscriber opens a live snapshot stream of a collection.
// Satisfied by *docstore.MemoryStore and *docstore.PGStore.
type Subscriber interface {
	Subscribe(ctx context.Context, collection string) (<-chan docstore.Snapshot, func(), error)
}

// Encoder turns a snapshot into the event payload.
type Encoder func(docs []docstore.Document) any

// Feed relays every snapshot of collection to the clients of topic as an
// event of eventType. It returns when ctx is done or the stream closes.
func Feed(ctx context.Context, hub *Hub, store Subscriber, collection, topic, eventType string, encode Encoder, log *zap.Logger) error {
	snaps, unsubscribe, err := store.Subscribe(ctx, collection)
	if err != nil {
		return err
	}
	defer unsubscribe()

	log = log.Named("feed").With(zap.String("collection", collection))
	log.Info("live feed started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snaps:
			if !ok {
				log.Info("live feed closed")
				return nil
			}
			payload, err := json.Marshal(encode(snap.Docs))
			if err != nil {
				log.Error("encode snapshot", zap.Error(err))
				continue
			}
			hub.Broadcast(topic, Event{Type: eventType, Payload: payload})
		}
	}
}
