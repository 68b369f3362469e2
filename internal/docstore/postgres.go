package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// notifyChannel is the LISTEN/NOTIFY channel the documents trigger publishes
// on. The payload is the collection name.
const notifyChannel = "documents"

// PGStore keeps documents as jsonb rows in the documents table.
type PGStore struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewPGStore creates a PGStore on an existing pool.
func NewPGStore(pool *pgxpool.Pool, log *zap.Logger) *PGStore {
	return &PGStore{pool: pool, log: log.Named("docstore")}
}

func (s *PGStore) ListAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, data, created_at FROM documents
		WHERE collection = $1
		ORDER BY created_at, id`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			id        string
			raw       []byte
			createdAt time.Time
		)
		if err := rows.Scan(&id, &raw, &createdAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		data, err := decodeData(raw)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, err)
		}
		docs = append(docs, Document{ID: id, CreatedAt: createdAt, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

func (s *PGStore) Subscribe(ctx context.Context, collection string) (<-chan Snapshot, func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire listen conn: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, nil, fmt.Errorf("listen: %w", err)
	}

	initial, err := s.ListAll(ctx, collection)
	if err != nil {
		conn.Release()
		return nil, nil, err
	}

	ch := make(chan Snapshot, 1)
	offer(ch, Snapshot{Collection: collection, Docs: initial})

	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(ch)
		defer func() {
			// The connection goes back to the pool; make sure it no longer
			// receives notifications meant for this subscription.
			if _, err := conn.Exec(context.Background(), "UNLISTEN *"); err != nil {
				conn.Conn().Close(context.Background()) //nolint:errcheck
			}
			conn.Release()
		}()

		for {
			n, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					s.log.Error("wait for notification", zap.String("collection", collection), zap.Error(err))
				}
				return
			}
			if n.Payload != collection {
				continue
			}
			docs, err := s.ListAll(subCtx, collection)
			if err != nil {
				if subCtx.Err() == nil {
					s.log.Error("refresh snapshot", zap.String("collection", collection), zap.Error(err))
				}
				continue
			}
			offer(ch, Snapshot{Collection: collection, Docs: docs})
		}
	}()

	return ch, cancel, nil
}

func (s *PGStore) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	raw, err := encodeData(data)
	if err != nil {
		return "", err
	}
	var id string
	err = s.pool.QueryRow(ctx, `
		INSERT INTO documents (collection, data)
		VALUES ($1, $2::jsonb)
		RETURNING id::text`,
		collection, raw,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	return id, nil
}

func (s *PGStore) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	docID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	raw, err := encodeData(partial)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET
			data = data || $3::jsonb,
			updated_at = now()
		WHERE collection = $1 AND id = $2`,
		collection, docID, raw,
	)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, collection, id string) error {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, docID); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PGStore) GetByID(ctx context.Context, collection, id string) (*Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	var (
		raw       []byte
		createdAt time.Time
	)
	err = s.pool.QueryRow(ctx, `
		SELECT data, created_at FROM documents
		WHERE collection = $1 AND id = $2`,
		collection, docID,
	).Scan(&raw, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	data, err := decodeData(raw)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, err)
	}
	return &Document{ID: docID.String(), CreatedAt: createdAt, Data: data}, nil
}

func encodeData(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return raw, nil
}

func decodeData(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return data, nil
}
