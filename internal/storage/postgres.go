package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps device storage in the device_storage table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PGStore on an existing pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) ForDevice(deviceKey string) KV {
	return &pgKV{pool: s.pool, device: deviceKey}
}

type pgKV struct {
	pool   *pgxpool.Pool
	device string
}

func (kv *pgKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := kv.pool.QueryRow(ctx, `
		SELECT value FROM device_storage WHERE device_key = $1 AND key = $2`,
		kv.device, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (kv *pgKV) Set(ctx context.Context, key, value string) error {
	_, err := kv.pool.Exec(ctx, `
		INSERT INTO device_storage (device_key, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (device_key, key) DO UPDATE SET
			value = $3,
			updated_at = now()`,
		kv.device, key, value,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (kv *pgKV) Delete(ctx context.Context, key string) error {
	if _, err := kv.pool.Exec(ctx, `DELETE FROM device_storage WHERE device_key = $1 AND key = $2`, kv.device, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
