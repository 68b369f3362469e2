// Package storage is the per-device key/value store that keeps a shopper's
// cart, table number and customer key across reloads. Nothing in it is
// shared between devices.
package storage

import (
	"context"
	"sync"
)

// KV is one device's storage.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store hands out device-scoped KVs.
type Store interface {
	ForDevice(deviceKey string) KV
}

// MemoryStore keeps device storage in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	devices map[string]map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{devices: make(map[string]map[string]string)}
}

func (s *MemoryStore) ForDevice(deviceKey string) KV {
	return &memoryKV{store: s, device: deviceKey}
}

type memoryKV struct {
	store  *MemoryStore
	device string
}

func (kv *memoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	kv.store.mu.RLock()
	defer kv.store.mu.RUnlock()
	v, ok := kv.store.devices[kv.device][key]
	return v, ok, nil
}

func (kv *memoryKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kv.store.mu.Lock()
	defer kv.store.mu.Unlock()
	if kv.store.devices[kv.device] == nil {
		kv.store.devices[kv.device] = make(map[string]string)
	}
	kv.store.devices[kv.device][key] = value
	return nil
}

func (kv *memoryKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kv.store.mu.Lock()
	defer kv.store.mu.Unlock()
	delete(kv.store.devices[kv.device], key)
	if len(kv.store.devices[kv.device]) == 0 {
		delete(kv.store.devices, kv.device)
	}
	return nil
}
