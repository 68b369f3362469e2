package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_DevicesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := s.ForDevice("a")
	b := s.ForDevice("b")

	require.NoError(t, a.Set(ctx, "cart", "[1]"))

	v, ok, err := a.Get(ctx, "cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[1]", v)

	_, ok, err = b.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_SetOverwritesAndDelete(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore().ForDevice("a")

	require.NoError(t, kv.Set(ctx, "tableNumber", "3"))
	require.NoError(t, kv.Set(ctx, "tableNumber", "4"))
	v, _, err := kv.Get(ctx, "tableNumber")
	require.NoError(t, err)
	assert.Equal(t, "4", v)

	require.NoError(t, kv.Delete(ctx, "tableNumber"))
	require.NoError(t, kv.Delete(ctx, "tableNumber"))
	_, ok, err := kv.Get(ctx, "tableNumber")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	kv := NewMemoryStore().ForDevice("a")
	assert.Error(t, kv.Set(ctx, "k", "v"))
	_, _, err := kv.Get(ctx, "k")
	assert.Error(t, err)
}
