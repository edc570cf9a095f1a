package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youmio/testnet-gateway/core"
)

func TestMemoryStoreSetGet(t *testing.T) {
	kv := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "a", []byte("one"), 0))

	val, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), val)

	_, err = kv.Get(ctx, "b")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryStoreTTL(t *testing.T) {
	kv := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "a", []byte("one"), 10*time.Millisecond))

	_, err := kv.Get(ctx, "a")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = kv.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrNotFound)

	keys, err := kv.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryStoreDelete(t *testing.T) {
	kv := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "a", []byte("one"), 0))
	require.NoError(t, kv.Delete(ctx, "a"))

	_, err := kv.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Deleting a missing key is not an error.
	require.NoError(t, kv.Delete(ctx, "a"))
}

func TestMemoryStoreListByPrefix(t *testing.T) {
	kv := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "wallet:0xaa", []byte("1"), 0))
	require.NoError(t, kv.Set(ctx, "wallet:0xbb", []byte("2"), 0))
	require.NoError(t, kv.Set(ctx, "session:xyz", []byte("3"), 0))

	keys, err := kv.List(ctx, "wallet:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"wallet:0xaa", "wallet:0xbb"}, keys)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	kv := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "a", []byte("one"), 0))

	val, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	val[0] = 'X'

	again, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), again)
}
