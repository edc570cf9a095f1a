package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youmio/testnet-gateway/adapters/store"
	"github.com/youmio/testnet-gateway/core"
)

func newAllowlistService(t *testing.T) (*AllowlistService, *store.MemoryStore, *fakeEvents) {
	t.Helper()
	kv := store.NewMemoryStore()
	events := &fakeEvents{}
	return NewAllowlistService(kv, events), kv, events
}

func TestAllowlistAdd(t *testing.T) {
	svc, kv, events := newAllowlistService(t)
	ctx := context.Background()
	a := newTestKey(t)
	b := newTestKey(t)

	added, err := svc.Add(ctx, []string{a.address.Hex(), b.address.Hex()})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.address.Hex(), b.address.Hex()}, added)
	assert.Equal(t, 1, events.allowlists)

	rec := loadWallet(t, kv, a.address)
	assert.Zero(t, rec.MessageCount)
	assert.NotZero(t, rec.AddedAt)
}

func TestAllowlistAddRejectsBatchWithInvalidAddress(t *testing.T) {
	svc, _, events := newAllowlistService(t)
	ctx := context.Background()
	a := newTestKey(t)

	_, err := svc.Add(ctx, []string{a.address.Hex(), "not-an-address"})
	require.Error(t, err)
	assert.Equal(t, 0, events.allowlists)

	// The batch failed atomically; the valid address was not added.
	wallets, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestAllowlistAddPreservesExistingCounters(t *testing.T) {
	svc, kv, _ := newAllowlistService(t)
	ctx := context.Background()
	a := newTestKey(t)

	seedWallet(t, kv, &core.WalletRecord{Address: a.address.Hex(), MessageCount: 5, LastClaimed: 123})

	added, err := svc.Add(ctx, []string{a.address.Hex()})
	require.NoError(t, err)
	assert.Empty(t, added)

	rec := loadWallet(t, kv, a.address)
	assert.Equal(t, uint(5), rec.MessageCount)
	assert.Equal(t, int64(123), rec.LastClaimed)
}

func TestAllowlistRemove(t *testing.T) {
	svc, _, events := newAllowlistService(t)
	ctx := context.Background()
	a := newTestKey(t)

	_, err := svc.Add(ctx, []string{a.address.Hex()})
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, []string{a.address.Hex()})
	require.NoError(t, err)
	assert.Equal(t, []string{a.address.Hex()}, removed)
	assert.Equal(t, 2, events.allowlists)

	wallets, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestAllowlistListReturnsChecksummedAddresses(t *testing.T) {
	svc, _, _ := newAllowlistService(t)
	ctx := context.Background()
	a := newTestKey(t)

	// Lowercased input still lists as the checksummed form.
	_, err := svc.Add(ctx, []string{strings.ToLower(a.address.Hex())})
	require.NoError(t, err)

	wallets, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{a.address.Hex()}, wallets)
}
