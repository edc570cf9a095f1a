package service

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youmio/testnet-gateway/adapters/store"
	"github.com/youmio/testnet-gateway/core"
)

func newChatService(t *testing.T, chain *fakeChain, model *fakeModel, limit uint) (*ChatService, *store.MemoryStore, *frozenClock) {
	t.Helper()
	kv := store.NewMemoryStore()
	clock := newFrozenClock()
	svc := NewChatService(kv, chain, model, limit, 24*time.Hour)
	svc.now = clock.now
	return svc, kv, clock
}

func chatReq(prompt string) ChatRequest {
	return ChatRequest{Prompt: prompt}
}

func TestChatRequiresBadge(t *testing.T) {
	svc, kv, _ := newChatService(t, &fakeChain{balance: big.NewInt(0)}, &fakeModel{reply: "sup"}, 10)
	key := newTestKey(t)
	seedWallet(t, kv, &core.WalletRecord{Address: key.address.Hex()})

	_, err := svc.Message(context.Background(), key.address.Hex(), chatReq("yo"))
	assert.ErrorIs(t, err, core.ErrInsufficientBalance)
}

func TestChatRequiresAllowlist(t *testing.T) {
	svc, _, _ := newChatService(t, &fakeChain{balance: big.NewInt(1)}, &fakeModel{reply: "sup"}, 10)
	key := newTestKey(t)

	_, err := svc.Message(context.Background(), key.address.Hex(), chatReq("yo"))
	assert.ErrorIs(t, err, core.ErrNotAllowlisted)
}

func TestChatChargesQuotaPerReply(t *testing.T) {
	model := &fakeModel{reply: "sup"}
	svc, kv, clock := newChatService(t, &fakeChain{balance: big.NewInt(1)}, model, 3)
	key := newTestKey(t)
	seedWallet(t, kv, &core.WalletRecord{Address: key.address.Hex()})

	res, err := svc.Message(context.Background(), key.address.Hex(), chatReq("yo"))
	require.NoError(t, err)
	assert.Equal(t, "sup", res.Reply)
	assert.Equal(t, uint(2), res.RemainingInputs)

	rec := loadWallet(t, kv, key.address)
	assert.Equal(t, uint(1), rec.MessageCount)
	assert.Equal(t, clock.now().Unix(), rec.LastMessageReset)
}

func TestChatQuotaExhausted(t *testing.T) {
	model := &fakeModel{reply: "sup"}
	svc, kv, clock := newChatService(t, &fakeChain{balance: big.NewInt(1)}, model, 2)
	ctx := context.Background()
	key := newTestKey(t)
	seedWallet(t, kv, &core.WalletRecord{Address: key.address.Hex()})

	for range 2 {
		_, err := svc.Message(ctx, key.address.Hex(), chatReq("yo"))
		require.NoError(t, err)
	}

	clock.advance(time.Hour)

	res, err := svc.Message(ctx, key.address.Hex(), chatReq("yo"))
	assert.ErrorIs(t, err, core.ErrQuotaExhausted)
	assert.Equal(t, int64(82800), res.RemainingCooldown)
	assert.Zero(t, res.RemainingInputs)
	assert.Equal(t, 2, model.calls)
}

func TestChatWindowRollsOver(t *testing.T) {
	model := &fakeModel{reply: "sup"}
	svc, kv, clock := newChatService(t, &fakeChain{balance: big.NewInt(1)}, model, 2)
	ctx := context.Background()
	key := newTestKey(t)
	seedWallet(t, kv, &core.WalletRecord{Address: key.address.Hex()})

	for range 2 {
		_, err := svc.Message(ctx, key.address.Hex(), chatReq("yo"))
		require.NoError(t, err)
	}

	clock.advance(24 * time.Hour)

	res, err := svc.Message(ctx, key.address.Hex(), chatReq("yo"))
	require.NoError(t, err)
	assert.Equal(t, uint(1), res.RemainingInputs)

	rec := loadWallet(t, kv, key.address)
	assert.Equal(t, uint(1), rec.MessageCount)
	assert.Equal(t, clock.now().Unix(), rec.LastMessageReset)
}

func TestChatModelFailureServesFallbackWithoutCharge(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	svc, kv, _ := newChatService(t, &fakeChain{balance: big.NewInt(1)}, model, 2)
	ctx := context.Background()
	key := newTestKey(t)
	seedWallet(t, kv, &core.WalletRecord{Address: key.address.Hex()})

	res, err := svc.Message(ctx, key.address.Hex(), chatReq("yo"))
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, res.Reply)
	assert.Equal(t, uint(2), res.RemainingInputs)

	rec := loadWallet(t, kv, key.address)
	assert.Zero(t, rec.MessageCount)
}

func TestChatChainFailure(t *testing.T) {
	svc, kv, _ := newChatService(t, &fakeChain{balanceErr: errors.New("rpc down")}, &fakeModel{reply: "sup"}, 2)
	key := newTestKey(t)
	seedWallet(t, kv, &core.WalletRecord{Address: key.address.Hex()})

	_, err := svc.Message(context.Background(), key.address.Hex(), chatReq("yo"))
	assert.ErrorIs(t, err, core.ErrUpstreamFailure)
}

func TestChatCooldownIsReadOnly(t *testing.T) {
	model := &fakeModel{reply: "sup"}
	svc, kv, clock := newChatService(t, &fakeChain{balance: big.NewInt(1)}, model, 3)
	ctx := context.Background()
	key := newTestKey(t)
	seedWallet(t, kv, &core.WalletRecord{Address: key.address.Hex()})

	res, err := svc.Cooldown(ctx, key.address.Hex())
	require.NoError(t, err)
	assert.Equal(t, uint(3), res.RemainingInputs)
	assert.Zero(t, res.RemainingCooldown)

	_, err = svc.Message(ctx, key.address.Hex(), chatReq("yo"))
	require.NoError(t, err)
	clock.advance(time.Hour)

	res, err = svc.Cooldown(ctx, key.address.Hex())
	require.NoError(t, err)
	assert.Equal(t, uint(2), res.RemainingInputs)
	assert.Equal(t, int64(82800), res.RemainingCooldown)

	rec := loadWallet(t, kv, key.address)
	assert.Equal(t, uint(1), rec.MessageCount)

	clock.advance(24 * time.Hour)
	res, err = svc.Cooldown(ctx, key.address.Hex())
	require.NoError(t, err)
	assert.Equal(t, uint(3), res.RemainingInputs)
	assert.Zero(t, res.RemainingCooldown)
}
