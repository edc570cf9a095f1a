package service

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/youmio/testnet-gateway/adapters/store"
	"github.com/youmio/testnet-gateway/core"
)

type ecdsaKey struct {
	priv    *ecdsa.PrivateKey
	address common.Address
}

func newTestKey(t *testing.T) *ecdsaKey {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &ecdsaKey{priv: priv, address: crypto.PubkeyToAddress(priv.PublicKey)}
}

type fakeChain struct {
	balance    *big.Int
	balanceErr error
	hashes     []string
	hashesErr  error
	mintErr    error

	mintedTo []common.Address
}

func (f *fakeChain) BadgeBalance(ctx context.Context, wallet common.Address) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if f.balance == nil {
		return big.NewInt(0), nil
	}
	return f.balance, nil
}

func (f *fakeChain) MessageHashes(ctx context.Context, tokenID *big.Int) ([]string, error) {
	if f.hashesErr != nil {
		return nil, f.hashesErr
	}
	return f.hashes, nil
}

func (f *fakeChain) MintNative(ctx context.Context, to common.Address, amount *big.Int) error {
	if f.mintErr != nil {
		return f.mintErr
	}
	f.mintedTo = append(f.mintedTo, to)
	return nil
}

type fakeEvents struct {
	logouts    int
	claims     int
	allowlists int
}

func (f *fakeEvents) PublishLogout(ctx context.Context, address, sessionID string) error {
	f.logouts++
	return nil
}

func (f *fakeEvents) PublishFaucetClaim(ctx context.Context, address string) error {
	f.claims++
	return nil
}

func (f *fakeEvents) PublishAllowlistChange(ctx context.Context, added, removed []string) error {
	f.allowlists++
	return nil
}

type fakeModel struct {
	reply string
	err   error
	calls int
}

func (f *fakeModel) Reply(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// frozenClock is a manually advanced time source for window arithmetic.
type frozenClock struct {
	t time.Time
}

func (c *frozenClock) now() time.Time {
	return c.t
}

func (c *frozenClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newFrozenClock() *frozenClock {
	return &frozenClock{t: time.Unix(1_700_000_000, 0)}
}

func seedWallet(t *testing.T, kv *store.MemoryStore, rec *core.WalletRecord) {
	t.Helper()
	repo := &walletRepo{store: kv}
	require.NoError(t, repo.put(context.Background(), rec))
}

func loadWallet(t *testing.T, kv *store.MemoryStore, address common.Address) *core.WalletRecord {
	t.Helper()
	repo := &walletRepo{store: kv}
	rec, err := repo.get(context.Background(), address)
	require.NoError(t, err)
	return rec
}
