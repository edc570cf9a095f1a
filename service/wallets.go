package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/youmio/testnet-gateway/core"
	"github.com/youmio/testnet-gateway/ports"
)

const (
	walletKeyPrefix  = "wallet:"
	sessionKeyPrefix = "session:"
	nonceKeyPrefix   = "nonce:"
	messageKeyPrefix = "message:"
)

func walletKey(address common.Address) string {
	return walletKeyPrefix + strings.ToLower(address.Hex())
}

// walletRepo wraps the store for WalletRecord access. Every record
// lives under a single key so concurrent read-modify-write races stay
// scoped to one wallet.
type walletRepo struct {
	store ports.Store
}

// get loads the wallet's entitlement record. Absence of the record
// means the wallet is not allowlisted.
func (r *walletRepo) get(ctx context.Context, address common.Address) (*core.WalletRecord, error) {
	raw, err := r.store.Get(ctx, walletKey(address))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrNotAllowlisted
		}
		return nil, fmt.Errorf("failed to load wallet record: %w", err)
	}

	var rec core.WalletRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode wallet record: %w", err)
	}

	return &rec, nil
}

func (r *walletRepo) put(ctx context.Context, rec *core.WalletRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode wallet record: %w", err)
	}

	if err := r.store.Set(ctx, walletKey(common.HexToAddress(rec.Address)), raw, 0); err != nil {
		return fmt.Errorf("failed to persist wallet record: %w", err)
	}

	return nil
}

func (r *walletRepo) delete(ctx context.Context, address common.Address) error {
	return r.store.Delete(ctx, walletKey(address))
}
