package service

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/youmio/testnet-gateway/core"
	"github.com/youmio/testnet-gateway/ports"
)

// FaucetService gates the testnet token faucet behind the allowlist and
// a fixed cooldown window.
type FaucetService struct {
	wallets  *walletRepo
	chain    ports.Chain
	eventPub ports.EventPublisher

	amount   *big.Int
	cooldown time.Duration

	now func() time.Time
}

// ClaimStatus reports how long until the wallet may claim again.
// NextClaimIn is zero when a claim is available now.
type ClaimStatus struct {
	NextClaimIn int64 `json:"nextClaimIn"`
}

// NewFaucetService creates a new faucet gateway.
func NewFaucetService(store ports.Store, chain ports.Chain, eventPub ports.EventPublisher, amount *big.Int, cooldown time.Duration) *FaucetService {
	return &FaucetService{
		wallets:  &walletRepo{store: store},
		chain:    chain,
		eventPub: eventPub,
		amount:   amount,
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (s *FaucetService) remaining(rec *core.WalletRecord, now time.Time) int64 {
	remaining := rec.LastClaimed + int64(s.cooldown.Seconds()) - now.Unix()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Cooldown is the read-only variant used for client polling.
func (s *FaucetService) Cooldown(ctx context.Context, address string) (*ClaimStatus, error) {
	rec, err := s.wallets.get(ctx, common.HexToAddress(address))
	if err != nil {
		return nil, err
	}

	return &ClaimStatus{NextClaimIn: s.remaining(rec, s.now())}, nil
}

// Claim mints testnet tokens to the wallet and starts a new cooldown
// window. The chain mint happens before the record write: a crash
// between the two grants an unrecorded claim, never a recorded claim
// that no tokens backed.
func (s *FaucetService) Claim(ctx context.Context, address string) (*ClaimStatus, error) {
	wallet := common.HexToAddress(address)

	rec, err := s.wallets.get(ctx, wallet)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if remaining := s.remaining(rec, now); remaining > 0 {
		return &ClaimStatus{NextClaimIn: remaining}, core.ErrOnCooldown
	}

	if err := s.chain.MintNative(ctx, wallet, s.amount); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamFailure, err)
	}

	rec.LastClaimed = now.Unix()
	if err := s.wallets.put(ctx, rec); err != nil {
		// Durability gap: the tokens are already minted. Granting a
		// repeat claim later beats blocking the user now.
		log.Error().Err(err).Str("wallet", wallet.Hex()).Msg("claim recorded on chain but counter write failed")
	}

	if err := s.eventPub.PublishFaucetClaim(ctx, wallet.Hex()); err != nil {
		log.Warn().Err(err).Msg("failed to publish claim event")
	}

	return &ClaimStatus{NextClaimIn: int64(s.cooldown.Seconds())}, nil
}
