package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/youmio/testnet-gateway/core"
	"github.com/youmio/testnet-gateway/ports"
)

// AllowlistService is the only writer allowed to create and delete
// WalletRecords in bulk. It backs the admin endpoints.
type AllowlistService struct {
	store    ports.Store
	wallets  *walletRepo
	eventPub ports.EventPublisher

	now func() time.Time
}

// NewAllowlistService creates a new allowlist manager.
func NewAllowlistService(store ports.Store, eventPub ports.EventPublisher) *AllowlistService {
	return &AllowlistService{
		store:    store,
		wallets:  &walletRepo{store: store},
		eventPub: eventPub,
		now:      time.Now,
	}
}

// Add creates fresh records for the given wallets. Invalid addresses
// are rejected as a batch; wallets that already have a record keep
// their counters untouched.
func (s *AllowlistService) Add(ctx context.Context, wallets []string) ([]string, error) {
	added := make([]string, 0, len(wallets))
	now := s.now().Unix()

	for _, w := range wallets {
		if !common.IsHexAddress(w) {
			return nil, fmt.Errorf("invalid wallet address %q", w)
		}
	}

	for _, w := range wallets {
		addr := common.HexToAddress(w)

		if _, err := s.wallets.get(ctx, addr); err == nil {
			continue
		} else if !errors.Is(err, core.ErrNotAllowlisted) {
			return nil, err
		}

		rec := &core.WalletRecord{Address: addr.Hex(), AddedAt: now}
		if err := s.wallets.put(ctx, rec); err != nil {
			return nil, err
		}
		added = append(added, addr.Hex())
	}

	if len(added) > 0 {
		if err := s.eventPub.PublishAllowlistChange(ctx, added, nil); err != nil {
			log.Warn().Err(err).Msg("failed to publish allowlist event")
		}
	}

	return added, nil
}

// Remove deletes the records for the given wallets.
func (s *AllowlistService) Remove(ctx context.Context, wallets []string) ([]string, error) {
	removed := make([]string, 0, len(wallets))

	for _, w := range wallets {
		if !common.IsHexAddress(w) {
			return nil, fmt.Errorf("invalid wallet address %q", w)
		}
	}

	for _, w := range wallets {
		addr := common.HexToAddress(w)
		if err := s.wallets.delete(ctx, addr); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", addr.Hex(), err)
		}
		removed = append(removed, addr.Hex())
	}

	if len(removed) > 0 {
		if err := s.eventPub.PublishAllowlistChange(ctx, nil, removed); err != nil {
			log.Warn().Err(err).Msg("failed to publish allowlist event")
		}
	}

	return removed, nil
}

// List returns every allowlisted wallet address.
func (s *AllowlistService) List(ctx context.Context) ([]string, error) {
	keys, err := s.store.List(ctx, walletKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	wallets := make([]string, 0, len(keys))
	for _, key := range keys {
		raw := strings.TrimPrefix(key, walletKeyPrefix)
		if !common.IsHexAddress(raw) {
			continue
		}
		wallets = append(wallets, common.HexToAddress(raw).Hex())
	}

	return wallets, nil
}
