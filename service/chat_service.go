package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/youmio/testnet-gateway/core"
	"github.com/youmio/testnet-gateway/ports"
)

// FallbackReply is returned when the chat model is unavailable. The
// user's quota is not charged for a provider outage.
const FallbackReply = "api's being weird right now"

// ChatService gates the Limbo chat behind badge ownership, the
// allowlist, and a rolling message quota window.
type ChatService struct {
	wallets *walletRepo
	chain   ports.Chain
	model   ports.ChatModel

	limit    uint
	cooldown time.Duration

	now func() time.Time
}

// ChatResult is the gateway response for a message or cooldown query.
type ChatResult struct {
	Reply             string `json:"reply,omitempty"`
	RemainingCooldown int64  `json:"remainingCooldown"`
	RemainingInputs   uint   `json:"remainingInputs"`
}

// NewChatService creates a new chat gateway.
func NewChatService(store ports.Store, chain ports.Chain, model ports.ChatModel, limit uint, cooldown time.Duration) *ChatService {
	return &ChatService{
		wallets:  &walletRepo{store: store},
		chain:    chain,
		model:    model,
		limit:    limit,
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (s *ChatService) windowRemaining(rec *core.WalletRecord, now time.Time) int64 {
	if rec.MessageCount == 0 {
		return 0
	}
	remaining := rec.LastMessageReset + int64(s.cooldown.Seconds()) - now.Unix()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Cooldown mirrors the quota window arithmetic without mutating state.
func (s *ChatService) Cooldown(ctx context.Context, address string) (*ChatResult, error) {
	rec, err := s.wallets.get(ctx, common.HexToAddress(address))
	if err != nil {
		return nil, err
	}

	now := s.now()
	remaining := s.windowRemaining(rec, now)
	if rec.MessageCount >= s.limit && remaining > 0 {
		return &ChatResult{RemainingCooldown: remaining, RemainingInputs: 0}, nil
	}
	if remaining == 0 {
		// Window elapsed (or never started): full quota on next send.
		return &ChatResult{RemainingInputs: s.limit}, nil
	}

	return &ChatResult{RemainingCooldown: remaining, RemainingInputs: s.limit - rec.MessageCount}, nil
}

// Message runs one chat turn. Order matters: the quota is charged only
// after the model call succeeds, so a provider outage costs nothing, and
// a crash after the reply at worst under-counts by one.
func (s *ChatService) Message(ctx context.Context, address string, req ChatRequest) (*ChatResult, error) {
	wallet := common.HexToAddress(address)

	balance, err := s.chain.BadgeBalance(ctx, wallet)
	if err != nil {
		return nil, core.ErrUpstreamFailure
	}
	if balance.Sign() == 0 {
		return nil, core.ErrInsufficientBalance
	}

	rec, err := s.wallets.get(ctx, wallet)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if rec.MessageCount >= s.limit {
		remaining := s.windowRemaining(rec, now)
		if remaining > 0 {
			return &ChatResult{RemainingCooldown: remaining, RemainingInputs: 0}, core.ErrQuotaExhausted
		}
		// Window rolled over.
		rec.MessageCount = 0
	}

	reply, err := s.model.Reply(ctx, BuildSystemPrompt(req), req.Prompt)
	if err != nil {
		log.Warn().Err(err).Str("wallet", wallet.Hex()).Msg("chat model unavailable, serving fallback")
		return &ChatResult{
			Reply:             FallbackReply,
			RemainingCooldown: s.windowRemaining(rec, now),
			RemainingInputs:   s.limit - rec.MessageCount,
		}, nil
	}

	if rec.MessageCount == 0 {
		rec.LastMessageReset = now.Unix()
	}
	rec.MessageCount++
	if err := s.wallets.put(ctx, rec); err != nil {
		// The reply is already produced; favor granting slightly more
		// than entitled over failing the request.
		log.Error().Err(err).Str("wallet", wallet.Hex()).Msg("reply served but counter write failed")
	}

	return &ChatResult{
		Reply:             reply,
		RemainingCooldown: s.windowRemaining(rec, now),
		RemainingInputs:   s.limit - rec.MessageCount,
	}, nil
}
