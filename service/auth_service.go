package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/youmio/testnet-gateway/core"
	"github.com/youmio/testnet-gateway/internal/eth"
	"github.com/youmio/testnet-gateway/ports"
)

// AuthService handles the signed-challenge login flow and session
// resolution.
type AuthService struct {
	store    ports.Store
	eventPub ports.EventPublisher

	domain       string
	chainID      int64
	challengeTTL time.Duration
	sessionTTL   time.Duration

	now func() time.Time
}

// NewAuthService creates a new authentication service. The domain and
// chain id are baked into every challenge so a signature collected for
// another site or chain never validates here.
func NewAuthService(store ports.Store, eventPub ports.EventPublisher, domain string, chainID int64, challengeTTL, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		store:        store,
		eventPub:     eventPub,
		domain:       domain,
		chainID:      chainID,
		challengeTTL: challengeTTL,
		sessionTTL:   sessionTTL,
		now:          time.Now,
	}
}

// Challenge builds the canonical sign-in message for a wallet. The
// nonce is recorded with a short TTL and consumed on login, which closes
// the replay window for intercepted challenges.
func (s *AuthService) Challenge(ctx context.Context, address string, uri string) (string, error) {
	nonce, err := eth.NewNonce()
	if err != nil {
		return "", err
	}

	wallet := common.HexToAddress(address)
	if err := s.store.Set(ctx, nonceKeyPrefix+nonce, []byte(wallet.Hex()), s.challengeTTL); err != nil {
		return "", fmt.Errorf("failed to record nonce: %w", err)
	}

	challenge := eth.Challenge{
		Domain:   s.domain,
		Address:  wallet,
		URI:      uri,
		ChainID:  s.chainID,
		Nonce:    nonce,
		IssuedAt: s.now(),
	}

	return challenge.String(), nil
}

// Login verifies a signed challenge and mints a session. The message is
// re-parsed against the canonical template and every field is checked
// against what this service would have issued; the recovered signer must
// be the claimed wallet.
func (s *AuthService) Login(ctx context.Context, address, message, signature string) (string, error) {
	wallet := common.HexToAddress(address)

	challenge, err := eth.ParseChallenge(message)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrInvalidChallenge, err)
	}
	if challenge.Domain != s.domain || challenge.ChainID != s.chainID {
		return "", fmt.Errorf("%w: domain mismatch", core.ErrInvalidChallenge)
	}
	if challenge.Address != wallet {
		return "", fmt.Errorf("%w: address mismatch", core.ErrInvalidChallenge)
	}

	now := s.now()
	if now.After(challenge.IssuedAt.Add(s.challengeTTL)) {
		return "", fmt.Errorf("%w: challenge expired", core.ErrInvalidChallenge)
	}

	// The nonce must be one we issued for this wallet, and it is
	// single use: consume it before verifying so a replayed login
	// cannot win a race against the delete.
	nonceKey := nonceKeyPrefix + challenge.Nonce
	issuedFor, err := s.store.Get(ctx, nonceKey)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", fmt.Errorf("%w: unknown nonce", core.ErrInvalidChallenge)
		}
		return "", fmt.Errorf("failed to check nonce: %w", err)
	}
	if string(issuedFor) != wallet.Hex() {
		return "", fmt.Errorf("%w: nonce issued for another wallet", core.ErrInvalidChallenge)
	}
	if err := s.store.Delete(ctx, nonceKey); err != nil {
		return "", fmt.Errorf("failed to consume nonce: %w", err)
	}

	decodedSig, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("%w: malformed signature", core.ErrInvalidSignature)
	}
	signer, err := eth.RecoverPersonalSigner(message, decodedSig)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrInvalidSignature, err)
	}
	if signer != wallet {
		return "", core.ErrInvalidSignature
	}

	session := core.Session{
		ID:       uuid.New().String(),
		Address:  wallet.Hex(),
		IssuedAt: now,
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.store.Set(ctx, sessionKeyPrefix+session.ID, raw, s.sessionTTL); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}

	return session.ID, nil
}

// Resolve maps a session id to the wallet bound at creation. The
// caller-asserted wallet is never trusted; this is the only source of
// identity for the gateways.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", core.ErrUnauthorized
	}

	raw, err := s.store.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.ErrUnauthorized
		}
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	var session core.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return "", fmt.Errorf("failed to decode session: %w", err)
	}

	return session.Address, nil
}

// Logout deletes the session and notifies other instances. Logging out
// an unknown session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	address, err := s.Resolve(ctx, sessionID)
	if err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			return nil
		}
		return err
	}

	if err := s.store.Delete(ctx, sessionKeyPrefix+sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if err := s.eventPub.PublishLogout(ctx, address, sessionID); err != nil {
		// The session is already gone from the store, which is the
		// part that matters.
		log.Warn().Err(err).Msg("failed to publish logout event")
	}

	return nil
}
