package service

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog/log"

	"github.com/youmio/testnet-gateway/core"
	"github.com/youmio/testnet-gateway/internal/eth"
	"github.com/youmio/testnet-gateway/ports"
)

// BadgeService issues the typed-data authorizations consumed by the SBT
// contract: badge-claim agreements and message-mint commitments. It
// also keeps the encrypted plaintext of minted chat messages, keyed by
// the on-chain commitment hash.
type BadgeService struct {
	store ports.Store
	chain ports.Chain

	domain     eth.Domain
	sbtKey     *ecdsa.PrivateKey
	messageKey *ecdsa.PrivateKey
	cipherKey  []byte

	now func() time.Time
}

// SignatureResult is the response for any signature issuance.
type SignatureResult struct {
	Signature string `json:"signature"`
	Wallet    string `json:"wallet"`
	Contract  string `json:"contract"`
	ChainID   int64  `json:"chainId"`
	TokenID   string `json:"tokenId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// NewBadgeService creates a new badge/signature gateway. sbtKey and
// messageKey must be distinct keys; each authorizes exactly one action
// schema.
func NewBadgeService(store ports.Store, chain ports.Chain, domain eth.Domain, sbtKey, messageKey *ecdsa.PrivateKey, cipherKey []byte) *BadgeService {
	return &BadgeService{
		store:      store,
		chain:      chain,
		domain:     domain,
		sbtKey:     sbtKey,
		messageKey: messageKey,
		cipherKey:  cipherKey,
		now:        time.Now,
	}
}

// TakeSignature signs a badge-claim agreement for the wallet. Pure
// issuance with no entitlement check; callers gate access.
func (s *BadgeService) TakeSignature(wallet string) (*SignatureResult, error) {
	addr := common.HexToAddress(wallet)

	sig, err := eth.SignAgreement(s.sbtKey, s.domain, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to sign agreement: %w", err)
	}

	return &SignatureResult{
		Signature: hexutil.Encode(sig),
		Wallet:    addr.Hex(),
		Contract:  s.domain.VerifyingContract.Hex(),
		ChainID:   s.domain.ChainID,
	}, nil
}

// ClaimSignature is the session-scoped badge claim: a wallet that
// already holds the badge is refused, everyone else gets a signature.
// The mint itself happens on chain, outside this service.
func (s *BadgeService) ClaimSignature(ctx context.Context, wallet string) (*SignatureResult, error) {
	balance, err := s.chain.BadgeBalance(ctx, common.HexToAddress(wallet))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamFailure, err)
	}
	if balance.Sign() > 0 {
		return nil, core.ErrAlreadyClaimed
	}

	return s.TakeSignature(wallet)
}

// MintSignature signs a message-mint commitment for the wallet's chat
// message and stores the encrypted plaintext under the commitment hash
// so it can be recovered once the mint lands on chain.
func (s *BadgeService) MintSignature(ctx context.Context, wallet string, tokenID *big.Int, message string) (*SignatureResult, error) {
	addr := common.HexToAddress(wallet)
	hash := eth.HashChatMessage(message, addr).Hex()

	sig, err := eth.SignMintMessage(s.messageKey, s.domain, addr, tokenID, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign mint message: %w", err)
	}

	iv, ciphertext, err := s.encrypt(message)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt message: %w", err)
	}

	data := core.MessageData{
		EncryptedMessage: ciphertext,
		IV:               iv,
		Owner:            addr.Hex(),
		Minted:           true,
		MintedAt:         s.now().Unix(),
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message data: %w", err)
	}
	if err := s.store.Set(ctx, messageKeyPrefix+hash, raw, 0); err != nil {
		// The signature is already issued; the worst case is a minted
		// hash with no recoverable plaintext.
		log.Error().Err(err).Str("hash", hash).Msg("mint signature issued but message write failed")
	}

	return &SignatureResult{
		Signature: hexutil.Encode(sig),
		Wallet:    addr.Hex(),
		Contract:  s.domain.VerifyingContract.Hex(),
		ChainID:   s.domain.ChainID,
		TokenID:   tokenID.String(),
		Message:   hash,
	}, nil
}

// MintedMessages resolves the badge's on-chain commitment hashes back
// to plaintext. Hashes with no stored blob are skipped; the chain is
// the source of truth for which commitments exist.
func (s *BadgeService) MintedMessages(ctx context.Context, tokenID *big.Int) ([]string, error) {
	hashes, err := s.chain.MessageHashes(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamFailure, err)
	}

	messages := make([]string, 0, len(hashes))
	for _, hash := range hashes {
		raw, err := s.store.Get(ctx, messageKeyPrefix+hash)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load message %s: %w", hash, err)
		}

		var data core.MessageData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to decode message %s: %w", hash, err)
		}

		plaintext, err := s.decrypt(data.IV, data.EncryptedMessage)
		if err != nil {
			log.Error().Err(err).Str("hash", hash).Msg("failed to decrypt stored message")
			continue
		}
		messages = append(messages, plaintext)
	}

	return messages, nil
}

func (s *BadgeService) encrypt(plaintext string) (iv string, ciphertext string, err error) {
	block, err := aes.NewCipher(s.cipherKey)
	if err != nil {
		return "", "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(nonce), base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *BadgeService) decrypt(iv string, ciphertext string) (string, error) {
	nonce, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return "", err
	}
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(s.cipherKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
