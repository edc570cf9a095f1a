package eth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// NonceBytes is the entropy of a login challenge nonce.
const NonceBytes = 16

// Challenge is the canonical sign-in message presented to a wallet.
// The message is never persisted; replay protection comes from the
// nonce, which the session manager records and consumes separately.
type Challenge struct {
	Domain   string
	Address  common.Address
	URI      string
	ChainID  int64
	Nonce    string
	IssuedAt time.Time
}

// NewNonce returns a hex-encoded random nonce.
func NewNonce() (string, error) {
	buf := make([]byte, NonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// String renders the canonical challenge template. Verification
// re-parses the signed message and compares against this exact layout,
// so any change here is a breaking change for in-flight logins.
func (c Challenge) String() string {
	return fmt.Sprintf(
		"%s wants you to sign in with your Ethereum account:\n%s\n\nURI: %s\nVersion: 1\nChain ID: %d\nNonce: %s\nIssued At: %s",
		c.Domain,
		c.Address.Hex(),
		c.URI,
		c.ChainID,
		c.Nonce,
		c.IssuedAt.UTC().Format(time.RFC3339),
	)
}

const domainSuffix = " wants you to sign in with your Ethereum account:"

// ParseChallenge parses a message produced by Challenge.String. The
// parse is strict: anything that does not match the canonical template
// line for line is rejected, which prevents a signature over an
// attacker-chosen message from being replayed as a login.
func ParseChallenge(message string) (*Challenge, error) {
	lines := strings.Split(message, "\n")
	if len(lines) != 8 {
		return nil, fmt.Errorf("challenge must have 8 lines, got %d", len(lines))
	}

	domain, ok := strings.CutSuffix(lines[0], domainSuffix)
	if !ok || domain == "" {
		return nil, fmt.Errorf("malformed challenge header")
	}
	if !common.IsHexAddress(lines[1]) {
		return nil, fmt.Errorf("malformed challenge address")
	}
	if lines[2] != "" {
		return nil, fmt.Errorf("malformed challenge separator")
	}

	uri, ok := strings.CutPrefix(lines[3], "URI: ")
	if !ok || uri == "" {
		return nil, fmt.Errorf("malformed challenge uri")
	}
	if lines[4] != "Version: 1" {
		return nil, fmt.Errorf("unsupported challenge version")
	}

	chainStr, ok := strings.CutPrefix(lines[5], "Chain ID: ")
	if !ok {
		return nil, fmt.Errorf("malformed challenge chain id")
	}
	chainID, err := strconv.ParseInt(chainStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed challenge chain id: %w", err)
	}

	nonce, ok := strings.CutPrefix(lines[6], "Nonce: ")
	if !ok || len(nonce) != NonceBytes*2 {
		return nil, fmt.Errorf("malformed challenge nonce")
	}
	if _, err := hex.DecodeString(nonce); err != nil {
		return nil, fmt.Errorf("malformed challenge nonce: %w", err)
	}

	issuedStr, ok := strings.CutPrefix(lines[7], "Issued At: ")
	if !ok {
		return nil, fmt.Errorf("malformed challenge timestamp")
	}
	issuedAt, err := time.Parse(time.RFC3339, issuedStr)
	if err != nil {
		return nil, fmt.Errorf("malformed challenge timestamp: %w", err)
	}

	return &Challenge{
		Domain:   domain,
		Address:  common.HexToAddress(lines[1]),
		URI:      uri,
		ChainID:  chainID,
		Nonce:    nonce,
		IssuedAt: issuedAt,
	}, nil
}

// RecoverPersonalSigner recovers the address that produced an EIP-191
// personal_sign signature over message.
func RecoverPersonalSigner(message string, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature))
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}
