package eth

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Domain is the EIP-712 domain separator for the SBT contract. Binding
// name, version, chain id and contract address into every signature
// prevents cross-contract and cross-chain replay.
type Domain struct {
	Name              string
	Version           string
	ChainID           int64
	VerifyingContract common.Address
}

// Agreement authorizes a wallet (active) to claim a badge granted by the
// holder of the badge authority key (passive). MintMessage anchors a
// chat message commitment to a badge token. The two schemas are signed
// by different keys so compromise of one cannot produce the other.
var signatureTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Agreement": {
		{Name: "active", Type: "address"},
		{Name: "passive", Type: "address"},
	},
	"MintMessage": {
		{Name: "owner", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "message", Type: "string"},
	},
}

func typedData(domain Domain, primaryType string, message apitypes.TypedDataMessage) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       signatureTypes,
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           math.NewHexOrDecimal256(domain.ChainID),
			VerifyingContract: domain.VerifyingContract.Hex(),
		},
		Message: message,
	}
}

func signTypedData(key *ecdsa.PrivateKey, data apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}

	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed data: %w", err)
	}

	// Contracts expect v in {27, 28}.
	sig[crypto.RecoveryIDOffset] += 27

	return sig, nil
}

// SignAgreement produces a badge-claim signature. The passive party is
// always the signing key's own address.
func SignAgreement(key *ecdsa.PrivateKey, domain Domain, active common.Address) ([]byte, error) {
	passive := crypto.PubkeyToAddress(key.PublicKey)

	return signTypedData(key, typedData(domain, "Agreement", apitypes.TypedDataMessage{
		"active":  active.Hex(),
		"passive": passive.Hex(),
	}))
}

// SignMintMessage produces a message-mint signature over a chat message
// commitment. The message field carries the hex-encoded keccak hash, not
// the plaintext.
func SignMintMessage(key *ecdsa.PrivateKey, domain Domain, owner common.Address, tokenID *big.Int, messageHash string) ([]byte, error) {
	return signTypedData(key, typedData(domain, "MintMessage", apitypes.TypedDataMessage{
		"owner":   owner.Hex(),
		"tokenId": (*math.HexOrDecimal256)(tokenID),
		"message": messageHash,
	}))
}

// RecoverTypedDataSigner recovers the address behind a typed-data
// signature for the given primary type and message.
func RecoverTypedDataSigner(domain Domain, primaryType string, message apitypes.TypedDataMessage, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature))
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData(domain, primaryType, message))
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash typed data: %w", err)
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// HashChatMessage commits a chat message to its owning wallet:
// keccak256(abi.encodePacked(wallet, message)). The same text signed by
// two wallets yields two different commitments.
func HashChatMessage(message string, wallet common.Address) common.Hash {
	return crypto.Keccak256Hash(wallet.Bytes(), []byte(message))
}
