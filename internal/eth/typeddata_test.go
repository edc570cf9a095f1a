package eth

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDomain() Domain {
	return Domain{
		Name:              "YoumioSBT",
		Version:           "1",
		ChainID:           68854,
		VerifyingContract: common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
	}
}

func TestSignAgreementRecovers(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	authority := crypto.PubkeyToAddress(key.PublicKey)
	active := common.HexToAddress("0x1111111111111111111111111111111111111111")

	sig, err := SignAgreement(key, testDomain(), active)
	require.NoError(t, err)
	require.Len(t, sig, crypto.SignatureLength)
	assert.GreaterOrEqual(t, sig[crypto.RecoveryIDOffset], byte(27))

	signer, err := RecoverTypedDataSigner(testDomain(), "Agreement", apitypes.TypedDataMessage{
		"active":  active.Hex(),
		"passive": authority.Hex(),
	}, sig)
	require.NoError(t, err)
	assert.Equal(t, authority, signer)
}

func TestSignMintMessageRecovers(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	authority := crypto.PubkeyToAddress(key.PublicKey)
	owner := common.HexToAddress("0x2222222222222222222222222222222222222222")
	tokenID := big.NewInt(42)
	hash := HashChatMessage("gm", owner).Hex()

	sig, err := SignMintMessage(key, testDomain(), owner, tokenID, hash)
	require.NoError(t, err)

	signer, err := RecoverTypedDataSigner(testDomain(), "MintMessage", apitypes.TypedDataMessage{
		"owner":   owner.Hex(),
		"tokenId": (*math.HexOrDecimal256)(tokenID),
		"message": hash,
	}, sig)
	require.NoError(t, err)
	assert.Equal(t, authority, signer)
}

func TestSignaturesDoNotCrossSchemas(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	authority := crypto.PubkeyToAddress(key.PublicKey)
	wallet := common.HexToAddress("0x3333333333333333333333333333333333333333")

	sig, err := SignAgreement(key, testDomain(), wallet)
	require.NoError(t, err)

	// The same signature checked against the other schema must not
	// recover the authority.
	signer, err := RecoverTypedDataSigner(testDomain(), "MintMessage", apitypes.TypedDataMessage{
		"owner":   wallet.Hex(),
		"tokenId": (*math.HexOrDecimal256)(big.NewInt(1)),
		"message": HashChatMessage("gm", wallet).Hex(),
	}, sig)
	if err == nil {
		assert.NotEqual(t, authority, signer)
	}
}

func TestSignaturesAreDomainBound(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	authority := crypto.PubkeyToAddress(key.PublicKey)
	wallet := common.HexToAddress("0x4444444444444444444444444444444444444444")

	sig, err := SignAgreement(key, testDomain(), wallet)
	require.NoError(t, err)

	otherChain := testDomain()
	otherChain.ChainID = 1

	signer, err := RecoverTypedDataSigner(otherChain, "Agreement", apitypes.TypedDataMessage{
		"active":  wallet.Hex(),
		"passive": authority.Hex(),
	}, sig)
	if err == nil {
		assert.NotEqual(t, authority, signer)
	}
}

func TestHashChatMessageBindsWallet(t *testing.T) {
	a := common.HexToAddress("0x5555555555555555555555555555555555555555")
	b := common.HexToAddress("0x6666666666666666666666666666666666666666")

	assert.Equal(t, HashChatMessage("gm", a), HashChatMessage("gm", a))
	assert.NotEqual(t, HashChatMessage("gm", a), HashChatMessage("gm", b))
	assert.NotEqual(t, HashChatMessage("gm", a), HashChatMessage("gn", a))
}
