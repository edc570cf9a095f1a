package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/youmio/testnet-gateway/ports"
)

// The gateway only touches two functions per contract, so the ABIs are
// declared inline instead of carrying generated bindings.
const sbtABIJSON = `[
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"getMessages","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string[]"}]}
]`

const faucetABIJSON = `[
	{"name":"mintNativeCoin","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

// EthChain implements the Chain interface against a single RPC endpoint.
type EthChain struct {
	client     *ethclient.Client
	chainID    *big.Int
	sbtAddr    common.Address
	faucetAddr common.Address
	sbtABI     abi.ABI
	faucetABI  abi.ABI
	faucetKey  *ecdsa.PrivateKey
}

// NewEthChain dials the RPC endpoint and prepares the contract ABIs.
func NewEthChain(rpcURL string, chainID int64, sbtAddr, faucetAddr common.Address, faucetKey *ecdsa.PrivateKey) (ports.Chain, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc: %w", err)
	}

	sbtABI, err := abi.JSON(strings.NewReader(sbtABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sbt abi: %w", err)
	}
	faucetABI, err := abi.JSON(strings.NewReader(faucetABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse faucet abi: %w", err)
	}

	return &EthChain{
		client:     client,
		chainID:    big.NewInt(chainID),
		sbtAddr:    sbtAddr,
		faucetAddr: faucetAddr,
		sbtABI:     sbtABI,
		faucetABI:  faucetABI,
		faucetKey:  faucetKey,
	}, nil
}

func (e *EthChain) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	out, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	res, err := contractABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}

	return res, nil
}

// BadgeBalance returns the SBT balance of the wallet.
func (e *EthChain) BadgeBalance(ctx context.Context, wallet common.Address) (*big.Int, error) {
	res, err := e.call(ctx, e.sbtAddr, e.sbtABI, "balanceOf", wallet)
	if err != nil {
		return nil, err
	}

	balance, ok := res[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf return type %T", res[0])
	}
	return balance, nil
}

// MessageHashes returns the message commitments anchored to a badge.
func (e *EthChain) MessageHashes(ctx context.Context, tokenID *big.Int) ([]string, error) {
	res, err := e.call(ctx, e.sbtAddr, e.sbtABI, "getMessages", tokenID)
	if err != nil {
		return nil, err
	}

	hashes, ok := res[0].([]string)
	if !ok {
		return nil, fmt.Errorf("unexpected getMessages return type %T", res[0])
	}
	return hashes, nil
}

// MintNative sends the faucet mintNativeCoin transaction. Gas estimation
// doubles as a simulation, so a claim that would revert fails here
// before any entitlement state is touched.
func (e *EthChain) MintNative(ctx context.Context, to common.Address, amount *big.Int) error {
	data, err := e.faucetABI.Pack("mintNativeCoin", to, amount)
	if err != nil {
		return fmt.Errorf("failed to pack mintNativeCoin: %w", err)
	}

	from := crypto.PubkeyToAddress(e.faucetKey.PublicKey)

	nonce, err := e.client.PendingNonceAt(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to fetch nonce: %w", err)
	}
	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch gas price: %w", err)
	}
	gasLimit, err := e.client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &e.faucetAddr,
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("mintNativeCoin simulation failed: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &e.faucetAddr,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(e.chainID), e.faucetKey)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	return nil
}
