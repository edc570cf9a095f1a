package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Chain is the on-chain collaborator: SBT contract reads and the faucet
// mint transaction. Implementations talk to a single RPC endpoint.
type Chain interface {
	// BadgeBalance returns the SBT balance of the wallet.
	BadgeBalance(ctx context.Context, wallet common.Address) (*big.Int, error)

	// MessageHashes returns the message commitments anchored to a badge.
	MessageHashes(ctx context.Context, tokenID *big.Int) ([]string, error)

	// MintNative sends the faucet mintNativeCoin transaction and waits
	// for it to be accepted by the node.
	MintNative(ctx context.Context, to common.Address, amount *big.Int) error
}
