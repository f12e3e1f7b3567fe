// Package outbound defines the outbound port interfaces.
package outbound

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

// TokenContract is the read-only on-chain capability of the collection.
type TokenContract interface {
	// Address returns the collection contract address.
	Address() common.Address

	// TotalSupply returns the number of minted tokens.
	TotalSupply(ctx context.Context) (uint64, error)

	// WalletOfOwner returns the ids held by owner, in the order the contract reports them.
	WalletOfOwner(ctx context.Context, owner common.Address) ([]entity.TokenID, error)

	// FetchRecords returns one record per id, in input order. When includeOwner
	// is false the Owner field is left zero and only token URIs are queried.
	// Any failed lookup fails the whole call.
	FetchRecords(ctx context.Context, ids []entity.TokenID, includeOwner bool) ([]entity.TokenRecord, error)
}

// ChainIdentifier reports the chain id an RPC endpoint serves. *ethclient.Client
// satisfies it.
type ChainIdentifier interface {
	ChainID(ctx context.Context) (*big.Int, error)
}
