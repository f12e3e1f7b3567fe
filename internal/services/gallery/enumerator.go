package gallery

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

// ErrSupplyTooLarge is returned when the reported total supply exceeds the
// collection bound.
var ErrSupplyTooLarge = errors.New("total supply exceeds collection bound")

// Enumerator produces the id set of a fetch cycle and the batch parameters
// the resolver uses for it.
type Enumerator interface {
	Kind() entity.CycleKind
	Enumerate(ctx context.Context, contract outbound.TokenContract) ([]entity.TokenID, error)
	BatchSize() int
	// IncludeOwner reports whether records must carry an on-chain owner.
	IncludeOwner() bool
	// Owner is assigned to records fetched without an owner.
	Owner() common.Address
}

// CollectionEnumerator lists every minted id, 1..totalSupply. A supply above
// maxSupply fails enumeration instead of materialising the id set.
type CollectionEnumerator struct {
	batchSize int
	maxSupply uint64
}

func NewCollectionEnumerator(batchSize int, maxSupply uint64) CollectionEnumerator {
	return CollectionEnumerator{batchSize: batchSize, maxSupply: maxSupply}
}

func (e CollectionEnumerator) Kind() entity.CycleKind { return entity.CycleCollection }
func (e CollectionEnumerator) BatchSize() int         { return e.batchSize }
func (e CollectionEnumerator) IncludeOwner() bool     { return true }
func (e CollectionEnumerator) Owner() common.Address  { return common.Address{} }

func (e CollectionEnumerator) Enumerate(ctx context.Context, contract outbound.TokenContract) ([]entity.TokenID, error) {
	supply, err := contract.TotalSupply(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading total supply: %w", err)
	}
	if supply > e.maxSupply {
		return nil, fmt.Errorf("%w: %d > %d", ErrSupplyTooLarge, supply, e.maxSupply)
	}
	ids := make([]entity.TokenID, supply)
	for i := range ids {
		ids[i] = entity.TokenID(i + 1)
	}
	return ids, nil
}

// WalletEnumerator lists the ids held by one account, in contract order.
type WalletEnumerator struct {
	account   common.Address
	batchSize int
}

func NewWalletEnumerator(account common.Address, batchSize int) WalletEnumerator {
	return WalletEnumerator{account: account, batchSize: batchSize}
}

func (e WalletEnumerator) Kind() entity.CycleKind { return entity.CycleWallet }
func (e WalletEnumerator) BatchSize() int         { return e.batchSize }
func (e WalletEnumerator) IncludeOwner() bool     { return false }
func (e WalletEnumerator) Owner() common.Address  { return e.account }

func (e WalletEnumerator) Enumerate(ctx context.Context, contract outbound.TokenContract) ([]entity.TokenID, error) {
	ids, err := contract.WalletOfOwner(ctx, e.account)
	if err != nil {
		return nil, fmt.Errorf("reading wallet of %s: %w", e.account.Hex(), err)
	}
	return ids, nil
}
