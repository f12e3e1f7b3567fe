// Package erc721 reads the collection contract over JSON-RPC.
package erc721

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/blockchain/abis"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

var _ outbound.TokenContract = (*Contract)(nil)

// Config holds configuration for the contract reader.
type Config struct {
	// CallTimeout bounds every individual eth_call.
	CallTimeout time.Duration

	Logger *slog.Logger
}

// ConfigDefaults returns a config with default values.
func ConfigDefaults() Config {
	return Config{
		CallTimeout: 15 * time.Second,
		Logger:      slog.Default(),
	}
}

// Contract issues ownerOf and tokenURI as independent eth_calls, in parallel
// across the ids of one FetchRecords call.
type Contract struct {
	caller  ethereum.ContractCaller
	address common.Address
	abi     *abi.ABI
	config  Config
	logger  *slog.Logger
}

// NewContract creates a reader for the collection at address.
func NewContract(caller ethereum.ContractCaller, address common.Address, config Config) (*Contract, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller cannot be nil")
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("contract address cannot be zero")
	}

	defaults := ConfigDefaults()
	if config.CallTimeout <= 0 {
		config.CallTimeout = defaults.CallTimeout
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	parsed, err := abis.GetERC721ABI()
	if err != nil {
		return nil, fmt.Errorf("failed to load ERC721 ABI: %w", err)
	}

	return &Contract{
		caller:  caller,
		address: address,
		abi:     parsed,
		config:  config,
		logger:  config.Logger.With("component", "erc721", "contract", address.Hex()),
	}, nil
}

func (c *Contract) Address() common.Address {
	return c.address
}

// TotalSupply returns the number of minted tokens.
func (c *Contract) TotalSupply(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, "totalSupply")
	if err != nil {
		return 0, err
	}
	supply, err := entity.TokenIDFromBig(out[0].(*big.Int))
	if err != nil {
		return 0, fmt.Errorf("totalSupply: %w", err)
	}
	return uint64(supply), nil
}

// WalletOfOwner returns the ids held by owner in contract order.
func (c *Contract) WalletOfOwner(ctx context.Context, owner common.Address) ([]entity.TokenID, error) {
	out, err := c.call(ctx, "walletOfOwner", owner)
	if err != nil {
		return nil, err
	}
	raw := out[0].([]*big.Int)
	ids := make([]entity.TokenID, len(raw))
	for i, v := range raw {
		if ids[i], err = entity.TokenIDFromBig(v); err != nil {
			return nil, fmt.Errorf("walletOfOwner(%s)[%d]: %w", owner.Hex(), i, err)
		}
	}
	return ids, nil
}

// OwnerOf returns the current owner of id.
func (c *Contract) OwnerOf(ctx context.Context, id entity.TokenID) (common.Address, error) {
	out, err := c.call(ctx, "ownerOf", id.Big())
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// TokenURI returns the metadata URI of id as stored on chain.
func (c *Contract) TokenURI(ctx context.Context, id entity.TokenID) (string, error) {
	out, err := c.call(ctx, "tokenURI", id.Big())
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

// FetchRecords looks up every id concurrently. The first failure cancels the
// remaining lookups and is returned.
func (c *Contract) FetchRecords(ctx context.Context, ids []entity.TokenID, includeOwner bool) ([]entity.TokenRecord, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	records := make([]entity.TokenRecord, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		records[i].ID = id

		wg.Add(1)
		go func() {
			defer wg.Done()
			uri, err := c.TokenURI(ctx, id)
			if err != nil {
				cancel(fmt.Errorf("token %s: %w", id, err))
				return
			}
			records[i].TokenURI = uri
		}()

		if !includeOwner {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			owner, err := c.OwnerOf(ctx, id)
			if err != nil {
				cancel(fmt.Errorf("token %s: %w", id, err))
				return
			}
			records[i].Owner = owner
		}()
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		c.logger.Debug("record lookup failed", "ids", len(ids), "error", err)
		return nil, err
	}
	if includeOwner {
		return validateOwned(records)
	}
	return records, nil
}

// validateOwned rebuilds records through entity.NewTokenRecord so a zero
// owner fails the batch.
func validateOwned(records []entity.TokenRecord) ([]entity.TokenRecord, error) {
	for i, r := range records {
		rec, err := entity.NewTokenRecord(r.ID, r.TokenURI, r.Owner)
		if err != nil {
			return nil, err
		}
		records[i] = *rec
	}
	return records, nil
}

func (c *Contract) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.CallTimeout)
	defer cancel()

	ret, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}

	out, err := c.abi.Unpack(method, ret)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("unpacking %s: empty result", method)
	}
	return out, nil
}
