package erc721

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

var _ outbound.TokenContract = (*MulticallContract)(nil)

// MulticallContract folds the record lookups of one FetchRecords call into a
// single Multicaller round trip. Enumeration calls go through the embedded
// Contract.
type MulticallContract struct {
	*Contract
	multicaller outbound.Multicaller
}

// NewMulticallContract wraps c so that FetchRecords uses multicaller.
func NewMulticallContract(c *Contract, multicaller outbound.Multicaller) (*MulticallContract, error) {
	if c == nil {
		return nil, fmt.Errorf("contract cannot be nil")
	}
	if multicaller == nil {
		return nil, fmt.Errorf("multicaller cannot be nil")
	}
	return &MulticallContract{Contract: c, multicaller: multicaller}, nil
}

// FetchRecords issues tokenURI (and ownerOf when includeOwner) for every id in
// one Execute. A failed inner call fails the whole lookup.
func (m *MulticallContract) FetchRecords(ctx context.Context, ids []entity.TokenID, includeOwner bool) ([]entity.TokenRecord, error) {
	if len(ids) == 0 {
		return []entity.TokenRecord{}, nil
	}

	perID := 1
	if includeOwner {
		perID = 2
	}
	calls := make([]outbound.Call, 0, len(ids)*perID)
	for _, id := range ids {
		uriData, err := m.abi.Pack("tokenURI", id.Big())
		if err != nil {
			return nil, fmt.Errorf("packing tokenURI: %w", err)
		}
		calls = append(calls, outbound.Call{Target: m.address, AllowFailure: true, CallData: uriData})
		if includeOwner {
			ownerData, err := m.abi.Pack("ownerOf", id.Big())
			if err != nil {
				return nil, fmt.Errorf("packing ownerOf: %w", err)
			}
			calls = append(calls, outbound.Call{Target: m.address, AllowFailure: true, CallData: ownerData})
		}
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.CallTimeout)
	defer cancel()

	start := time.Now()
	results, err := m.multicaller.Execute(ctx, calls, nil)
	if err != nil {
		return nil, fmt.Errorf("executing multicall for %d tokens: %w", len(ids), err)
	}
	if len(results) != len(calls) {
		return nil, fmt.Errorf("expected %d multicall results, got %d", len(calls), len(results))
	}

	records := make([]entity.TokenRecord, len(ids))
	for i, id := range ids {
		records[i].ID = id

		uriRes := results[i*perID]
		if !uriRes.Success {
			return nil, fmt.Errorf("token %s: tokenURI reverted", id)
		}
		out, err := m.abi.Unpack("tokenURI", uriRes.ReturnData)
		if err != nil {
			return nil, fmt.Errorf("token %s: unpacking tokenURI: %w", id, err)
		}
		records[i].TokenURI = out[0].(string)

		if !includeOwner {
			continue
		}
		ownerRes := results[i*perID+1]
		if !ownerRes.Success {
			return nil, fmt.Errorf("token %s: ownerOf reverted", id)
		}
		out, err = m.abi.Unpack("ownerOf", ownerRes.ReturnData)
		if err != nil {
			return nil, fmt.Errorf("token %s: unpacking ownerOf: %w", id, err)
		}
		rec, err := entity.NewTokenRecord(id, records[i].TokenURI, out[0].(common.Address))
		if err != nil {
			return nil, err
		}
		records[i] = *rec
	}

	m.logger.Debug("fetched records via multicall",
		"tokens", len(ids),
		"calls", len(calls),
		"duration", time.Since(start),
		"includeOwner", includeOwner)
	return records, nil
}
