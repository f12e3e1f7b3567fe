package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

// MockTokenContract implements outbound.TokenContract for testing. Unset
// functions fall back to a collection where every token is owned by
// WalletAddress with URI "https://meta.test/<id>".
type MockTokenContract struct {
	mu sync.Mutex

	TotalSupplyFn   func(ctx context.Context) (uint64, error)
	WalletOfOwnerFn func(ctx context.Context, owner common.Address) ([]entity.TokenID, error)
	FetchRecordsFn  func(ctx context.Context, ids []entity.TokenID, includeOwner bool) ([]entity.TokenRecord, error)

	// FetchCalls records the ids of every FetchRecords call, in call order.
	FetchCalls [][]entity.TokenID
	// MaxInFlight is the highest number of concurrent FetchRecords calls seen.
	MaxInFlight int
	inFlight    int
}

func (m *MockTokenContract) Address() common.Address {
	return CollectionAddress
}

func (m *MockTokenContract) TotalSupply(ctx context.Context) (uint64, error) {
	if m.TotalSupplyFn != nil {
		return m.TotalSupplyFn(ctx)
	}
	return 0, errors.New("TotalSupply not mocked")
}

func (m *MockTokenContract) WalletOfOwner(ctx context.Context, owner common.Address) ([]entity.TokenID, error) {
	if m.WalletOfOwnerFn != nil {
		return m.WalletOfOwnerFn(ctx, owner)
	}
	return nil, errors.New("WalletOfOwner not mocked")
}

func (m *MockTokenContract) FetchRecords(ctx context.Context, ids []entity.TokenID, includeOwner bool) ([]entity.TokenRecord, error) {
	m.mu.Lock()
	m.FetchCalls = append(m.FetchCalls, append([]entity.TokenID(nil), ids...))
	m.inFlight++
	m.MaxInFlight = max(m.MaxInFlight, m.inFlight)
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.FetchRecordsFn != nil {
		return m.FetchRecordsFn(ctx, ids, includeOwner)
	}
	out := make([]entity.TokenRecord, len(ids))
	for i, id := range ids {
		out[i] = entity.TokenRecord{ID: id, TokenURI: "https://meta.test/" + id.String()}
		if includeOwner {
			out[i].Owner = WalletAddress
		}
	}
	return out, nil
}

// Calls returns a copy of the recorded FetchRecords calls.
func (m *MockTokenContract) Calls() [][]entity.TokenID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]entity.TokenID(nil), m.FetchCalls...)
}
