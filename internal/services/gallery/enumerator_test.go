package gallery

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/testutil"
)

func TestCollectionEnumerator(t *testing.T) {
	contract := &testutil.MockTokenContract{
		TotalSupplyFn: func(ctx context.Context) (uint64, error) { return 4, nil },
	}
	e := NewCollectionEnumerator(10, 100)

	ids, err := e.Enumerate(context.Background(), contract)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	want := []entity.TokenID{1, 2, 3, 4}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
	if !e.IncludeOwner() || e.BatchSize() != 10 || e.Kind() != entity.CycleCollection {
		t.Errorf("unexpected enumerator parameters: %+v", e)
	}
}

func TestCollectionEnumerator_Error(t *testing.T) {
	boom := errors.New("rpc down")
	contract := &testutil.MockTokenContract{
		TotalSupplyFn: func(ctx context.Context) (uint64, error) { return 0, boom },
	}
	_, err := NewCollectionEnumerator(10, 100).Enumerate(context.Background(), contract)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestCollectionEnumerator_SupplyBound(t *testing.T) {
	tests := []struct {
		name    string
		supply  uint64
		wantErr bool
	}{
		{name: "at bound", supply: 100},
		{name: "above bound", supply: 101, wantErr: true},
		{name: "huge supply", supply: 1 << 62, wantErr: true},
		{name: "max uint64", supply: ^uint64(0), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract := &testutil.MockTokenContract{
				TotalSupplyFn: func(ctx context.Context) (uint64, error) { return tt.supply, nil },
			}
			ids, err := NewCollectionEnumerator(10, 100).Enumerate(context.Background(), contract)
			if tt.wantErr {
				if !errors.Is(err, ErrSupplyTooLarge) {
					t.Fatalf("err = %v, want %v", err, ErrSupplyTooLarge)
				}
				if ids != nil {
					t.Errorf("ids = %d entries, want nil", len(ids))
				}
				return
			}
			if err != nil {
				t.Fatalf("Enumerate: %v", err)
			}
			if uint64(len(ids)) != tt.supply {
				t.Errorf("len(ids) = %d, want %d", len(ids), tt.supply)
			}
		})
	}
}

func TestWalletEnumerator_PreservesOrder(t *testing.T) {
	account := common.HexToAddress("0xBEEF")
	var asked common.Address
	contract := &testutil.MockTokenContract{
		WalletOfOwnerFn: func(ctx context.Context, owner common.Address) ([]entity.TokenID, error) {
			asked = owner
			return []entity.TokenID{9, 3, 7}, nil
		},
	}
	e := NewWalletEnumerator(account, 5)

	ids, err := e.Enumerate(context.Background(), contract)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if asked != account {
		t.Errorf("asked for %s, want %s", asked.Hex(), account.Hex())
	}
	if len(ids) != 3 || ids[0] != 9 || ids[1] != 3 || ids[2] != 7 {
		t.Errorf("ids = %v", ids)
	}
	if e.IncludeOwner() || e.Owner() != account || e.BatchSize() != 5 {
		t.Errorf("unexpected enumerator parameters: %+v", e)
	}
}
