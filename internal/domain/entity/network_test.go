package entity

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNewNetwork(t *testing.T) {
	tests := []struct {
		name        string
		chainID     int64
		netName     string
		wantErr     bool
		errContains string
	}{
		{name: "valid", chainID: 137, netName: "Polygon"},
		{name: "zero chain", chainID: 0, netName: "Polygon", wantErr: true, errContains: "chainID must be positive"},
		{name: "empty name", chainID: 137, netName: " ", wantErr: true, errContains: "name must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNetwork(tt.chainID, tt.netName, "https://polygonscan.com", "https://opensea.io/assets/matic")
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("error = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNetwork_Links(t *testing.T) {
	n := Network{
		ChainID:        137,
		Name:           "Polygon",
		ExplorerURL:    "https://polygonscan.com/",
		MarketplaceURL: "https://opensea.io/assets/matic",
	}
	addr := common.HexToAddress("0x401eC1012427D8570Ec260F914E213d642F53bEc")

	if got, want := n.ExplorerAddressURL(addr), "https://polygonscan.com/address/0x401eC1012427D8570Ec260F914E213d642F53bEc"; got != want {
		t.Errorf("ExplorerAddressURL = %q, want %q", got, want)
	}
	if got, want := n.MarketplaceAssetURL(addr, 12), "https://opensea.io/assets/matic/0x401eC1012427D8570Ec260F914E213d642F53bEc/12"; got != want {
		t.Errorf("MarketplaceAssetURL = %q, want %q", got, want)
	}

	var bare Network
	if bare.ExplorerAddressURL(addr) != "" || bare.MarketplaceAssetURL(addr, 1) != "" {
		t.Error("network without templates should produce empty links")
	}
}

func TestWrongNetworkError(t *testing.T) {
	err := error(&WrongNetworkError{Expected: Network{ChainID: 137, Name: "Polygon"}, ActualID: 1})
	if !errors.Is(err, ErrWrongNetwork) {
		t.Error("expected errors.Is(err, ErrWrongNetwork)")
	}
	if !strings.Contains(err.Error(), "Please switch to Polygon.") {
		t.Errorf("unexpected message %q", err.Error())
	}
}
