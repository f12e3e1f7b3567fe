// Package entity contains the core domain entities of the NFT gallery.
package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrWrongNetwork is returned when the RPC endpoint serves another chain.
	ErrWrongNetwork = errors.New("wrong network")
	// ErrUnknownNetwork is returned for chain ids missing from the network table.
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrNotConnected is returned when a wallet cycle starts without an account.
	ErrNotConnected = errors.New("wallet not connected")
)

// Network represents a chain the collection can be deployed on.
type Network struct {
	ChainID int64  `yaml:"chainId"`
	Name    string `yaml:"name"`
	// ExplorerURL is the block explorer base, e.g. https://polygonscan.com.
	ExplorerURL string `yaml:"explorer"`
	// MarketplaceURL is the marketplace asset base, ending in the chain segment.
	MarketplaceURL string `yaml:"marketplace"`
}

// NewNetwork creates a new Network entity with validation.
func NewNetwork(chainID int64, name, explorerURL, marketplaceURL string) (*Network, error) {
	n := &Network{
		ChainID:        chainID,
		Name:           name,
		ExplorerURL:    explorerURL,
		MarketplaceURL: marketplaceURL,
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks that the network entry is usable.
func (n *Network) Validate() error {
	if n.ChainID <= 0 {
		return fmt.Errorf("chainID must be positive, got %d", n.ChainID)
	}
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	return nil
}

// ExplorerAddressURL links an address on the block explorer.
func (n Network) ExplorerAddressURL(addr common.Address) string {
	if n.ExplorerURL == "" {
		return ""
	}
	return strings.TrimRight(n.ExplorerURL, "/") + "/address/" + addr.Hex()
}

// MarketplaceAssetURL links one token of a contract on the marketplace.
func (n Network) MarketplaceAssetURL(contract common.Address, id TokenID) string {
	if n.MarketplaceURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(n.MarketplaceURL, "/"), contract.Hex(), id)
}

// WrongNetworkError carries the expected and actual chain ids.
type WrongNetworkError struct {
	Expected Network
	ActualID int64
}

func (e *WrongNetworkError) Error() string {
	return fmt.Sprintf("connected to chain %d. Please switch to %s.", e.ActualID, e.Expected.Name)
}

func (e *WrongNetworkError) Unwrap() error {
	return ErrWrongNetwork
}
