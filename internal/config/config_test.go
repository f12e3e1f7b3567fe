package config

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

func TestDefaultNetworks(t *testing.T) {
	nets := DefaultNetworks()
	if len(nets) != 10 {
		t.Fatalf("expected 10 networks, got %d", len(nets))
	}

	polygon, err := nets.Lookup(DefaultChainID)
	if err != nil {
		t.Fatalf("Lookup(%d): %v", DefaultChainID, err)
	}
	if polygon.Name != "Polygon" {
		t.Errorf("name = %q, want Polygon", polygon.Name)
	}
	if polygon.MarketplaceURL != "https://opensea.io/assets/matic" {
		t.Errorf("marketplace = %q", polygon.MarketplaceURL)
	}

	if _, err := nets.Lookup(999); !errors.Is(err, entity.ErrUnknownNetwork) {
		t.Errorf("expected ErrUnknownNetwork, got %v", err)
	}
}

func TestLoadNetworks_Errors(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		errContains string
	}{
		{name: "invalid yaml", doc: "networks: [", errContains: "parse network table"},
		{name: "missing name", doc: "networks:\n  - chainId: 5\n", errContains: "name must not be empty"},
		{
			name:        "duplicate",
			doc:         "networks:\n  - {chainId: 5, name: A}\n  - {chainId: 5, name: B}\n",
			errContains: "duplicate chain id 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadNetworks([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Fatalf("error = %v, want containing %q", err, tt.errContains)
			}
		})
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	for _, k := range []string{"CHAIN_ID", "CONTRACT_ADDRESS", "IPFS_GATEWAY", "USE_MULTICALL", "RPC_BATCH", "CALL_TIMEOUT", "HTTP_ADDR", "AWS_REGION", "MAX_SUPPLY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("RPC_URL", "http://localhost:8545")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.ChainID != DefaultChainID {
		t.Errorf("ChainID = %d", s.ChainID)
	}
	if s.Contract().Hex() != DefaultContract {
		t.Errorf("Contract = %s", s.Contract().Hex())
	}
	if s.CallTimeout != DefaultCallTimeout {
		t.Errorf("CallTimeout = %s", s.CallTimeout)
	}
	if s.IPFSGateway != DefaultIPFSGateway {
		t.Errorf("IPFSGateway = %s", s.IPFSGateway)
	}
	if s.UseMulticall || s.RPCBatch {
		t.Errorf("expected per-token calls by default, got multicall=%v batch=%v", s.UseMulticall, s.RPCBatch)
	}
	if s.AWSRegion != "eu-west-1" {
		t.Errorf("AWSRegion = %s", s.AWSRegion)
	}
	if s.MaxSupply != MaxCollectionSupply {
		t.Errorf("MaxSupply = %d, want %d", s.MaxSupply, MaxCollectionSupply)
	}
}

func TestSettings_Validate(t *testing.T) {
	valid := Settings{ChainID: 137, ContractAddress: DefaultContract, CallTimeout: time.Second, MaxSupply: 10}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Settings) {}},
		{name: "bad address", mutate: func(s *Settings) { s.ContractAddress = "0x123" }, wantErr: true},
		{name: "zero chain", mutate: func(s *Settings) { s.ChainID = 0 }, wantErr: true},
		{name: "zero timeout", mutate: func(s *Settings) { s.CallTimeout = 0 }, wantErr: true},
		{name: "zero max supply", mutate: func(s *Settings) { s.MaxSupply = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			if err := s.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
