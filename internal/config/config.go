// Package config holds the static gallery configuration: the network table
// and the defaults every binary starts from.
package config

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/env"
)

const (
	// DefaultContract is THE FOOLS collection on Polygon.
	DefaultContract = "0x401eC1012427D8570Ec260F914E213d642F53bEc"
	DefaultChainID  = 137

	// PlaceholderImage is shown whenever an image cannot be resolved.
	PlaceholderImage = "https://via.placeholder.com/200x200?text=NFT+Image"
	// DefaultIPFSGateway replaces the ipfs:// scheme.
	DefaultIPFSGateway = "https://ipfs.io"

	PageSize            = entity.DefaultPageSize
	CollectionBatchSize = 10
	WalletBatchSize     = 5
	DefaultCallTimeout  = 15 * time.Second
	// MaxCollectionSupply caps the id set of a collection cycle.
	MaxCollectionSupply = 100_000
)

//go:embed networks.yaml
var networksYAML []byte

type networkFile struct {
	Networks []entity.Network `yaml:"networks"`
}

// Networks is the chain id indexed network table.
type Networks map[int64]entity.Network

// LoadNetworks parses a network table document.
func LoadNetworks(data []byte) (Networks, error) {
	var f networkFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse network table: %w", err)
	}
	out := make(Networks, len(f.Networks))
	for i, n := range f.Networks {
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("network entry %d: %w", i, err)
		}
		if _, dup := out[n.ChainID]; dup {
			return nil, fmt.Errorf("network entry %d: duplicate chain id %d", i, n.ChainID)
		}
		out[n.ChainID] = n
	}
	return out, nil
}

// DefaultNetworks returns the embedded network table.
func DefaultNetworks() Networks {
	n, err := LoadNetworks(networksYAML)
	if err != nil {
		panic(err)
	}
	return n
}

// Lookup returns the network for chainID.
func (n Networks) Lookup(chainID int64) (entity.Network, error) {
	net, ok := n[chainID]
	if !ok {
		return entity.Network{}, fmt.Errorf("%w: chain id %d", entity.ErrUnknownNetwork, chainID)
	}
	return net, nil
}

// Settings is the runtime configuration read from the environment.
type Settings struct {
	RPCURL          string        `env:"RPC_URL"`
	ChainID         int64         `env:"CHAIN_ID" envDefault:"137"`
	ContractAddress string        `env:"CONTRACT_ADDRESS" envDefault:"0x401eC1012427D8570Ec260F914E213d642F53bEc"`
	IPFSGateway     string        `env:"IPFS_GATEWAY" envDefault:"https://ipfs.io"`
	UseMulticall    bool          `env:"USE_MULTICALL" envDefault:"false"`
	RPCBatch        bool          `env:"RPC_BATCH" envDefault:"false"`
	CallTimeout     time.Duration `env:"CALL_TIMEOUT" envDefault:"15s"`
	MaxSupply       uint64        `env:"MAX_SUPPLY" envDefault:"100000"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	AWSRegion       string        `env:"AWS_REGION" envDefault:"eu-west-1"`
	SNSTopicARN     string        `env:"SNS_TOPIC_ARN"`
	SQSQueueURL     string        `env:"SQS_QUEUE_URL"`
	SnapshotBucket  string        `env:"SNAPSHOT_BUCKET"`
	OTELEndpoint    string        `env:"OTEL_ENDPOINT"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
}

// LoadSettings reads Settings from the environment after loading .env files.
func LoadSettings() (Settings, error) {
	env.LoadDotEnv()
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks fields the environment parser cannot.
func (s Settings) Validate() error {
	if !common.IsHexAddress(s.ContractAddress) {
		return fmt.Errorf("CONTRACT_ADDRESS %q is not a valid address", s.ContractAddress)
	}
	if s.ChainID <= 0 {
		return fmt.Errorf("CHAIN_ID must be positive, got %d", s.ChainID)
	}
	if s.CallTimeout <= 0 {
		return fmt.Errorf("CALL_TIMEOUT must be positive, got %s", s.CallTimeout)
	}
	if s.MaxSupply == 0 {
		return fmt.Errorf("MAX_SUPPLY must be positive")
	}
	return nil
}

// Contract returns the configured collection address.
func (s Settings) Contract() common.Address {
	return common.HexToAddress(s.ContractAddress)
}
