package testutil

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/blockchain"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/blockchain/abis"
)

// ErrExecutionReverted is what FakeChain returns for a reverted read.
var ErrExecutionReverted = errors.New("execution reverted")

// Default addresses used by FakeChain.
var (
	CollectionAddress = common.HexToAddress("0x401eC1012427D8570Ec260F914E213d642F53bEc")
	WalletAddress     = common.HexToAddress("0x00000000000000000000000000000000000A11CE")
)

// FakeChain is an in-memory ERC-721 collection behind the
// ethereum.ContractCaller interface. It also answers aggregate3 calls sent to
// the Multicall3 address.
type FakeChain struct {
	mu sync.Mutex

	Contract  common.Address
	Multicall common.Address
	ID        int64

	Supply  uint64
	Owners  map[entity.TokenID]common.Address
	URIs    map[entity.TokenID]string
	Wallets map[common.Address][]entity.TokenID

	// FailIDs makes ownerOf and tokenURI revert for the listed ids.
	FailIDs map[entity.TokenID]bool
	// Err fails every call when set.
	Err error

	calls map[string]int
	erc   *abi.ABI
	mc    *abi.ABI
}

// NewFakeChain returns a Polygon collection with supply tokens, all owned by
// WalletAddress, whose URIs are ipfs://meta/<id>.json.
func NewFakeChain(supply uint64) *FakeChain {
	erc, err := abis.GetERC721ABI()
	if err != nil {
		panic(err)
	}
	mc, err := abis.GetMulticall3ABI()
	if err != nil {
		panic(err)
	}

	f := &FakeChain{
		Contract:  CollectionAddress,
		Multicall: blockchain.Multicall3,
		ID:        137,
		Supply:    supply,
		Owners:    make(map[entity.TokenID]common.Address),
		URIs:      make(map[entity.TokenID]string),
		Wallets:   make(map[common.Address][]entity.TokenID),
		FailIDs:   make(map[entity.TokenID]bool),
		calls:     make(map[string]int),
		erc:       erc,
		mc:        mc,
	}
	for i := uint64(1); i <= supply; i++ {
		id := entity.TokenID(i)
		f.Owners[id] = WalletAddress
		f.URIs[id] = fmt.Sprintf("ipfs://meta/%d.json", i)
		f.Wallets[WalletAddress] = append(f.Wallets[WalletAddress], id)
	}
	return f
}

// Calls returns how many times method was invoked, including inner multicall calls.
func (f *FakeChain) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// ChainID returns the configured chain id.
func (f *FakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return big.NewInt(f.ID), nil
}

// CallContract implements ethereum.ContractCaller.
func (f *FakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if msg.To == nil {
		return nil, errors.New("missing call target")
	}
	switch *msg.To {
	case f.Multicall:
		return f.aggregate3(msg.Data)
	case f.Contract:
		return f.collectionCall(msg.Data)
	default:
		return nil, fmt.Errorf("no contract at %s", msg.To.Hex())
	}
}

func (f *FakeChain) aggregate3(data []byte) ([]byte, error) {
	f.count("aggregate3")
	if len(data) < 4 {
		return nil, ErrExecutionReverted
	}
	values, err := f.mc.Methods["aggregate3"].Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("decode aggregate3: %w", err)
	}
	calls := *abi.ConvertType(values[0], new([]struct {
		Target       common.Address
		AllowFailure bool
		CallData     []byte
	})).(*[]struct {
		Target       common.Address
		AllowFailure bool
		CallData     []byte
	})

	type result struct {
		Success    bool
		ReturnData []byte
	}
	results := make([]result, len(calls))
	for i, c := range calls {
		var ret []byte
		err := ErrExecutionReverted
		if c.Target == f.Contract {
			ret, err = f.collectionCall(c.CallData)
		}
		if err != nil {
			if !c.AllowFailure {
				return nil, fmt.Errorf("%w: Multicall3: call failed", ErrExecutionReverted)
			}
			continue
		}
		results[i] = result{Success: true, ReturnData: ret}
	}
	return f.mc.Methods["aggregate3"].Outputs.Pack(results)
}

func (f *FakeChain) collectionCall(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, ErrExecutionReverted
	}
	method, err := f.erc.MethodById(data[:4])
	if err != nil {
		return nil, ErrExecutionReverted
	}
	f.count(method.Name)
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method.Name, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch method.Name {
	case "totalSupply":
		return method.Outputs.Pack(new(big.Int).SetUint64(f.Supply))
	case "ownerOf":
		id := entity.TokenID(args[0].(*big.Int).Uint64())
		owner, ok := f.Owners[id]
		if !ok || f.FailIDs[id] {
			return nil, ErrExecutionReverted
		}
		return method.Outputs.Pack(owner)
	case "tokenURI":
		id := entity.TokenID(args[0].(*big.Int).Uint64())
		uri, ok := f.URIs[id]
		if !ok || f.FailIDs[id] {
			return nil, ErrExecutionReverted
		}
		return method.Outputs.Pack(uri)
	case "walletOfOwner":
		owned := f.Wallets[args[0].(common.Address)]
		ids := make([]*big.Int, len(owned))
		for i, id := range owned {
			ids[i] = id.Big()
		}
		return method.Outputs.Pack(ids)
	case "balanceOf":
		return method.Outputs.Pack(big.NewInt(int64(len(f.Wallets[args[0].(common.Address)]))))
	case "name":
		return method.Outputs.Pack("THE FOOLS")
	case "symbol":
		return method.Outputs.Pack("FOOLS")
	}
	return nil, ErrExecutionReverted
}

func (f *FakeChain) count(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}
