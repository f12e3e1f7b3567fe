package multicall

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/pkg/partition"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

var _ outbound.Multicaller = (*DirectCaller)(nil)

// DefaultMaxBatch is the largest JSON-RPC batch most public providers accept.
const DefaultMaxBatch = 100

// BatchCaller is the subset of *rpc.Client used by DirectCaller.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// DirectCaller implements outbound.Multicaller by sending one eth_call per
// target inside JSON-RPC batches. It serves chains where Multicall3 is not
// deployed, such as private test networks.
type DirectCaller struct {
	rpcClient BatchCaller
	maxBatch  int
}

// NewDirectCaller creates a DirectCaller. maxBatch < 1 selects DefaultMaxBatch.
func NewDirectCaller(rpcClient BatchCaller, maxBatch int) *DirectCaller {
	if maxBatch < 1 {
		maxBatch = DefaultMaxBatch
	}
	return &DirectCaller{rpcClient: rpcClient, maxBatch: maxBatch}
}

// ethCallArg mirrors go-ethereum's callMsg JSON encoding for eth_call.
type ethCallArg struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// Execute sends the calls in as few batch requests as maxBatch allows.
// Results keep the order of calls.
func (c *DirectCaller) Execute(ctx context.Context, calls []outbound.Call, blockNumber *big.Int) ([]outbound.Result, error) {
	results := make([]outbound.Result, 0, len(calls))
	for _, chunk := range partition.Batches(calls, c.maxBatch) {
		part, err := c.executeBatch(ctx, chunk, toBlockNumArg(blockNumber))
		if err != nil {
			return nil, err
		}
		results = append(results, part...)
	}
	return results, nil
}

func (c *DirectCaller) executeBatch(ctx context.Context, calls []outbound.Call, blockArg string) ([]outbound.Result, error) {
	elems := make([]rpc.BatchElem, len(calls))
	returnData := make([]hexutil.Bytes, len(calls))
	for i, call := range calls {
		elems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []any{ethCallArg{To: call.Target, Data: call.CallData}, blockArg},
			Result: &returnData[i],
		}
	}

	if err := c.rpcClient.BatchCallContext(ctx, elems); err != nil {
		return nil, fmt.Errorf("batch eth_call failed: %w", err)
	}

	results := make([]outbound.Result, len(calls))
	for i, elem := range elems {
		if elem.Error == nil {
			results[i] = outbound.Result{Success: true, ReturnData: returnData[i]}
			continue
		}
		if !calls[i].AllowFailure {
			return nil, fmt.Errorf("direct call to %s failed: %w", calls[i].Target.Hex(), elem.Error)
		}
	}
	return results, nil
}

// Address returns the zero address; no aggregator contract is involved.
func (c *DirectCaller) Address() common.Address {
	return common.Address{}
}

func toBlockNumArg(number *big.Int) string {
	if number == nil || number.Sign() < 0 {
		return "latest"
	}
	return hexutil.EncodeBig(number)
}
