package abis

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func ParseABI(abiJSON string) (*abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// cached parses abiJSON once. The returned ABI is shared and must not be mutated.
func cached(abiJSON string) func() (*abi.ABI, error) {
	return sync.OnceValues(func() (*abi.ABI, error) {
		return ParseABI(abiJSON)
	})
}
