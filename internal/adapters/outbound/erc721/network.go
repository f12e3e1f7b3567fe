package erc721

import (
	"context"
	"fmt"
	"time"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/outbound"
)

// VerifyChain fails with *entity.WrongNetworkError when the endpoint behind
// client does not serve the expected network.
func VerifyChain(ctx context.Context, client outbound.ChainIdentifier, expected entity.Network, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	id, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("reading chain id: %w", err)
	}
	if !id.IsInt64() || id.Int64() != expected.ChainID {
		actual := int64(-1)
		if id.IsInt64() {
			actual = id.Int64()
		}
		return &entity.WrongNetworkError{Expected: expected, ActualID: actual}
	}
	return nil
}
