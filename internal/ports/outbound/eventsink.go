package outbound

import (
	"context"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

// CycleEventSink receives the tagged outcomes of every fetch cycle.
type CycleEventSink interface {
	// Publish delivers one outcome. Implementations must not block the cycle
	// for longer than the context allows.
	Publish(ctx context.Context, event entity.CycleEvent) error

	// Close closes the sink and releases any resources.
	Close() error
}
