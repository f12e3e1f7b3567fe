package outbound

import (
	"context"
	"time"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

// GalleryMetrics records pipeline measurements without tying the service to a
// telemetry implementation.
type GalleryMetrics interface {
	RecordBatch(ctx context.Context, cycle entity.CycleKind, size int, duration time.Duration, dropped bool)
	RecordPlaceholder(ctx context.Context, cycle entity.CycleKind)
	RecordCycle(ctx context.Context, cycle entity.CycleKind, outcome entity.OutcomeKind, duration time.Duration, nfts int)
}
