// Package inbound contains the primary/inbound ports.
// These interfaces define the use cases that the application exposes.
package inbound

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

// GalleryReader is the renderer read contract.
type GalleryReader interface {
	// Snapshot returns a copy of the current gallery state.
	Snapshot() entity.GallerySnapshot

	// Paginate sets the current page. No bounds are enforced.
	Paginate(page int)
}

// GalleryService runs fetch cycles and exposes their results.
type GalleryService interface {
	GalleryReader

	// LoadCollection runs a collection cycle to completion.
	LoadCollection(ctx context.Context) error

	// LoadWallet runs a wallet cycle for account to completion.
	LoadWallet(ctx context.Context, account common.Address) error
}

// GalleryRefresher starts fetch cycles without waiting for them.
type GalleryRefresher interface {
	// Refresh starts a cycle of kind in the background, superseding any
	// running cycle. For wallet cycles a non-zero account replaces the
	// connected account; without one it returns entity.ErrNotConnected.
	Refresh(kind entity.CycleKind, account common.Address) error
}

// HealthChecker reports readiness and liveness.
type HealthChecker interface {
	// IsReady returns true once the first cycle has finished.
	IsReady() bool

	// IsHealthy returns true while the service is operating normally.
	IsHealthy() bool
}
