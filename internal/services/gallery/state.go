package gallery

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

// State is the in-memory gallery of the current fetch cycle.
//
// Every mutation carries the generation of the cycle that produced it and is
// discarded when a newer cycle has begun since. Readers get copies.
type State struct {
	mu sync.RWMutex

	generation uint64
	kind       entity.CycleKind
	account    common.Address
	nfts       []entity.ResolvedNFT
	seen       map[entity.TokenID]struct{}
	loading    bool
	progress   float64
	page       int
	pageSize   int
	outcomes   []entity.CycleEvent

	startedAt  time.Time
	finishedAt time.Time
	finished   int
}

// NewState returns an empty, idle gallery.
func NewState(pageSize int) *State {
	if pageSize <= 0 {
		pageSize = entity.DefaultPageSize
	}
	return &State{
		seen:     make(map[entity.TokenID]struct{}),
		page:     1,
		pageSize: pageSize,
	}
}

// Begin clears the gallery for a new cycle and returns its generation.
func (s *State) Begin(kind entity.CycleKind, account common.Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.kind = kind
	s.account = account
	s.nfts = nil
	s.seen = make(map[entity.TokenID]struct{})
	s.loading = true
	s.progress = 0
	s.page = 1
	s.outcomes = nil
	s.startedAt = time.Now()
	return s.generation
}

// Generation returns the generation of the most recent cycle.
func (s *State) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Current reports whether gen is still the active generation.
func (s *State) Current(gen uint64) bool {
	return s.Generation() == gen
}

// AppendBatch appends nfts and publishes progress in one step. Ids already in
// the gallery are skipped. It returns false when gen has been superseded.
func (s *State) AppendBatch(gen uint64, nfts []entity.ResolvedNFT, progress float64) (appended int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return 0, false
	}
	for _, n := range nfts {
		if _, dup := s.seen[n.ID]; dup {
			continue
		}
		s.seen[n.ID] = struct{}{}
		s.nfts = append(s.nfts, n)
		appended++
	}
	s.progress = progress
	return appended, true
}

// SetProgress publishes progress without appending, as for a dropped batch.
func (s *State) SetProgress(gen uint64, progress float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.progress = progress
	return true
}

// Record keeps ev as an outcome of the current cycle.
func (s *State) Record(gen uint64, ev entity.CycleEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.outcomes = append(s.outcomes, ev)
	return true
}

// Finish clears the loading flag of cycle gen.
func (s *State) Finish(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.loading = false
	s.finished++
	s.finishedAt = time.Now()
	return true
}

// Paginate sets the current page. No bounds are enforced.
func (s *State) Paginate(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
}

// Snapshot returns a copy of the gallery.
func (s *State) Snapshot() entity.GallerySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := entity.GallerySnapshot{
		Generation:      s.generation,
		Kind:            s.kind,
		NFTs:            append([]entity.ResolvedNFT(nil), s.nfts...),
		Loading:         s.loading,
		LoadingProgress: s.progress,
		CurrentPage:     s.page,
		TotalPages:      entity.TotalPages(len(s.nfts), s.pageSize),
		PageSize:        s.pageSize,
		Outcomes:        append([]entity.CycleEvent(nil), s.outcomes...),
	}
	if s.account != (common.Address{}) {
		snap.Account = s.account.Hex()
	}
	return snap
}

// loadingSince returns when the running cycle started, or the zero time when idle.
func (s *State) loadingSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loading {
		return time.Time{}
	}
	return s.startedAt
}

// finishedCycles returns how many cycles have finished.
func (s *State) finishedCycles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finished
}

// Progress returns min(100, 100*processed/total). An empty id set is complete.
func Progress(processed, total int) float64 {
	if total <= 0 {
		return 100
	}
	return min(100, 100*float64(processed)/float64(total))
}
