package gallery

import (
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

func nftsFor(ids ...entity.TokenID) []entity.ResolvedNFT {
	out := make([]entity.ResolvedNFT, len(ids))
	for i, id := range ids {
		out[i] = entity.ResolvedNFT{TokenRecord: entity.TokenRecord{ID: id}, ImageURL: "https://img.test/" + id.String()}
	}
	return out
}

func TestProgress(t *testing.T) {
	tests := []struct {
		processed, total int
		want             float64
	}{
		{10, 23, 43.48},
		{20, 23, 86.96},
		{23, 23, 100},
		{30, 23, 100},
		{0, 0, 100},
		{0, 5, 0},
	}
	for _, tt := range tests {
		got := math.Round(Progress(tt.processed, tt.total)*100) / 100
		if got != tt.want {
			t.Errorf("Progress(%d, %d) = %v, want %v", tt.processed, tt.total, got, tt.want)
		}
	}
}

func TestState_BeginResets(t *testing.T) {
	s := NewState(16)
	gen := s.Begin(entity.CycleCollection, common.Address{})
	s.AppendBatch(gen, nftsFor(1, 2), 50)
	s.Paginate(3)
	s.Finish(gen)

	account := common.HexToAddress("0x1")
	gen2 := s.Begin(entity.CycleWallet, account)
	if gen2 != gen+1 {
		t.Fatalf("generation = %d, want %d", gen2, gen+1)
	}

	snap := s.Snapshot()
	if len(snap.NFTs) != 0 || !snap.Loading || snap.LoadingProgress != 0 || snap.CurrentPage != 1 {
		t.Errorf("state not reset: %+v", snap)
	}
	if snap.Kind != entity.CycleWallet || snap.Account != account.Hex() {
		t.Errorf("kind/account = %s/%s", snap.Kind, snap.Account)
	}
}

func TestState_StaleGenerationDiscarded(t *testing.T) {
	s := NewState(16)
	old := s.Begin(entity.CycleCollection, common.Address{})
	cur := s.Begin(entity.CycleCollection, common.Address{})

	if _, ok := s.AppendBatch(old, nftsFor(1), 10); ok {
		t.Error("AppendBatch with stale generation succeeded")
	}
	if s.SetProgress(old, 50) {
		t.Error("SetProgress with stale generation succeeded")
	}
	if s.Record(old, entity.CycleEvent{Generation: old}) {
		t.Error("Record with stale generation succeeded")
	}
	if s.Finish(old) {
		t.Error("Finish with stale generation succeeded")
	}

	snap := s.Snapshot()
	if len(snap.NFTs) != 0 || !snap.Loading || snap.LoadingProgress != 0 {
		t.Errorf("stale mutation leaked: %+v", snap)
	}
	if !s.Current(cur) {
		t.Error("current generation not reported current")
	}
}

func TestState_AppendSkipsDuplicates(t *testing.T) {
	s := NewState(16)
	gen := s.Begin(entity.CycleCollection, common.Address{})

	n, _ := s.AppendBatch(gen, nftsFor(1, 2, 3), 30)
	if n != 3 {
		t.Fatalf("appended = %d, want 3", n)
	}
	n, _ = s.AppendBatch(gen, nftsFor(3, 4), 40)
	if n != 1 {
		t.Fatalf("appended = %d, want 1", n)
	}

	snap := s.Snapshot()
	if len(snap.NFTs) != 4 {
		t.Fatalf("len = %d, want 4", len(snap.NFTs))
	}
	for i, want := range []entity.TokenID{1, 2, 3, 4} {
		if snap.NFTs[i].ID != want {
			t.Errorf("NFTs[%d] = %s, want %s", i, snap.NFTs[i].ID, want)
		}
	}
}

func TestState_SnapshotIsCopy(t *testing.T) {
	s := NewState(16)
	gen := s.Begin(entity.CycleCollection, common.Address{})
	s.AppendBatch(gen, nftsFor(1), 100)

	snap := s.Snapshot()
	snap.NFTs[0].ImageURL = "mutated"

	if got := s.Snapshot().NFTs[0].ImageURL; got == "mutated" {
		t.Error("snapshot shares backing array with state")
	}
}

func TestState_PaginationOverThirtyThree(t *testing.T) {
	s := NewState(16)
	gen := s.Begin(entity.CycleCollection, common.Address{})
	ids := make([]entity.TokenID, 33)
	for i := range ids {
		ids[i] = entity.TokenID(i + 1)
	}
	s.AppendBatch(gen, nftsFor(ids...), 100)
	s.Finish(gen)

	s.Paginate(3)
	snap := s.Snapshot()
	if snap.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", snap.TotalPages)
	}
	page := snap.Page()
	if len(page) != 1 || page[0].ID != 33 {
		t.Errorf("page 3 = %v, want [33]", page)
	}

	// out of range pages are accepted and render empty
	s.Paginate(9)
	if got := s.Snapshot().Page(); len(got) != 0 {
		t.Errorf("page 9 has %d items", len(got))
	}
}
