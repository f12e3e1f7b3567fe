package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	testOwner    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testNetwork  = entity.Network{
		ChainID:        137,
		Name:           "Polygon",
		ExplorerURL:    "https://polygonscan.com",
		MarketplaceURL: "https://opensea.io/assets/matic",
	}
)

type mockReader struct {
	snap  entity.GallerySnapshot
	pages []int
}

func (m *mockReader) Snapshot() entity.GallerySnapshot { return m.snap }

func (m *mockReader) Paginate(page int) {
	m.pages = append(m.pages, page)
	m.snap.CurrentPage = page
}

type refreshCall struct {
	kind    entity.CycleKind
	account common.Address
}

type mockRefresher struct {
	calls []refreshCall
	err   error
}

func (m *mockRefresher) Refresh(kind entity.CycleKind, account common.Address) error {
	m.calls = append(m.calls, refreshCall{kind: kind, account: account})
	return m.err
}

func newSnapshot(n int) entity.GallerySnapshot {
	nfts := make([]entity.ResolvedNFT, n)
	for i := range nfts {
		nfts[i] = entity.ResolvedNFT{
			TokenRecord: entity.TokenRecord{ID: entity.TokenID(i + 1), TokenURI: "ipfs://meta", Owner: testOwner},
			ImageURL:    "https://ipfs.io/ipfs/img",
		}
	}
	return entity.GallerySnapshot{
		Generation:      1,
		Kind:            entity.CycleCollection,
		NFTs:            nfts,
		LoadingProgress: 100,
		CurrentPage:     1,
		TotalPages:      (n + 15) / 16,
		PageSize:        16,
	}
}

func serve(h *GalleryHandler, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) entity.GalleryView {
	t.Helper()
	var view entity.GalleryView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return view
}

func TestGalleryHandler_Gallery(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantCount int
	}{
		{name: "current page", target: "/gallery", wantCount: 16},
		{name: "all pages", target: "/gallery?all=true", wantCount: 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &mockReader{snap: newSnapshot(33)}
			h := NewGalleryHandler(reader, nil, testNetwork, testContract, nil)

			w := serve(h, "GET", tt.target, "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected application/json, got %q", ct)
			}
			view := decodeView(t, w)
			if len(view.NFTs) != tt.wantCount {
				t.Errorf("expected %d NFTs, got %d", tt.wantCount, len(view.NFTs))
			}
			if view.Total != 33 || view.TotalPages != 3 {
				t.Errorf("expected total=33 pages=3, got total=%d pages=%d", view.Total, view.TotalPages)
			}
			if view.NFTs[0].OwnerURL == "" || view.NFTs[0].MarketplaceURL == "" {
				t.Errorf("expected owner and marketplace links, got %+v", view.NFTs[0])
			}
		})
	}
}

func TestGalleryHandler_Paginate(t *testing.T) {
	tests := []struct {
		name       string
		page       string
		wantStatus int
		wantCount  int
	}{
		{name: "last page", page: "3", wantStatus: http.StatusOK, wantCount: 1},
		{name: "past the end", page: "9", wantStatus: http.StatusOK, wantCount: 0},
		{name: "zero", page: "0", wantStatus: http.StatusBadRequest},
		{name: "negative", page: "-1", wantStatus: http.StatusBadRequest},
		{name: "not a number", page: "two", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &mockReader{snap: newSnapshot(33)}
			h := NewGalleryHandler(reader, nil, testNetwork, testContract, nil)

			w := serve(h, "POST", "/gallery/page/"+tt.page, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				if len(reader.pages) != 0 {
					t.Errorf("expected no pagination, got %v", reader.pages)
				}
				return
			}
			view := decodeView(t, w)
			if len(view.NFTs) != tt.wantCount {
				t.Errorf("expected %d NFTs, got %d", tt.wantCount, len(view.NFTs))
			}
		})
	}
}

func TestGalleryHandler_Refresh(t *testing.T) {
	account := "0x00000000000000000000000000000000000000b2"

	tests := []struct {
		name        string
		body        string
		refreshErr  error
		wantStatus  int
		wantKind    entity.CycleKind
		wantAccount common.Address
		wantCalled  bool
	}{
		{
			name:       "empty body refreshes collection",
			wantStatus: http.StatusAccepted,
			wantKind:   entity.CycleCollection,
			wantCalled: true,
		},
		{
			name:        "wallet with account",
			body:        `{"cycle":"wallet","account":"` + account + `"}`,
			wantStatus:  http.StatusAccepted,
			wantKind:    entity.CycleWallet,
			wantAccount: common.HexToAddress(account),
			wantCalled:  true,
		},
		{
			name:       "wallet without connection",
			body:       `{"cycle":"wallet"}`,
			refreshErr: entity.ErrNotConnected,
			wantStatus: http.StatusConflict,
			wantKind:   entity.CycleWallet,
			wantCalled: true,
		},
		{
			name:       "unknown cycle",
			body:       `{"cycle":"burned"}`,
			refreshErr: errors.New("unknown cycle kind"),
			wantStatus: http.StatusBadRequest,
			wantKind:   entity.CycleKind("burned"),
			wantCalled: true,
		},
		{
			name:       "invalid account",
			body:       `{"cycle":"wallet","account":"0xnope"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `{"cycle":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := &mockRefresher{err: tt.refreshErr}
			h := NewGalleryHandler(&mockReader{}, refresher, testNetwork, testContract, nil)

			w := serve(h, "POST", "/gallery/refresh", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if !tt.wantCalled {
				if len(refresher.calls) != 0 {
					t.Errorf("expected no refresh, got %v", refresher.calls)
				}
				return
			}
			if len(refresher.calls) != 1 {
				t.Fatalf("expected 1 refresh, got %d", len(refresher.calls))
			}
			call := refresher.calls[0]
			if call.kind != tt.wantKind || call.account != tt.wantAccount {
				t.Errorf("expected (%s, %s), got (%s, %s)", tt.wantKind, tt.wantAccount.Hex(), call.kind, call.account.Hex())
			}
		})
	}
}

func TestGalleryHandler_RefreshNotRegisteredWithoutRefresher(t *testing.T) {
	h := NewGalleryHandler(&mockReader{}, nil, testNetwork, testContract, nil)
	w := serve(h, "POST", "/gallery/refresh", "")
	if w.Code != http.StatusNotFound && w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 404 or 405, got %d", w.Code)
	}
}
