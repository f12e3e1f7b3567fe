// handler.go provides the HTTP API over the gallery.
//
// Routes:
//   - GET  /gallery              current page as a GalleryView (?all=true for every page)
//   - POST /gallery/page/{n}     set the current page, n >= 1
//   - POST /gallery/refresh      start a collection or wallet cycle in the background
package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/inbound"
)

// RefreshRequest is the optional body of POST /gallery/refresh.
type RefreshRequest struct {
	Cycle   entity.CycleKind `json:"cycle"`
	Account string           `json:"account,omitempty"`
}

// GalleryHandler implements the gallery HTTP handlers.
type GalleryHandler struct {
	reader    inbound.GalleryReader
	refresher inbound.GalleryRefresher
	network   entity.Network
	contract  common.Address
	logger    *slog.Logger
}

// NewGalleryHandler creates a new gallery handler. refresher may be nil, in
// which case POST /gallery/refresh is not registered.
func NewGalleryHandler(reader inbound.GalleryReader, refresher inbound.GalleryRefresher, network entity.Network, contract common.Address, logger *slog.Logger) *GalleryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GalleryHandler{
		reader:    reader,
		refresher: refresher,
		network:   network,
		contract:  contract,
		logger:    logger.With("component", "gallery-handler"),
	}
}

// RegisterRoutes registers the gallery routes with the given mux.
func (h *GalleryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /gallery", h.Gallery)
	mux.HandleFunc("POST /gallery/page/{n}", h.Paginate)
	if h.refresher != nil {
		mux.HandleFunc("POST /gallery/refresh", h.Refresh)
	}
}

// Gallery renders the current snapshot.
func (h *GalleryHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	view := entity.NewGalleryView(h.reader.Snapshot(), h.network, h.contract, all)
	respondJSON(w, http.StatusOK, view, h.logger)
}

// Paginate sets the current page and renders it.
func (h *GalleryHandler) Paginate(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || page < 1 {
		respondError(w, http.StatusBadRequest, "page must be a positive integer", h.logger)
		return
	}
	h.reader.Paginate(page)
	view := entity.NewGalleryView(h.reader.Snapshot(), h.network, h.contract, false)
	respondJSON(w, http.StatusOK, view, h.logger)
}

// Refresh starts a cycle and returns immediately.
func (h *GalleryHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	req := RefreshRequest{Cycle: entity.CycleCollection}
	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read body", h.logger)
			return
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				respondError(w, http.StatusBadRequest, "invalid JSON body", h.logger)
				return
			}
		}
	}
	if req.Cycle == "" {
		req.Cycle = entity.CycleCollection
	}

	var account common.Address
	if req.Account != "" {
		if !common.IsHexAddress(req.Account) {
			respondError(w, http.StatusBadRequest, "invalid account address", h.logger)
			return
		}
		account = common.HexToAddress(req.Account)
	}

	if err := h.refresher.Refresh(req.Cycle, account); err != nil {
		if errors.Is(err, entity.ErrNotConnected) {
			respondError(w, http.StatusConflict, err.Error(), h.logger)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	h.logger.Info("refresh requested", "cycle", req.Cycle)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "loading", "cycle": string(req.Cycle)}, h.logger)
}

func respondJSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	respondJSON(w, status, map[string]string{"error": message}, logger)
}
