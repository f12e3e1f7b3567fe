package entity

// DefaultPageSize is the number of NFTs shown per gallery page.
const DefaultPageSize = 16

// GallerySnapshot is the read contract offered to renderers: a copy of the
// gallery state at one instant.
type GallerySnapshot struct {
	Generation      uint64
	Kind            CycleKind
	Account         string
	NFTs            []ResolvedNFT
	Loading         bool
	LoadingProgress float64
	CurrentPage     int
	TotalPages      int
	PageSize        int
	// Outcomes are the tagged results of the current cycle so far.
	Outcomes []CycleEvent
}

// Page returns the NFTs visible on the current page.
func (s GallerySnapshot) Page() []ResolvedNFT {
	return VisibleSlice(s.NFTs, s.CurrentPage, s.PageSize)
}

// Empty reports a finished cycle that produced no NFTs.
func (s GallerySnapshot) Empty() bool {
	return !s.Loading && len(s.NFTs) == 0
}

// VisibleSlice returns nfts[(page-1)*pageSize : page*pageSize], clamped to the
// sequence bounds. Pages outside the range yield an empty slice.
func VisibleSlice(nfts []ResolvedNFT, page, pageSize int) []ResolvedNFT {
	if pageSize <= 0 || page < 1 {
		return []ResolvedNFT{}
	}
	start := (page - 1) * pageSize
	if start >= len(nfts) {
		return []ResolvedNFT{}
	}
	end := min(page*pageSize, len(nfts))
	return nfts[start:end]
}

// TotalPages returns ceil(n / pageSize).
func TotalPages(n, pageSize int) int {
	if n <= 0 || pageSize <= 0 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}
