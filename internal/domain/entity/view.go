package entity

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// NFTView is one gallery card: a ResolvedNFT with its outbound links.
type NFTView struct {
	TokenID        TokenID `json:"tokenId"`
	Owner          string  `json:"owner"`
	ImageURL       string  `json:"imageUrl"`
	TokenURI       string  `json:"tokenUri"`
	Placeholder    bool    `json:"placeholder"`
	OwnerURL       string  `json:"ownerUrl,omitempty"`
	MarketplaceURL string  `json:"marketplaceUrl,omitempty"`
}

// NewNFTView builds the card for n minted by contract on network.
func NewNFTView(n ResolvedNFT, network Network, contract common.Address) NFTView {
	return NFTView{
		TokenID:        n.ID,
		Owner:          n.Owner.Hex(),
		ImageURL:       n.ImageURL,
		TokenURI:       n.TokenURI,
		Placeholder:    n.Placeholder,
		OwnerURL:       network.ExplorerAddressURL(n.Owner),
		MarketplaceURL: network.MarketplaceAssetURL(contract, n.ID),
	}
}

// GalleryView is the rendered form of a GallerySnapshot.
type GalleryView struct {
	Generation  uint64    `json:"generation"`
	Cycle       CycleKind `json:"cycle,omitempty"`
	Account     string    `json:"account,omitempty"`
	Contract    string    `json:"contract"`
	ContractURL string    `json:"contractUrl,omitempty"`
	Network     string    `json:"network"`
	ChainID     int64     `json:"chainId"`

	Loading  bool    `json:"loading"`
	Progress float64 `json:"progress"`
	Empty    bool    `json:"empty"`

	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`

	NFTs     []NFTView           `json:"nfts"`
	Outcomes map[OutcomeKind]int `json:"outcomes,omitempty"`

	RenderedAt time.Time `json:"renderedAt"`
}

// NewGalleryView renders snap. With allPages set every NFT is included;
// otherwise only the current page.
func NewGalleryView(snap GallerySnapshot, network Network, contract common.Address, allPages bool) GalleryView {
	nfts := snap.NFTs
	if !allPages {
		nfts = snap.Page()
	}

	view := GalleryView{
		Generation:  snap.Generation,
		Cycle:       snap.Kind,
		Account:     snap.Account,
		Contract:    contract.Hex(),
		ContractURL: network.ExplorerAddressURL(contract),
		Network:     network.Name,
		ChainID:     network.ChainID,
		Loading:     snap.Loading,
		Progress:    snap.LoadingProgress,
		Empty:       snap.Empty(),
		Page:        snap.CurrentPage,
		TotalPages:  snap.TotalPages,
		PageSize:    snap.PageSize,
		Total:       len(snap.NFTs),
		NFTs:        make([]NFTView, len(nfts)),
		RenderedAt:  time.Now().UTC(),
	}
	for i, n := range nfts {
		view.NFTs[i] = NewNFTView(n, network, contract)
	}
	if len(snap.Outcomes) > 0 {
		view.Outcomes = make(map[OutcomeKind]int)
		for _, ev := range snap.Outcomes {
			view.Outcomes[ev.Kind]++
		}
	}
	return view
}
