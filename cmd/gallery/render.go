package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/inbound"
)

// outcomeSummary lists the outcomes worth reporting after a listing, in order.
var outcomeSummary = []struct {
	kind  entity.OutcomeKind
	label string
}{
	{entity.OutcomeBatchDropped, "batches skipped"},
	{entity.OutcomeTokenPlaceholder, "placeholder images"},
	{entity.OutcomeEnumerationFailed, "enumeration failures"},
}

// renderHeader writes the collection line, and the wallet line for wallet views.
func renderHeader(w io.Writer, view entity.GalleryView) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s", view.Contract, view.Network)
	if view.ContractURL != "" {
		fmt.Fprintf(&b, " (%s)", view.ContractURL)
	}
	b.WriteString("\n")
	if view.Cycle == entity.CycleWallet && view.Account != "" {
		fmt.Fprintf(&b, "Wallet %s\n", view.Account)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// renderPage writes the loading, empty or populated form of view.
func renderPage(w io.Writer, view entity.GalleryView) error {
	var b strings.Builder
	switch {
	case view.Loading:
		fmt.Fprintf(&b, "Loading NFTs... %.2f%%\n", view.Progress)
	case view.Empty:
		b.WriteString("No NFTs found.\n")
	}

	switch {
	case view.Total > 0 && len(view.NFTs) == view.Total && view.TotalPages > 1:
		fmt.Fprintf(&b, "\nAll %d NFTs\n", view.Total)
	case view.Total > 0:
		fmt.Fprintf(&b, "\nPage %d of %d (%d NFTs)\n", view.Page, view.TotalPages, view.Total)
	}
	for _, n := range view.NFTs {
		fmt.Fprintf(&b, "  #%-6d owner %s\n", n.TokenID, n.Owner)
		image := n.ImageURL
		if n.Placeholder {
			image += " (placeholder)"
		}
		fmt.Fprintf(&b, "           image %s\n", image)
		if n.MarketplaceURL != "" {
			fmt.Fprintf(&b, "           view  %s\n", n.MarketplaceURL)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// renderSummary writes the outcome counts that signal degraded results.
func renderSummary(w io.Writer, view entity.GalleryView) error {
	var parts []string
	for _, o := range outcomeSummary {
		if n := view.Outcomes[o.kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, o.label))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n%s\n", strings.Join(parts, ", "))
	return err
}

// printGallery writes the header, then page or every page when page < 1,
// then the outcome summary. The reader is left on the last page printed.
func printGallery(w io.Writer, reader inbound.GalleryReader, network entity.Network, contract common.Address, page int) error {
	view := func() entity.GalleryView {
		return entity.NewGalleryView(reader.Snapshot(), network, contract, false)
	}

	first := view()
	if err := renderHeader(w, first); err != nil {
		return err
	}

	pages := []int{page}
	if page < 1 {
		pages = pages[:0]
		for p := 1; p <= max(first.TotalPages, 1); p++ {
			pages = append(pages, p)
		}
	}

	var last entity.GalleryView
	for _, p := range pages {
		reader.Paginate(p)
		last = view()
		if err := renderPage(w, last); err != nil {
			return err
		}
	}
	return renderSummary(w, last)
}

// progressPrinter reports batch progress as events arrive.
func progressPrinter(w io.Writer) func(entity.CycleEvent) {
	return func(ev entity.CycleEvent) {
		switch ev.Kind {
		case entity.OutcomeBatchAppended:
			fmt.Fprintf(w, "Loading NFTs... %.2f%%\n", ev.Progress)
		case entity.OutcomeBatchDropped:
			fmt.Fprintf(w, "Loading NFTs... %.2f%% (skipped batch %d: %s)\n", ev.Progress, ev.Batch+1, ev.Err)
		case entity.OutcomeEnumerationFailed:
			fmt.Fprintf(w, "Could not list tokens: %s\n", ev.Err)
		}
	}
}
