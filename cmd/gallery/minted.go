package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/adapters/outbound/memory"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

func newMintedCmd(flags *rootFlags) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "minted",
		Short: "List every minted NFT of the collection",
		Long: `Runs one collection cycle: token ids 1..totalSupply are read in batches of 10
with their owners, and the gallery is printed page by page.

Batches whose contract calls fail are skipped; tokens whose metadata or image
cannot be resolved are shown with the placeholder image.`,
		Example: `  # Print every page
  gallery minted

  # Print page 2 only
  gallery minted --page 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListing(cmd, flags, entity.CycleCollection, common.Address{}, page)
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 0, "page to print (default: all pages)")

	return cmd
}

// runListing wires the gallery, runs one cycle of kind and prints the result.
func runListing(cmd *cobra.Command, flags *rootFlags, kind entity.CycleKind, account common.Address, page int) error {
	ctx := cmd.Context()

	settings, network, err := loadSettings(flags)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr())

	progress := memory.NewEventSink()
	progress.SetOnPublish(progressPrinter(cmd.ErrOrStderr()))

	a, err := newApp(ctx, settings, network, logger, appOptions{
		Sink:        progress,
		Account:     account,
		Export:      true,
		TraceWriter: stderrIf(flags.trace),
	})
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	switch kind {
	case entity.CycleWallet:
		err = a.service.LoadWallet(ctx, account)
	default:
		err = a.service.LoadCollection(ctx)
	}
	if err != nil {
		return err
	}

	return printGallery(cmd.OutOrStdout(), a.service, network, settings.Contract(), page)
}
