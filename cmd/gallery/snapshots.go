package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
	"github.com/PixelPunkNFT/THE-FOOLS/internal/services/snapshot"
)

func newSnapshotsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect gallery snapshots exported to S3",
	}
	cmd.AddCommand(newSnapshotsListCmd(flags), newSnapshotsShowCmd(flags))
	return cmd
}

func newSnapshotsListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List exported snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := openExporter(cmd, flags)
			if err != nil {
				return err
			}
			files, err := exporter.List(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Key, f.Size, f.LastModified.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newSnapshotsShowCmd(flags *rootFlags) *cobra.Command {
	var (
		cycle   string
		account string
	)

	cmd := &cobra.Command{
		Use:   "show [key]",
		Short: "Print a snapshot, the latest one by default",
		Args:  cobra.MaximumNArgs(1),
		Example: `  gallery snapshots show
  gallery snapshots show --cycle wallet --account 0x52908400098527886E0F7030069857D2E4169EE7
  gallery snapshots show snapshots/0x401eC1012427D8570Ec260F914E213d642F53bEc/collection/gen-3-1700000000.json.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := openExporter(cmd, flags)
			if err != nil {
				return err
			}

			var view *entity.GalleryView
			if len(args) == 1 {
				view, err = exporter.Load(cmd.Context(), args[0])
			} else {
				kind := entity.CycleKind(cycle)
				if kind != entity.CycleCollection && kind != entity.CycleWallet {
					return fmt.Errorf("unknown cycle %q", cycle)
				}
				if account != "" {
					if !common.IsHexAddress(account) {
						return fmt.Errorf("invalid account %q", account)
					}
					account = common.HexToAddress(account).Hex()
				}
				view, err = exporter.Latest(cmd.Context(), kind, account)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if err := renderHeader(w, *view); err != nil {
				return err
			}
			if err := renderPage(w, *view); err != nil {
				return err
			}
			return renderSummary(w, *view)
		},
	}

	cmd.Flags().StringVar(&cycle, "cycle", string(entity.CycleCollection), "cycle kind: collection or wallet")
	cmd.Flags().StringVar(&account, "account", "", "wallet address for wallet snapshots")

	return cmd
}

// openExporter wires the exporter alone; listing snapshots needs no RPC.
func openExporter(cmd *cobra.Command, flags *rootFlags) (*snapshot.Exporter, error) {
	settings, network, err := loadSettings(flags)
	if err != nil {
		return nil, err
	}
	a := &app{settings: settings, network: network, logger: newLogger(cmd.ErrOrStderr())}
	return a.newExporter(context.WithoutCancel(cmd.Context()))
}
