package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/domain/entity"
)

func newWalletCmd(flags *rootFlags) *cobra.Command {
	var (
		account string
		page    int
	)

	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "List the NFTs held by a wallet",
		Long: `Runs one wallet cycle: walletOfOwner(account) is read once and the held tokens
are resolved in batches of 5.`,
		Example: `  gallery wallet --account 0x52908400098527886E0F7030069857D2E4169EE7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var addr common.Address
			if account != "" {
				if !common.IsHexAddress(account) {
					return fmt.Errorf("invalid account %q", account)
				}
				addr = common.HexToAddress(account)
			}
			return runListing(cmd, flags, entity.CycleWallet, addr, page)
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "wallet address")
	cmd.Flags().IntVarP(&page, "page", "p", 0, "page to print (default: all pages)")

	return cmd
}
