package main

import (
	"github.com/spf13/cobra"
)

// rootFlags override the environment for every subcommand.
type rootFlags struct {
	rpcURL   string
	contract string
	chainID  int64
	trace    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "THE FOOLS NFT gallery",
		Long: `Gallery lists the NFTs of THE FOOLS collection, or the ones held by a wallet.

Token URIs and owners are read from the contract in batches, metadata documents
are fetched over HTTP (ipfs:// is rewritten to the configured gateway), and the
result is shown in pages of 16.

Configuration is read from the environment and from .env / .env.local.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.rpcURL, "rpc-url", "", "JSON-RPC endpoint (overrides RPC_URL)")
	cmd.PersistentFlags().StringVar(&flags.contract, "contract", "", "collection address (overrides CONTRACT_ADDRESS)")
	cmd.PersistentFlags().Int64Var(&flags.chainID, "chain-id", 0, "expected chain id (overrides CHAIN_ID)")
	cmd.PersistentFlags().BoolVar(&flags.trace, "trace", false, "print spans to stderr when no OTEL_ENDPOINT is set")

	cmd.AddCommand(
		newMintedCmd(flags),
		newWalletCmd(flags),
		newServeCmd(flags),
		newSnapshotsCmd(flags),
	)

	return cmd
}
