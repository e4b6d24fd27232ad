package cmd

import (
	"github.com/ardanlabs/blockforge/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/blockforge/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockforge/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

var (
	blockHash string
	txIndex   int
)

var proofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Produce the inclusion proof for a transaction in a block",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := genesis.Load(dataPath)
		if err != nil {
			return err
		}

		st, err := state.New(state.Config{
			Genesis: gen,
			Storage: memory.New(),
		})
		if err != nil {
			return err
		}
		defer st.Shutdown()

		ip, err := st.GenerateInclusionProof(blockHash, txIndex)
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), ip)
	},
}

func init() {
	rootCmd.AddCommand(proofCmd)
	proofCmd.Flags().StringVarP(&blockHash, "block", "b", "", "Hash of the block holding the transaction.")
	proofCmd.Flags().IntVarP(&txIndex, "index", "i", 0, "Index of the transaction in the block.")
	proofCmd.MarkFlagRequired("block")
}
