package cmd

import (
	"fmt"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var tx database.Tx

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print the hash of a transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), tx.Hash())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
	addTxFlags(hashCmd, &tx)
}

// addTxFlags binds the transaction fields to flags on the command.
func addTxFlags(cmd *cobra.Command, tx *database.Tx) {
	cmd.Flags().StringVar(&tx.Receiver, "receiver", "", "Address receiving the amount.")
	cmd.Flags().StringVar(&tx.Sender, "sender", "", "Address sending the amount.")
	cmd.Flags().StringVar(&tx.Signature, "signature", "", "Signature of the sender.")
	cmd.Flags().Uint64Var(&tx.Amount, "amount", 0, "Amount to transfer.")
	cmd.Flags().Uint64Var(&tx.LockTime, "lock-time", 0, "Earliest block timestamp that can include the transaction.")
	cmd.Flags().Uint64Var(&tx.Fee, "fee", 0, "Fee paid to the miner.")
}
