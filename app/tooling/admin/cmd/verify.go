package cmd

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/blockforge/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

// ErrProofInvalid is returned when a proof does not fold into the root.
var ErrProofInvalid = errors.New("proof is invalid")

var (
	root  string
	leaf  string
	proof []string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify an inclusion proof against a merkle root",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !state.VerifyInclusionProof(root, leaf, proof) {
			return ErrProofInvalid
		}

		fmt.Fprintln(cmd.OutOrStdout(), "proof is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&root, "root", "r", "", "Merkle root of the block.")
	verifyCmd.Flags().StringVarP(&leaf, "leaf", "l", "", "Hash of the transaction.")
	verifyCmd.Flags().StringSliceVarP(&proof, "proof", "p", nil, "Comma separated sibling hashes, leaf level first.")
	verifyCmd.MarkFlagRequired("root")
	verifyCmd.MarkFlagRequired("leaf")
}
