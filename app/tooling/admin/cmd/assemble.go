package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/blockforge/foundation/blockchain/assembler"
	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockforge/foundation/blockchain/mempool/selector"
	"github.com/spf13/cobra"
)

var (
	strategy        string
	maxTransactions int
	miningTimeout   time.Duration
	nodeURL         string
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble and mine the next block from the data files",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := genesis.Load(dataPath)
		if err != nil {
			return err
		}

		selectFn, err := selector.Retrieve(strategy)
		if err != nil {
			return err
		}

		asm, err := assembler.New(assembler.Config{
			SelectFn:        selectFn,
			MaxTransactions: maxTransactions,
		})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), miningTimeout)
		defer cancel()

		block, err := asm.CreateBlock(ctx, gen.Mempool, gen.Chain, gen.Addresses)
		if err != nil {
			return err
		}

		blockData := database.NewBlockData(block)
		if nodeURL == "" {
			return printJSON(cmd.OutOrStdout(), blockData)
		}

		return proposeBlock(ctx, blockData)
	},
}

// proposeBlock sends the block to the private api of a node.
func proposeBlock(ctx context.Context, blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/node/block/next", nodeURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("block %s not accepted: status %d", blockData.Header.Hash, resp.StatusCode)
	}

	fmt.Printf("block %s accepted\n", blockData.Header.Hash)
	return nil
}

func init() {
	rootCmd.AddCommand(assembleCmd)
	assembleCmd.Flags().StringVarP(&strategy, "strategy", "s", selector.StrategyFee, "Transaction select strategy.")
	assembleCmd.Flags().IntVarP(&maxTransactions, "max", "m", assembler.DefaultMaxTransactions, "Maximum transactions in the block.")
	assembleCmd.Flags().DurationVarP(&miningTimeout, "timeout", "t", 5*time.Minute, "Time allowed for the proof of work search.")
	assembleCmd.Flags().StringVarP(&nodeURL, "node", "n", "", "Private url of a node to propose the block to.")
}
