package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	url    string
	sendTx database.Tx
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit a transaction to a node's mempool",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.Marshal(sendTx)
		if err != nil {
			return err
		}

		resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(data))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d: %s", resp.StatusCode, body)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	addTxFlags(sendCmd, &sendTx)
}
