// Package cmd contains the admin app commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var dataPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "static/data", "Path to the directory with the data files.")
}

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Block assembly and merkle proof tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command specified on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
