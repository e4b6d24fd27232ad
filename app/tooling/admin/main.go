// This program performs administrative tasks for a blockforge node: it
// assembles blocks offline, produces and checks inclusion proofs, hashes
// transactions and submits them to a running node.
package main

import (
	"github.com/ardanlabs/blockforge/app/tooling/admin/cmd"
)

func main() {
	cmd.Execute()
}
