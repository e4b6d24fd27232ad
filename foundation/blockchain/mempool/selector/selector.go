// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyFee  = "fee"
	StrategyFIFO = "fifo"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFee:  feeSelect,
	StrategyFIFO: fifoSelect,
}

// Func defines a function that takes the mempool transactions in insertion
// order and selects howMany of them in an order based on the function's
// strategy. Transactions with a lock time past the specified lock time are
// never selected. Receiving -1 for howMany must return all the eligible
// transactions in the strategy's ordering. The input slice is not modified.
type Func func(transactions []database.Tx, lockTime uint64, howMany int) []database.Tx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// eligible returns a new slice holding the transactions that are unlocked at
// the specified lock time, keeping their order.
func eligible(transactions []database.Tx, lockTime uint64) []database.Tx {
	final := make([]database.Tx, 0, len(transactions))
	for _, tx := range transactions {
		if tx.LockTime <= lockTime {
			final = append(final, tx)
		}
	}
	return final
}

// limit caps the transactions at howMany, where -1 means no cap.
func limit(transactions []database.Tx, howMany int) []database.Tx {
	if howMany < 0 || len(transactions) <= howMany {
		return transactions
	}
	return transactions[:howMany]
}

// =============================================================================

// byFee provides sorting support by the transaction fee value.
type byFee []database.Tx

// Len returns the number of transactions in the list.
func (bf byFee) Len() int {
	return len(bf)
}

// Less helps to sort the list by fee in descending order to pick the
// transactions that provide the best reward.
func (bf byFee) Less(i, j int) bool {
	return bf[i].Fee > bf[j].Fee
}

// Swap moves transactions in the order of the fee value.
func (bf byFee) Swap(i, j int) {
	bf[i], bf[j] = bf[j], bf[i]
}
