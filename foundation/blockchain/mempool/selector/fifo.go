package selector

import (
	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
)

// fifoSelect returns the unlocked transactions in the order they entered
// the mempool.
var fifoSelect = func(transactions []database.Tx, lockTime uint64, howMany int) []database.Tx {
	return limit(eligible(transactions, lockTime), howMany)
}
