package selector

import (
	"sort"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
)

// feeSelect returns the unlocked transactions with the best fee. Transactions
// paying the same fee keep their mempool order.
var feeSelect = func(transactions []database.Tx, lockTime uint64, howMany int) []database.Tx {
	final := eligible(transactions, lockTime)

	sort.Stable(byFee(final))

	return limit(final, howMany)
}
