package database

import (
	"fmt"

	"github.com/ardanlabs/blockforge/foundation/blockchain/digest"
)

// Tx is the transactional information between two parties. A transaction is
// immutable once created. It belongs to the mempool until it's included in a
// block, at which point the block holds its own copy.
type Tx struct {
	Receiver  string `json:"receiver"`        // Address receiving the amount.
	Sender    string `json:"sender"`          // Address sending the amount.
	Signature string `json:"signature"`       // Signature as provided by the sender, not validated.
	Amount    uint64 `json:"amount"`          // Value transferred to the receiver.
	LockTime  uint64 `json:"lock_time"`       // Earliest block timestamp that can include this transaction.
	Fee       uint64 `json:"transaction_fee"` // Fee paid to the miner, used for selection priority.
}

// HashString returns the canonical comma separated form of the transaction
// that is hashed. The field order is amount, lock_time, receiver, sender,
// signature, transaction_fee and must not change or existing hashes break.
func (tx Tx) HashString() string {
	return fmt.Sprintf("%d,%d,%s,%s,%s,%d", tx.Amount, tx.LockTime, tx.Receiver, tx.Sender, tx.Signature, tx.Fee)
}

// Hash implements the merkle Hashable interface for providing a hash
// of a transaction.
func (tx Tx) Hash() string {
	return digest.Hash(tx.HashString())
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two transactions. Two transactions are equal when every
// field holds the same value.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx == otherTx
}

// String implements the Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s:%d:%d", tx.Sender, tx.Receiver, tx.Amount, tx.Fee)
}
