package public

import (
	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
)

// tx is the transaction submitted by a client.
type tx struct {
	Receiver  string `json:"receiver" validate:"required"`
	Sender    string `json:"sender" validate:"required"`
	Signature string `json:"signature" validate:"required"`
	Amount    uint64 `json:"amount"`
	LockTime  uint64 `json:"lock_time"`
	Fee       uint64 `json:"transaction_fee"`
}

func (t tx) toDB() database.Tx {
	return database.Tx{
		Receiver:  t.Receiver,
		Sender:    t.Sender,
		Signature: t.Signature,
		Amount:    t.Amount,
		LockTime:  t.LockTime,
		Fee:       t.Fee,
	}
}

type txHash struct {
	Hash string `json:"hash"`
}

type proofCheck struct {
	Root  string   `json:"root" validate:"required,hash"`
	Leaf  string   `json:"leaf" validate:"required,hash"`
	Proof []string `json:"proof" validate:"dive,hash"`
}

type proofResult struct {
	Valid bool `json:"valid"`
}
