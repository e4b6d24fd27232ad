package selector_test

import (
	"fmt"
	"testing"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/mempool/selector"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func tran(id int, fee uint64, lockTime uint64) database.Tx {
	return database.Tx{
		Receiver:  "0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76",
		Sender:    fmt.Sprintf("sender-%d", id),
		Signature: "0x00",
		Amount:    uint64(id),
		LockTime:  lockTime,
		Fee:       fee,
	}
}

func TestSelect(t *testing.T) {
	type test struct {
		name     string
		strategy string
		txs      []database.Tx
		lockTime uint64
		howMany  int
		best     []database.Tx
	}

	tt := []test{
		{
			name:     "fee",
			strategy: selector.StrategyFee,
			txs:      []database.Tx{tran(1, 5, 0), tran(2, 10, 0)},
			lockTime: 1010,
			howMany:  100,
			best:     []database.Tx{tran(2, 10, 0), tran(1, 5, 0)},
		},
		{
			name:     "fee-ties",
			strategy: selector.StrategyFee,
			txs:      []database.Tx{tran(1, 5, 0), tran(2, 10, 0), tran(3, 5, 0), tran(4, 10, 0)},
			lockTime: 1010,
			howMany:  -1,
			best:     []database.Tx{tran(2, 10, 0), tran(4, 10, 0), tran(1, 5, 0), tran(3, 5, 0)},
		},
		{
			name:     "fee-locked",
			strategy: selector.StrategyFee,
			txs:      []database.Tx{tran(1, 50, 1011), tran(2, 10, 1010), tran(3, 20, 0)},
			lockTime: 1010,
			howMany:  100,
			best:     []database.Tx{tran(3, 20, 0), tran(2, 10, 1010)},
		},
		{
			name:     "fee-cap",
			strategy: selector.StrategyFee,
			txs:      []database.Tx{tran(1, 1, 0), tran(2, 2, 0), tran(3, 3, 0)},
			lockTime: 0,
			howMany:  2,
			best:     []database.Tx{tran(3, 3, 0), tran(2, 2, 0)},
		},
		{
			name:     "fifo",
			strategy: selector.StrategyFIFO,
			txs:      []database.Tx{tran(1, 1, 0), tran(2, 9, 2000), tran(3, 3, 0), tran(4, 4, 0)},
			lockTime: 1010,
			howMany:  2,
			best:     []database.Tx{tran(1, 1, 0), tran(3, 3, 0)},
		},
		{
			name:     "none",
			strategy: selector.StrategyFee,
			txs:      []database.Tx{tran(1, 1, 2000)},
			lockTime: 1010,
			howMany:  100,
			best:     []database.Tx{},
		},
	}

	t.Log("Given the need to select transactions for the next block.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen using the %s strategy.", testID, tst.strategy)
				{
					fn, err := selector.Retrieve(tst.strategy)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to retrieve the strategy: %v", failed, testID, err)
					}

					input := append([]database.Tx(nil), tst.txs...)
					got := fn(input, tst.lockTime, tst.howMany)

					if len(got) != len(tst.best) {
						t.Fatalf("\t%s\tTest %d:\tShould get %d transactions, got %d.", failed, testID, len(tst.best), len(got))
					}

					for i := range got {
						if !got[i].Equals(tst.best[i]) {
							t.Logf("\t\tTest %d:\tgot: %s", testID, got[i])
							t.Logf("\t\tTest %d:\texp: %s", testID, tst.best[i])
							t.Fatalf("\t%s\tTest %d:\tShould get transaction %d in order.", failed, testID, i)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get the transactions in order.", success, testID)

					for i := range input {
						if !input[i].Equals(tst.txs[i]) {
							t.Fatalf("\t%s\tTest %d:\tShould not modify the input.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould not modify the input.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}

		t.Logf("\tTest %d:\tWhen asking for an unknown strategy.", len(tt))
		{
			if _, err := selector.Retrieve("tip"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould get an error.", failed, len(tt))
			}
			t.Logf("\t%s\tTest %d:\tShould get an error.", success, len(tt))
		}
	}
}

func TestFeePriority(t *testing.T) {
	t.Log("Given a mempool with more eligible transactions than fit in a block.")
	{
		t.Logf("\tTest 0:\tWhen selecting 100 out of 150 transactions.")
		{
			var txs []database.Tx
			for i := 0; i < 150; i++ {
				txs = append(txs, tran(i, uint64(i%30), 0))
			}
			txs = append(txs, tran(999, 1000, 5000))

			fn, _ := selector.Retrieve(selector.StrategyFee)
			got := fn(txs, 1010, 100)

			if len(got) != 100 {
				t.Fatalf("\t%s\tTest 0:\tShould get 100 transactions, got %d.", failed, len(got))
			}
			t.Logf("\t%s\tTest 0:\tShould get 100 transactions.", success)

			// Fees 29 down to 10 appear 5 times each which is exactly 100.
			for _, tx := range got {
				if tx.Fee < 10 || tx.Fee == 1000 {
					t.Fatalf("\t%s\tTest 0:\tShould only select the highest unlocked fees, got %d.", failed, tx.Fee)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould only select the highest unlocked fees.", success)

			for i := 1; i < len(got); i++ {
				if got[i].Fee > got[i-1].Fee {
					t.Fatalf("\t%s\tTest 0:\tShould order by fee descending.", failed)
				}
				if got[i].Fee == got[i-1].Fee && got[i].Amount < got[i-1].Amount {
					t.Fatalf("\t%s\tTest 0:\tShould keep mempool order for equal fees.", failed)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould order by fee and keep mempool order for ties.", success)
		}
	}
}
