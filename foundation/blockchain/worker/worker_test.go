package worker_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/blockforge/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockforge/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/blockforge/foundation/blockchain/state"
	"github.com/ardanlabs/blockforge/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestWorkerMining(t *testing.T) {
	t.Log("Given the need to mine the mempool in the background.")
	{
		g := genesis.Genesis{
			Chain: []database.Block{
				database.NewBlock(database.BlockHeader{Hash: "H0", Height: 0, TimeStamp: 1000}, nil),
			},
			Mempool: []database.Tx{
				{Receiver: "bob", Sender: "alice", Signature: "sig", Amount: 10, Fee: 5},
				{Receiver: "carol", Sender: "alice", Signature: "sig", Amount: 20, Fee: 10},
				{Receiver: "dave", Sender: "alice", Signature: "sig", Amount: 30, Fee: 1},
			},
			Addresses: []string{"miner-a"},
		}

		st, err := state.New(state.Config{
			Genesis:         g,
			Storage:         memory.New(),
			SelectStrategy:  selector.StrategyFee,
			MaxTransactions: 1,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}

		w := worker.Run(st, time.Minute, func(v string, args ...any) { t.Logf(v, args...) })

		t.Logf("\tTest 0:\tWhen the worker is started with transactions waiting.")
		{
			deadline := time.Now().Add(10 * time.Second)
			for st.QueryChainLength() < 4 && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}

			if st.QueryChainLength() != 4 || st.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould mine one block per transaction, got %d %d.", failed, st.QueryChainLength(), st.QueryMempoolLength())
			}
			t.Logf("\t%s\tTest 0:\tShould mine one block per transaction.", success)

			blocks := st.RetrieveChain()
			fees := []uint64{10, 5, 1}
			for i, fee := range fees {
				if got := blocks[i+1].Trans[0].Fee; got != fee {
					t.Fatalf("\t%s\tTest 0:\tShould mine block %d with fee %d, got %d.", failed, i+1, fee, got)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould mine the best fees first.", success)
		}

		t.Logf("\tTest 1:\tWhen a transaction is submitted.")
		{
			st.UpsertMempool(database.Tx{Receiver: "erin", Sender: "alice", Signature: "sig", Amount: 1, Fee: 1})

			deadline := time.Now().Add(10 * time.Second)
			for st.QueryChainLength() < 5 && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}

			if st.QueryChainLength() != 5 {
				t.Fatalf("\t%s\tTest 1:\tShould mine the transaction, got %d blocks.", failed, st.QueryChainLength())
			}
			t.Logf("\t%s\tTest 1:\tShould mine the transaction.", success)
		}

		t.Logf("\tTest 2:\tWhen the worker is shut down.")
		{
			done := make(chan struct{})
			go func() {
				w.Shutdown()
				close(done)
			}()

			select {
			case <-done:
				t.Logf("\t%s\tTest 2:\tShould shut down.", success)
			case <-time.After(10 * time.Second):
				t.Fatalf("\t%s\tTest 2:\tShould shut down.", failed)
			}
		}
	}
}
