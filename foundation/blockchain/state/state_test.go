package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/blockforge/foundation/blockchain/assembler"
	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/blockforge/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockforge/foundation/blockchain/merkle"
	"github.com/ardanlabs/blockforge/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/blockforge/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// fakeWorker records the signals sent by the state.
type fakeWorker struct {
	start  int
	cancel int
	done   int
}

func (w *fakeWorker) Shutdown()          {}
func (w *fakeWorker) SignalStartMining() { w.start++ }
func (w *fakeWorker) SignalCancelMining() func() {
	w.cancel++
	return func() { w.done++ }
}

func newState(t *testing.T, storage database.Storage) *state.State {
	g := genesis.Genesis{
		Chain: []database.Block{
			database.NewBlock(database.BlockHeader{Hash: "H0", Height: 0, TimeStamp: 1000}, nil),
		},
		Mempool: []database.Tx{
			{Receiver: "bob", Sender: "alice", Signature: "sig", Amount: 10, Fee: 5},
			{Receiver: "carol", Sender: "alice", Signature: "sig", Amount: 20, Fee: 10},
			{Receiver: "dave", Sender: "alice", Signature: "sig", Amount: 30, Fee: 1},
			{Receiver: "erin", Sender: "alice", Signature: "sig", Amount: 40, LockTime: 5000, Fee: 99},
		},
		Addresses: []string{"miner-a", "miner-b"},
	}

	st, err := state.New(state.Config{
		Genesis:         g,
		Storage:         storage,
		SelectStrategy:  selector.StrategyFee,
		MaxTransactions: 2,
		MinerSelector:   assembler.SelectorFunc(func(n int) int { return n - 1 }),
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return st
}

func TestMineNewBlock(t *testing.T) {
	t.Log("Given a node started from its data files.")
	{
		storage := memory.New()
		st := newState(t, storage)

		w := fakeWorker{}
		st.Worker = &w

		t.Logf("\tTest 0:\tWhen mining the next block.")
		{
			block, err := st.MineNewBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to mine a block.", success)

			if block.Header.Miner != "miner-b" || block.Header.Height != 1 || len(block.Trans) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould build the block from the stores, got %+v.", failed, block.Header)
			}
			if block.Trans[0].Fee != 10 || block.Trans[1].Fee != 5 {
				t.Fatalf("\t%s\tTest 0:\tShould pick the best unlocked fees.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould build the block from the stores.", success)

			if st.QueryChainLength() != 2 || st.QueryMempoolLength() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould move the transactions from the mempool to the chain, got %d %d.", failed, st.QueryChainLength(), st.QueryMempoolLength())
			}
			t.Logf("\t%s\tTest 0:\tShould move the transactions from the mempool to the chain.", success)

			tip, _ := st.RetrieveLatestBlock()
			if tip.Hash() != block.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould make the block the new tip.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould make the block the new tip.", success)
		}

		t.Logf("\tTest 1:\tWhen proving a transaction in the mined block.")
		{
			tip, _ := st.RetrieveLatestBlock()

			ip, err := st.GenerateInclusionProof(tip.Hash(), 1)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to generate a proof: %v", failed, err)
			}

			if ip.Leaf != tip.Trans[1].Hash() || ip.Root != tip.Header.TransRoot {
				t.Fatalf("\t%s\tTest 1:\tShould describe the leaf and root.", failed)
			}

			if !state.VerifyInclusionProof(ip.Root, ip.Leaf, ip.Proof) {
				t.Fatalf("\t%s\tTest 1:\tShould verify the proof.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould generate a proof that verifies.", success)

			if _, err := st.GenerateInclusionProof(tip.Hash(), 2); !errors.Is(err, merkle.ErrProofIndexOutOfRange) {
				t.Fatalf("\t%s\tTest 1:\tShould get ErrProofIndexOutOfRange, got %v.", failed, err)
			}
			if _, err := st.GenerateInclusionProof("missing", 0); !errors.Is(err, database.ErrBlockNotFound) {
				t.Fatalf("\t%s\tTest 1:\tShould get ErrBlockNotFound, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject unknown blocks and indexes.", success)
		}

		t.Logf("\tTest 2:\tWhen the same block is proposed again.")
		{
			tip, _ := st.RetrieveLatestBlock()

			if err := st.ProcessProposedBlock(tip); !errors.Is(err, database.ErrBlockInvalid) {
				t.Fatalf("\t%s\tTest 2:\tShould get ErrBlockInvalid, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the block.", success)

			if w.cancel != 1 || w.done != 1 {
				t.Fatalf("\t%s\tTest 2:\tShould cancel mining while processing, got %d %d.", failed, w.cancel, w.done)
			}
			t.Logf("\t%s\tTest 2:\tShould cancel mining while processing.", success)
		}

		t.Logf("\tTest 3:\tWhen the node restarts from the same storage.")
		{
			st2 := newState(t, storage)

			if st2.QueryChainLength() != 2 {
				t.Fatalf("\t%s\tTest 3:\tShould read the stored chain, got %d blocks.", failed, st2.QueryChainLength())
			}
			if st2.QueryMempoolLength() != 2 {
				t.Fatalf("\t%s\tTest 3:\tShould not put mined transactions back, got %d.", failed, st2.QueryMempoolLength())
			}
			t.Logf("\t%s\tTest 3:\tShould resume from the stored chain.", success)
		}
	}
}

func TestProposedBlock(t *testing.T) {
	t.Log("Given a block mined by another node.")
	{
		st := newState(t, memory.New())

		tx := database.Tx{Receiver: "frank", Sender: "alice", Signature: "sig", Amount: 1, Fee: 1}

		w := fakeWorker{}
		st.Worker = &w

		t.Logf("\tTest 0:\tWhen the block extends the tip.")
		{
			tip, _ := st.RetrieveLatestBlock()

			a, _ := assembler.New(assembler.Config{Selector: assembler.SelectorFunc(func(n int) int { return 0 })})
			block, err := a.CreateBlock(context.Background(), []database.Tx{tx}, []database.Block{tip}, []string{"other"})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to assemble the block: %v", failed, err)
			}

			if err := st.ProcessProposedBlock(block); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept the block.", success)

			if got := st.QueryBlocksByPosition(state.QueryLatest, state.QueryLatest); len(got) != 1 || got[0].Hash() != block.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould append the block.", failed)
			}
			if got := st.QueryBlocksByHeight(1); len(got) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould find the block by height.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould append the block.", success)
		}

		t.Logf("\tTest 1:\tWhen a transaction is submitted.")
		{
			n := st.UpsertMempool(tx)
			if n != 5 || w.start != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould add the transaction and signal mining, got %d %d.", failed, n, w.start)
			}
			t.Logf("\t%s\tTest 1:\tShould add the transaction and signal mining.", success)

			mp := st.RetrieveMempool()
			if len(mp) != 5 || mp[0].Fee != 99 {
				t.Fatalf("\t%s\tTest 1:\tShould list the mempool in fee order.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould list the mempool in fee order.", success)
		}
	}
}
