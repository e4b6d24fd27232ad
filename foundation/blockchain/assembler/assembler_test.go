package assembler_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ardanlabs/blockforge/foundation/blockchain/assembler"
	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/digest"
	"github.com/ardanlabs/blockforge/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func genesisChain() []database.Block {
	header := database.BlockHeader{
		Difficulty: 0,
		Hash:       "H0",
		Height:     0,
		TimeStamp:  1000,
	}
	return []database.Block{database.NewBlock(header, nil)}
}

func first() assembler.MinerSelector {
	return assembler.SelectorFunc(func(n int) int { return 0 })
}

func TestCreateBlock(t *testing.T) {
	fee5 := database.Tx{Receiver: "bob", Sender: "alice", Signature: "sig", Amount: 10, LockTime: 0, Fee: 5}
	fee10 := database.Tx{Receiver: "carol", Sender: "alice", Signature: "sig", Amount: 20, LockTime: 0, Fee: 10}

	t.Log("Given a chain with a single genesis block and two pending transactions.")
	{
		a, err := assembler.New(assembler.Config{Selector: first()})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the assembler: %v", failed, err)
		}

		mempool := []database.Tx{fee5, fee10}
		chain := genesisChain()
		addresses := []string{"miner-a", "miner-b"}

		t.Logf("\tTest 0:\tWhen creating the next block.")
		{
			block, err := a.CreateBlock(context.Background(), mempool, chain, addresses)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to create the block.", success)

			h := block.Header
			if h.Height != 1 || h.TimeStamp != 1010 || h.PrevBlockHash != "H0" || h.Miner != "miner-a" || h.Difficulty != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould extend the tip, got %+v.", failed, h)
			}
			t.Logf("\t%s\tTest 0:\tShould extend the tip.", success)

			if len(block.Trans) != 2 || !block.Trans[0].Equals(fee10) || !block.Trans[1].Equals(fee5) {
				t.Fatalf("\t%s\tTest 0:\tShould order the transactions by fee.", failed)
			}
			if h.TransCount != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould record 2 transactions, got %d.", failed, h.TransCount)
			}
			t.Logf("\t%s\tTest 0:\tShould order the transactions by fee.", success)

			tree, err := block.MerkleTree()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould have a merkle tree: %v", failed, err)
			}
			if len(tree.Nodes) != 3 || tree.Height != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould have a 3 node tree of height 1, got %d %d.", failed, len(tree.Nodes), tree.Height)
			}
			if tree.Root() != h.TransRoot || tree.Root() != merkle.HashPair(fee10.Hash(), fee5.Hash()) {
				t.Fatalf("\t%s\tTest 0:\tShould record the merkle root.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould build a 3 node tree.", success)

			raw := fmt.Sprintf("0,1,miner-a,0,H0, 1010, 2, %s", tree.Root())
			if h.Nonce != 0 || h.Hash != digest.Hash(raw) {
				t.Logf("\t\tTest 0:\tgot: %d %s", h.Nonce, h.Hash)
				t.Logf("\t\tTest 0:\texp: 0 %s", digest.Hash(raw))
				t.Fatalf("\t%s\tTest 0:\tShould mine on the first attempt.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould mine on the first attempt.", success)

			if err := block.ValidateBlock(chain[0], nil); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould produce a valid block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould produce a valid block.", success)

			if !mempool[0].Equals(fee5) || !mempool[1].Equals(fee10) || len(chain) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould not modify its inputs.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not modify its inputs.", success)
		}

		t.Logf("\tTest 1:\tWhen proving each transaction against the block.")
		{
			block, _ := a.CreateBlock(context.Background(), mempool, chain, addresses)
			tree, _ := block.MerkleTree()

			for i, tx := range block.Trans {
				proof, err := tree.Proof(i)
				if err != nil {
					t.Fatalf("\t%s\tTest 1:\tShould get a proof for %d: %v", failed, i, err)
				}
				if !merkle.VerifyProof(block.Header.TransRoot, tx.Hash(), proof) {
					t.Fatalf("\t%s\tTest 1:\tShould verify the proof for %d.", failed, i)
				}

				tamper := []func(tx *database.Tx){
					func(tx *database.Tx) { tx.Receiver += "x" },
					func(tx *database.Tx) { tx.Sender += "x" },
					func(tx *database.Tx) { tx.Signature += "x" },
					func(tx *database.Tx) { tx.Amount++ },
					func(tx *database.Tx) { tx.LockTime++ },
					func(tx *database.Tx) { tx.Fee++ },
				}

				for field, change := range tamper {
					tampered := tx
					change(&tampered)
					if merkle.VerifyProof(block.Header.TransRoot, tampered.Hash(), proof) {
						t.Fatalf("\t%s\tTest 1:\tShould reject transaction %d with field %d changed.", failed, i, field)
					}
				}
			}
			t.Logf("\t%s\tTest 1:\tShould verify every transaction and reject tampering.", success)
		}
	}
}

func TestCreateBlockErrors(t *testing.T) {
	tx := database.Tx{Receiver: "bob", Sender: "alice", Signature: "sig", Amount: 10, LockTime: 0, Fee: 5}
	locked := database.Tx{Receiver: "bob", Sender: "alice", Signature: "sig", Amount: 10, LockTime: 1011, Fee: 5}

	type table struct {
		name      string
		mempool   []database.Tx
		chain     []database.Block
		addresses []string
		err       error
	}

	tt := []table{
		{name: "empty-chain", mempool: []database.Tx{tx}, chain: nil, addresses: []string{"m"}, err: database.ErrEmptyChain},
		{name: "empty-addresses", mempool: []database.Tx{tx}, chain: genesisChain(), addresses: nil, err: database.ErrEmptyAddressPool},
		{name: "empty-mempool", mempool: nil, chain: genesisChain(), addresses: []string{"m"}, err: database.ErrEmptyTransactionSet},
		{name: "all-locked", mempool: []database.Tx{locked}, chain: genesisChain(), addresses: []string{"m"}, err: database.ErrEmptyTransactionSet},
	}

	t.Log("Given the need to reject blocks that can't be assembled.")
	{
		a, _ := assembler.New(assembler.Config{Selector: first()})

		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen assembling with the %s case.", testID, tst.name)
				{
					_, err := a.CreateBlock(context.Background(), tst.mempool, tst.chain, tst.addresses)
					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould get %v, got %v.", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get %v.", success, testID, tst.err)
				}
			}

			t.Run(tst.name, f)
		}

		t.Logf("\tTest %d:\tWhen the context is cancelled during mining.", len(tt))
		{
			chain := []database.Block{
				database.NewBlock(database.BlockHeader{Difficulty: database.MaxDifficulty, Hash: "H0", TimeStamp: 1000}, nil),
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := a.CreateBlock(ctx, []database.Tx{tx}, chain, []string{"m"})
			if !errors.Is(err, database.ErrMiningCancelled) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrMiningCancelled, got %v.", failed, len(tt), err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrMiningCancelled.", success, len(tt))
		}
	}
}

func TestCreateBlockSelection(t *testing.T) {
	t.Log("Given a mempool with more transactions than fit in a block.")
	{
		var mempool []database.Tx
		for i := 0; i < 120; i++ {
			mempool = append(mempool, database.Tx{Receiver: "bob", Sender: fmt.Sprintf("s%d", i), Amount: uint64(i), Fee: uint64(i)})
		}
		mempool = append(mempool, database.Tx{Receiver: "bob", Sender: "late", Amount: 1, LockTime: 1011, Fee: 1_000_000})

		a, _ := assembler.New(assembler.Config{Selector: first()})

		t.Logf("\tTest 0:\tWhen assembling the block.")
		{
			block, err := a.CreateBlock(context.Background(), mempool, genesisChain(), []string{"m"})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create the block: %v", failed, err)
			}

			if len(block.Trans) != assembler.DefaultMaxTransactions {
				t.Fatalf("\t%s\tTest 0:\tShould cap the block at %d, got %d.", failed, assembler.DefaultMaxTransactions, len(block.Trans))
			}
			t.Logf("\t%s\tTest 0:\tShould cap the block at %d.", success, assembler.DefaultMaxTransactions)

			for i, tx := range block.Trans {
				if tx.Fee != uint64(119-i) {
					t.Fatalf("\t%s\tTest 0:\tShould hold the highest fees in order, got fee %d at %d.", failed, tx.Fee, i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould hold the highest unlocked fees in order.", success)
		}

		t.Logf("\tTest 1:\tWhen configured with a smaller block size.")
		{
			small, _ := assembler.New(assembler.Config{Selector: first(), MaxTransactions: 7})

			block, err := small.CreateBlock(context.Background(), mempool, genesisChain(), []string{"m"})
			if err != nil || len(block.Trans) != 7 {
				t.Fatalf("\t%s\tTest 1:\tShould hold 7 transactions: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould hold 7 transactions.", success)
		}
	}
}

func TestCreateBlockTip(t *testing.T) {
	tx := database.Tx{Receiver: "bob", Sender: "alice", Amount: 1, Fee: 1}

	t.Log("Given a chain whose last block is not the tip.")
	{
		chain := []database.Block{
			database.NewBlock(database.BlockHeader{Hash: "H0", Height: 0, TimeStamp: 1000}, nil),
			database.NewBlock(database.BlockHeader{Hash: "H2", Height: 2, TimeStamp: 1020}, nil),
			database.NewBlock(database.BlockHeader{Hash: "H2b", Height: 2, TimeStamp: 1020}, nil),
			database.NewBlock(database.BlockHeader{Hash: "H1", Height: 1, TimeStamp: 1010}, nil),
		}

		clock := assembler.ClockFunc(func() time.Time { return time.Unix(0, 7) })
		a, _ := assembler.New(assembler.Config{Selector: assembler.ClockSelector{Clock: clock}})

		t.Logf("\tTest 0:\tWhen creating the next block.")
		{
			block, err := a.CreateBlock(context.Background(), []database.Tx{tx}, chain, []string{"m0", "m1", "m2", "m3", "m4"})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to create the block: %v", failed, err)
			}

			if block.Header.PrevBlockHash != "H2" || block.Header.Height != 3 || block.Header.TimeStamp != 1030 {
				t.Fatalf("\t%s\tTest 0:\tShould extend the first block with the latest timestamp, got %+v.", failed, block.Header)
			}
			t.Logf("\t%s\tTest 0:\tShould extend the first block with the latest timestamp.", success)

			if block.Header.Miner != "m2" {
				t.Fatalf("\t%s\tTest 0:\tShould pick the miner from the clock nanoseconds, got %s.", failed, block.Header.Miner)
			}
			t.Logf("\t%s\tTest 0:\tShould pick the miner from the clock nanoseconds.", success)
		}
	}
}
