package pebble_test

import (
	"testing"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/database/storage/pebble"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestRoundTrip(t *testing.T) {
	blocks := []database.BlockData{
		{Header: database.BlockHeader{Height: 0, TimeStamp: 1000, Hash: "H0"}, Trans: []database.Tx{}},
		{
			Header: database.BlockHeader{Height: 1, TimeStamp: 1010, Hash: "H1", PrevBlockHash: "H0", TransCount: 1},
			Trans:  []database.Tx{{Receiver: "bob", Sender: "alice", Signature: "sig", Amount: 10, Fee: 5}},
		},
	}

	t.Log("Given the need to store the chain in a Pebble database.")
	{
		dbPath := t.TempDir()

		t.Logf("\tTest 0:\tWhen writing blocks.")
		{
			p, err := pebble.New(dbPath)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open storage: %v", failed, err)
			}

			for _, blockData := range blocks {
				if err := p.Write(blockData); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to write a block: %v", failed, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be able to write blocks.", success)

			got, err := p.GetBlock(1)
			if err != nil || got.Header != blocks[1].Header {
				t.Fatalf("\t%s\tTest 0:\tShould get block 1 back: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get block 1 back.", success)

			if err := p.Close(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to close storage: %v", failed, err)
			}
		}

		t.Logf("\tTest 1:\tWhen reading the chain back.")
		{
			p, err := pebble.New(dbPath)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to reopen storage: %v", failed, err)
			}
			defer p.Close()

			db, err := database.New(p, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to load the chain: %v", failed, err)
			}

			got := db.Copy()
			if len(got) != len(blocks) {
				t.Fatalf("\t%s\tTest 1:\tShould read %d blocks, got %d.", failed, len(blocks), len(got))
			}

			for i := range blocks {
				if got[i].Header != blocks[i].Header || len(got[i].Trans) != len(blocks[i].Trans) {
					t.Fatalf("\t%s\tTest 1:\tShould read block %d unchanged.", failed, i)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould read the blocks back in order.", success)

			block := database.NewBlock(database.BlockHeader{Height: 2, TimeStamp: 1020, Hash: "H2"}, nil)
			if err := db.Write(block); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould append after reopening: %v", failed, err)
			}

			if got, err := p.GetBlock(2); err != nil || got.Header.Hash != "H2" {
				t.Fatalf("\t%s\tTest 1:\tShould store the appended block at position 2: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould append after reopening.", success)

			if err := db.Reset(); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to reset: %v", failed, err)
			}

			if _, err := p.GetBlock(0); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould have no blocks after a reset.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould have no blocks after a reset.", success)
		}
	}
}
