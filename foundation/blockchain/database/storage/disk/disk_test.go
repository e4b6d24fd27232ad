package disk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/database/storage/disk"
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

	t.Log("Given the need to store the chain in a JSON file.")
	{
		dbPath := t.TempDir()

		t.Logf("\tTest 0:\tWhen writing blocks.")
		{
			d, err := disk.New(dbPath)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open storage: %v", failed, err)
			}

			for _, blockData := range blocks {
				if err := d.Write(blockData); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to write a block: %v", failed, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be able to write blocks.", success)

			if _, err := os.Stat(filepath.Join(dbPath, disk.FileName)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould create the chain file: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould create the chain file.", success)
		}

		t.Logf("\tTest 1:\tWhen reading the chain back.")
		{
			d, err := disk.New(dbPath)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to reopen storage: %v", failed, err)
			}

			db, err := database.New(d, nil)
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
			t.Logf("\t%s\tTest 1:\tShould read the blocks back unchanged.", success)

			if got[1].Trans[0] != blocks[1].Trans[0] {
				t.Fatalf("\t%s\tTest 1:\tShould read the transactions unchanged.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould read the transactions unchanged.", success)
		}

		t.Logf("\tTest 2:\tWhen resetting the chain.")
		{
			d, _ := disk.New(dbPath)
			if err := d.Reset(); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to reset: %v", failed, err)
			}

			d, _ = disk.New(dbPath)
			if _, err := d.GetBlock(0); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould have no blocks after a reset.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould have no blocks after a reset.", success)
		}
	}
}
