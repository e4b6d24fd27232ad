// Package disk implements the ability to read and write blocks to a single
// JSON file on disk holding the chain as an array of blocks.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
)

// FileName is the name of the chain file written inside the storage directory.
const FileName = "current_blockchain.json"

// Disk represents the serialization implementation for reading and storing
// blocks in a JSON file on disk. The whole chain is rewritten on every write
// through a temporary file and a rename, so the file on disk is always a
// complete chain. This implements the database.Storage interface.
type Disk struct {
	mu     sync.RWMutex
	dbPath string
	blocks []database.BlockData
}

// New constructs a Disk value for use, reading the chain file if it exists.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	d := Disk{dbPath: dbPath}

	data, err := os.ReadFile(d.path())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &d, nil
	case err != nil:
		return nil, err
	}

	if err := json.Unmarshal(data, &d.blocks); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", d.path(), err)
	}

	return &d, nil
}

// Close in this implementation has nothing to do since the file is
// written and closed on every write.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified database block, appends it to the chain and
// writes the chain to disk.
func (d *Disk) Write(blockData database.BlockData) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	blocks := append(d.blocks[:len(d.blocks):len(d.blocks)], blockData)
	if err := d.flush(blocks); err != nil {
		return err
	}

	d.blocks = blocks

	return nil
}

// GetBlock returns the block at the specified position in the chain.
func (d *Disk) GetBlock(seq uint64) (database.BlockData, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if seq >= uint64(len(d.blocks)) {
		return database.BlockData{}, database.ErrBlockNotFound
	}

	return d.blocks[seq], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the first block in the file.
func (d *Disk) ForEach() database.Iterator {
	return &diskIterator{disk: d}
}

// Reset will clear out the blockchain on disk.
func (d *Disk) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.Remove(d.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	d.blocks = nil

	return nil
}

// path forms the path to the chain file.
func (d *Disk) path() string {
	return filepath.Join(d.dbPath, FileName)
}

// flush writes the specified chain to a temporary file and moves it over
// the chain file.
func (d *Disk) flush(blocks []database.BlockData) error {

	// Marshal the chain for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(d.dbPath, FileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), d.path())
}

// =============================================================================

// diskIterator represents the iteration implementation for walking
// through the blocks read from disk. This implements the database
// Iterator interface.
type diskIterator struct {
	disk    *Disk  // Access to the storage API.
	current uint64 // Current block position being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block.
func (di *diskIterator) Next() (database.BlockData, error) {
	if di.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	blockData, err := di.disk.GetBlock(di.current)
	if errors.Is(err, database.ErrBlockNotFound) {
		di.eoc = true
		return database.BlockData{}, nil
	}

	di.current++

	return blockData, err
}

// Done returns the end of chain value.
func (di *diskIterator) Done() bool {
	return di.eoc
}
