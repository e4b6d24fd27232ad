// Package database handles the block, transaction and mining rules of the
// chain and maintains the chain of blocks in memory, backed by a pluggable
// storage implementation.
package database

import (
	"fmt"
	"sync"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(seq uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the chain of blocks. Blocks are kept in the order they
// were written, which is also the order the storage returns them in.
type Database struct {
	mu      sync.RWMutex
	blocks  []Block
	storage Storage
}

// New constructs a new database and reads every block the storage already
// holds into memory.
func New(storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	db := Database{
		storage: storage,
	}

	iter := storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("reading block %d: %w", len(db.blocks), err)
		}

		db.blocks = append(db.blocks, ToBlock(blockData))
	}

	evHandler("database: New: loaded blocks[%d]", len(db.blocks))

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Reset clears the chain from memory and storage.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	db.blocks = nil

	return nil
}

// Seed writes the specified blocks when the chain is empty. It returns the
// number of blocks written, which is zero when the chain already has blocks.
func (db *Database) Seed(blocks []Block) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(db.blocks) > 0 {
		return 0, nil
	}

	for _, block := range blocks {
		if err := db.storage.Write(NewBlockData(block)); err != nil {
			return 0, err
		}
		db.blocks = append(db.blocks, block)
	}

	return len(blocks), nil
}

// Write adds a new block to the chain.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return err
	}

	db.blocks = append(db.blocks, block)

	return nil
}

// LatestBlock returns the tip of the chain.
func (db *Database) LatestBlock() (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return Tip(db.blocks)
}

// Count returns the number of blocks in the chain.
func (db *Database) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.blocks)
}

// Copy returns a copy of the chain in write order.
func (db *Database) Copy() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return append([]Block(nil), db.blocks...)
}

// Range returns the blocks at the specified positions in the chain, from
// and to included.
func (db *Database) Range(from uint64, to uint64) []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	n := uint64(len(db.blocks))
	if from >= n || from > to {
		return nil
	}

	if to >= n {
		to = n - 1
	}

	return append([]Block(nil), db.blocks[from:to+1]...)
}

// QueryByHash returns the block with the specified hash.
func (db *Database) QueryByHash(hash string) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, block := range db.blocks {
		if block.Hash() == hash {
			return block, nil
		}
	}

	return Block{}, fmt.Errorf("hash %q: %w", hash, ErrBlockNotFound)
}

// QueryByHeight returns the blocks at the specified height.
func (db *Database) QueryByHeight(height uint16) []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var blocks []Block
	for _, block := range db.blocks {
		if block.Header.Height == height {
			blocks = append(blocks, block)
		}
	}

	return blocks
}
