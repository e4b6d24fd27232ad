// Package pebble implements the ability to read and write blocks to a
// Pebble key/value store. Blocks are stored as JSON under a key made of a
// prefix and the block's 8 byte big endian position in the chain, so a
// prefix scan returns the chain in order.
package pebble

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/cockroachdb/pebble"
)

// prefixBlocks is the key prefix for block records.
const prefixBlocks = "blk:"

// Pebble represents the serialization implementation for reading and storing
// blocks in a Pebble database. This implements the database.Storage interface.
type Pebble struct {
	mu   sync.Mutex
	db   *pebble.DB
	next uint64
}

// New opens or creates the Pebble database at the specified path.
func New(dbPath string) (*Pebble, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	p := Pebble{db: db}

	next, err := p.count()
	if err != nil {
		db.Close()
		return nil, err
	}
	p.next = next

	return &p, nil
}

// Close closes the database.
func (p *Pebble) Close() error {
	return p.db.Close()
}

// Write takes the specified database block and stores it under the next
// position in the chain.
func (p *Pebble) Write(blockData database.BlockData) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	if err := p.db.Set(blockKey(p.next), data, pebble.Sync); err != nil {
		return err
	}

	p.next++

	return nil
}

// GetBlock returns the block at the specified position in the chain.
func (p *Pebble) GetBlock(seq uint64) (database.BlockData, error) {
	value, closer, err := p.db.Get(blockKey(seq))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return database.BlockData{}, database.ErrBlockNotFound
		}
		return database.BlockData{}, err
	}
	defer closer.Close()

	var blockData database.BlockData
	if err := json.Unmarshal(value, &blockData); err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the first block written.
func (p *Pebble) ForEach() database.Iterator {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefixBlocks),
		UpperBound: prefixUpperBound([]byte(prefixBlocks)),
	})
	if err != nil {
		return &pebbleIterator{err: err}
	}

	iter.First()

	return &pebbleIterator{iter: iter}
}

// Reset will clear out the blockchain.
func (p *Pebble) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.db.DeleteRange([]byte(prefixBlocks), prefixUpperBound([]byte(prefixBlocks)), pebble.Sync); err != nil {
		return err
	}

	p.next = 0

	return nil
}

// count walks the block keys to find how many blocks are stored.
func (p *Pebble) count() (uint64, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefixBlocks),
		UpperBound: prefixUpperBound([]byte(prefixBlocks)),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}

	key := iter.Key()
	if len(key) != len(prefixBlocks)+8 {
		return 0, fmt.Errorf("unexpected block key %q", key)
	}

	return binary.BigEndian.Uint64(key[len(prefixBlocks):]) + 1, nil
}

// blockKey forms the key for the block at the specified position.
func blockKey(seq uint64) []byte {
	key := make([]byte, len(prefixBlocks)+8)
	copy(key, prefixBlocks)
	binary.BigEndian.PutUint64(key[len(prefixBlocks):], seq)
	return key
}

// prefixUpperBound returns the upper bound for prefix iteration.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}

// =============================================================================

// pebbleIterator represents the iteration implementation for walking
// through the blocks in key order. This implements the database
// Iterator interface.
type pebbleIterator struct {
	iter *pebble.Iterator
	err  error
	eoc  bool
}

// Next retrieves the next block. The underlying iterator is closed once the
// end of the chain is reached or a block can't be read. An error is reported
// once and the following call ends the iteration.
func (pi *pebbleIterator) Next() (database.BlockData, error) {
	if pi.err != nil {
		err := pi.err
		pi.err = nil
		return database.BlockData{}, err
	}

	if pi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	if pi.iter == nil {
		pi.eoc = true
		return database.BlockData{}, nil
	}

	if !pi.iter.Valid() {
		pi.eoc = true
		return database.BlockData{}, pi.close()
	}

	var blockData database.BlockData
	if err := json.Unmarshal(pi.iter.Value(), &blockData); err != nil {
		pi.close()
		return database.BlockData{}, err
	}

	pi.iter.Next()

	return blockData, nil
}

// close releases the underlying iterator.
func (pi *pebbleIterator) close() error {
	err := pi.iter.Close()
	pi.iter = nil
	return err
}

// Done returns the end of chain value.
func (pi *pebbleIterator) Done() bool {
	return pi.eoc
}
