// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sort"
	"sync"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/mempool/selector"
)

// entry keeps the position a transaction entered the pool at.
type entry struct {
	seq uint64
	tx  database.Tx
}

// Mempool represents a cache of transactions keyed by transaction hash. The
// order transactions entered the pool is preserved.
type Mempool struct {
	mu       sync.RWMutex
	pool     map[string]entry
	seq      uint64
	selectFn selector.Func
}

// New constructs a new mempool using the default select strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyFee)
}

// NewWithStrategy constructs a new mempool with specified select strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	return NewWithSelector(selectFn), nil
}

// NewWithSelector constructs a new mempool that orders transactions with
// the specified select function.
func NewWithSelector(selectFn selector.Func) *Mempool {
	return &Mempool{
		pool:     make(map[string]entry),
		selectFn: selectFn,
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the mempool. A transaction already in the
// pool keeps its original position.
func (mp *Mempool) Upsert(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key := tx.Hash()
	if _, exists := mp.pool[key]; !exists {
		mp.pool[key] = entry{seq: mp.seq, tx: tx}
		mp.seq++
	}

	return len(mp.pool)
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, tx.Hash())
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]entry)
}

// Copy returns the transactions in the order they entered the pool.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	entries := make([]entry, 0, len(mp.pool))
	for _, e := range mp.pool {
		entries = append(entries, e)
	}
	mp.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	trans := make([]database.Tx, len(entries))
	for i, e := range entries {
		trans[i] = e.tx
	}

	return trans
}

// PickBest uses the configured select strategy to return the next set
// of transactions unlocked at the specified lock time. Pass -1 for howMany
// to get every unlocked transaction.
func (mp *Mempool) PickBest(lockTime uint64, howMany int) []database.Tx {
	return mp.selectFn(mp.Copy(), lockTime, howMany)
}
