// Package state is the core API for the blockchain and implements all the
// business rules and processing. It owns the mempool, the chain and the pool
// of miner addresses and hands copies of them to the block assembler.
package state

import (
	"sync"

	"github.com/ardanlabs/blockforge/foundation/blockchain/assembler"
	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockforge/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockforge/foundation/blockchain/mempool/selector"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Genesis         genesis.Genesis
	Storage         database.Storage
	SelectStrategy  string
	MaxTransactions int
	MinerSelector   assembler.MinerSelector
	EvHandler       EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.Mutex

	evHandler EventHandler
	addresses []string

	mempool   *mempool.Mempool
	db        *database.Database
	assembler *assembler.Assembler

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Access the storage for the blockchain and load the blocks it holds.
	db, err := database.New(cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	// A new node starts from the chain in the data files.
	n, err := db.Seed(cfg.Genesis.Chain)
	if err != nil {
		return nil, err
	}
	ev("state: New: seeded blocks[%d] chain[%d]", n, db.Count())

	// Construct a mempool with the specified select strategy.
	if cfg.SelectStrategy == "" {
		cfg.SelectStrategy = selector.StrategyFee
	}

	selectFn, err := selector.Retrieve(cfg.SelectStrategy)
	if err != nil {
		return nil, err
	}

	// The mempool and the assembler order transactions the same way.
	mp := mempool.NewWithSelector(selectFn)

	// Transactions already mined into a stored block don't go back into
	// the mempool.
	mined := make(map[string]bool)
	for _, block := range db.Copy() {
		for _, tx := range block.Trans {
			mined[tx.Hash()] = true
		}
	}

	for _, tx := range cfg.Genesis.Mempool {
		if !mined[tx.Hash()] {
			mp.Upsert(tx)
		}
	}

	asm, err := assembler.New(assembler.Config{
		Selector:        cfg.MinerSelector,
		SelectFn:        selectFn,
		MaxTransactions: cfg.MaxTransactions,
		EvHandler:       ev,
	})
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		evHandler: ev,
		addresses: append([]string(nil), cfg.Genesis.Addresses...),

		mempool:   mp,
		db:        db,
		assembler: asm,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return s.db.Close()
}
