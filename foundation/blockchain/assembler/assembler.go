// Package assembler builds the next block of the chain: it picks the pending
// transactions, commits to them with a merkle tree and performs the proof of
// work. Assembly never modifies the collections it's handed.
package assembler

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
	"github.com/ardanlabs/blockforge/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/blockforge/foundation/blockchain/merkle"
)

// DefaultMaxTransactions is the number of transactions a block holds when
// no other value is configured.
const DefaultMaxTransactions = 100

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements the Clock interface.
func (f ClockFunc) Now() time.Time {
	return f()
}

// MinerSelector picks the index of the miner that's credited with a block
// out of a pool of n addresses. The returned index must be in [0, n).
type MinerSelector interface {
	Select(n int) int
}

// SelectorFunc adapts a function to the MinerSelector interface.
type SelectorFunc func(n int) int

// Select implements the MinerSelector interface.
func (f SelectorFunc) Select(n int) int {
	return f(n)
}

// ClockSelector picks the miner from the sub-second nanoseconds of a clock.
type ClockSelector struct {
	Clock Clock
}

// Select implements the MinerSelector interface.
func (cs ClockSelector) Select(n int) int {
	return cs.Clock.Now().Nanosecond() % n
}

// =============================================================================

// Config represents the settings for the assembler.
type Config struct {
	Selector        MinerSelector
	SelectFn        selector.Func
	MaxTransactions int
	EvHandler       func(v string, args ...any)
}

// Assembler creates new blocks.
type Assembler struct {
	selector        MinerSelector
	selectFn        selector.Func
	maxTransactions int
	evHandler       func(v string, args ...any)
}

// New constructs an assembler. Fields left empty in the config fall back to
// the wall clock selector, the fee strategy and DefaultMaxTransactions.
func New(cfg Config) (*Assembler, error) {
	a := Assembler{
		selector:        cfg.Selector,
		selectFn:        cfg.SelectFn,
		maxTransactions: cfg.MaxTransactions,
		evHandler:       cfg.EvHandler,
	}

	if a.selector == nil {
		a.selector = ClockSelector{Clock: ClockFunc(time.Now)}
	}

	if a.selectFn == nil {
		fn, err := selector.Retrieve(selector.StrategyFee)
		if err != nil {
			return nil, err
		}
		a.selectFn = fn
	}

	if a.maxTransactions <= 0 {
		a.maxTransactions = DefaultMaxTransactions
	}

	if a.evHandler == nil {
		a.evHandler = func(v string, args ...any) {}
	}

	return &a, nil
}

// CreateBlock assembles and mines the block that extends the tip of the
// specified chain. The context bounds the proof of work search.
func (a *Assembler) CreateBlock(ctx context.Context, mempool []database.Tx, chain []database.Block, addresses []string) (database.Block, error) {
	tip, err := database.Tip(chain)
	if err != nil {
		return database.Block{}, err
	}

	if len(addresses) == 0 {
		return database.Block{}, database.ErrEmptyAddressPool
	}

	timeStamp := tip.Header.TimeStamp + database.BlockInterval

	a.evHandler("assembler: CreateBlock: tip[%s] height[%d] timestamp[%d]", tip.Hash(), tip.Header.Height, timeStamp)

	trans := a.selectFn(mempool, timeStamp, a.maxTransactions)
	if len(trans) == 0 {
		return database.Block{}, fmt.Errorf("mempool %d, timestamp %d: %w", len(mempool), timeStamp, database.ErrEmptyTransactionSet)
	}

	a.evHandler("assembler: CreateBlock: selected trans[%d] of mempool[%d]", len(trans), len(mempool))

	// Construct a merkle tree from the transactions for this block. The root
	// of this tree will be part of the block to be mined.
	tree, err := merkle.NewTree(trans)
	if err != nil {
		return database.Block{}, err
	}

	idx := a.selector.Select(len(addresses))
	if idx < 0 || idx >= len(addresses) {
		return database.Block{}, fmt.Errorf("miner selector returned index %d for %d addresses", idx, len(addresses))
	}

	height := tip.Header.Height + 1

	header := database.BlockHeader{
		Difficulty:    database.NextDifficulty(tip.Header.Difficulty, height),
		Height:        height,
		Miner:         addresses[idx],
		PrevBlockHash: tip.Hash(),
		TimeStamp:     timeStamp,
		TransCount:    uint32(len(trans)),
		TransRoot:     tree.Root(),
	}

	// Perform the proof of work mining operation.
	header, err = database.POW(ctx, header, a.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	return database.NewBlockWithTree(header, tree), nil
}
