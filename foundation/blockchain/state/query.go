package state

import (
	"math"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryChainLength returns the number of blocks in the chain.
func (s *State) QueryChainLength() int {
	return s.db.Count()
}

// QueryBlocksByPosition returns the blocks between the specified positions
// in the chain, both included. QueryLatest can be used for either value to
// mean the last block written.
func (s *State) QueryBlocksByPosition(from uint64, to uint64) []database.Block {
	last := uint64(s.db.Count())
	if last == 0 {
		return nil
	}
	last--

	if from == QueryLatest {
		from = last
	}
	if to == QueryLatest {
		to = last
	}

	return s.db.Range(from, to)
}

// QueryBlocksByHeight returns the blocks at the specified height.
func (s *State) QueryBlocksByHeight(height uint16) []database.Block {
	return s.db.QueryByHeight(height)
}

// QueryBlockByHash returns the block with the specified hash.
func (s *State) QueryBlockByHash(hash string) (database.Block, error) {
	return s.db.QueryByHash(hash)
}

// =============================================================================

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() (database.Block, error) {
	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of the chain.
func (s *State) RetrieveChain() []database.Block {
	return s.db.Copy()
}

// RetrieveMempool returns a copy of the mempool in the order of the
// configured select strategy.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.PickBest(math.MaxUint64, -1)
}

// RetrieveAddresses returns a copy of the miner address pool.
func (s *State) RetrieveAddresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.addresses...)
}
