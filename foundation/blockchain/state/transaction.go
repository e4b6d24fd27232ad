package state

import (
	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
)

// UpsertMempool accepts a transaction for inclusion and signals the worker
// that there is something to mine. It returns the size of the mempool.
func (s *State) UpsertMempool(tx database.Tx) int {
	n := s.mempool.Upsert(tx)

	s.evHandler("state: UpsertMempool: tx[%s] mempool[%d]", tx, n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return n
}

// SignalMining asks the worker to start a mining operation. It reports
// false when no worker is running for this node.
func (s *State) SignalMining() bool {
	if s.Worker == nil {
		return false
	}

	s.Worker.SignalStartMining()
	return true
}
