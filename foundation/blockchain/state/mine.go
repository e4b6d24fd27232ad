package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/blockforge/foundation/blockchain/database"
)

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, database.ErrEmptyTransactionSet
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := s.assembler.CreateBlock(ctx, s.mempool.Copy(), s.db.Copy(), s.RetrieveAddresses())
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if err := ctx.Err(); err != nil {
		return database.Block{}, fmt.Errorf("%w: %w", database.ErrMiningCancelled, err)
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	if err := s.updateLocalState(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block mined elsewhere, validates it against
// the tip and if that passes, writes the block to the chain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started : block[%s]", block.Hash())
	defer s.evHandler("state: ProcessProposedBlock: completed")

	// If a mining operation is being executed it needs to stop immediately.
	// The worker will not start another one until done is called. That allows
	// this function to complete its state changes first.
	if s.Worker != nil {
		done := s.Worker.SignalCancelMining()
		defer func() {
			s.evHandler("state: ProcessProposedBlock: signal mining to terminate")
			done()
		}()
	}

	return s.updateLocalState(block)
}

// =============================================================================

// updateLocalState validates the block against the current tip, writes it to
// the chain and removes its transactions from the mempool.
func (s *State) updateLocalState(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tip, err := s.db.LatestBlock()
	if err != nil {
		return err
	}

	if err := block.ValidateBlock(tip, s.evHandler); err != nil {
		return err
	}

	s.evHandler("state: updateLocalState: write to storage")

	// Write the new block to the chain.
	if err := s.db.Write(block); err != nil {
		return err
	}

	s.evHandler("state: updateLocalState: remove from mempool")

	for _, tx := range block.Trans {
		s.evHandler("state: updateLocalState: tx[%s] remove", tx)
		s.mempool.Delete(tx)
	}

	return nil
}
