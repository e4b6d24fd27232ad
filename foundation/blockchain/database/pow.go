package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrMiningCancelled is returned by POW when the search is stopped before a
// solution is found. The returned error also wraps the context's error.
var ErrMiningCancelled = errors.New("mining cancelled")

// Mining rules for the chain.
const (
	MaxDifficulty      uint8  = 6   // Difficulty never goes past this value.
	MaxDifficultyAfter uint16 = 300 // Height at which difficulty jumps to the max.
	DifficultyStep     uint16 = 50  // Difficulty increases every this many blocks.
	BlockInterval      uint64 = 10  // Timestamp increment between blocks.
)

// NextDifficulty returns the difficulty for the block after the specified
// height. The height passed is incremented before the rules are applied,
// so callers passing the new block's height are evaluated one block ahead.
// Difficulty never decreases and never goes past MaxDifficulty.
func NextDifficulty(prev uint8, height uint16) uint8 {
	newHeight := uint32(height) + 1

	switch {
	case prev >= MaxDifficulty:
		return MaxDifficulty
	case newHeight >= uint32(MaxDifficultyAfter):
		return MaxDifficulty
	case newHeight%uint32(DifficultyStep) == 0:
		return prev + 1
	default:
		return prev
	}
}

// POW performs the work to find a nonce that solves the header's hash puzzle.
// The search starts at nonce 0 and increments by 1, so the returned header
// carries the smallest solving nonce and its hash. The search runs until a
// solution is found or the context is cancelled.
func POW(ctx context.Context, header BlockHeader, evHandler func(v string, args ...any)) (BlockHeader, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	evHandler("database: POW: MINING: started: height[%d] difficulty[%d]", header.Height, header.Difficulty)
	defer evHandler("database: POW: MINING: completed: height[%d]", header.Height)

	header.Nonce = 0

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			evHandler("database: POW: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if err := ctx.Err(); err != nil {
			evHandler("database: POW: MINING: CANCELLED: attempts[%d]", attempts)
			return BlockHeader{}, fmt.Errorf("%w: %w", ErrMiningCancelled, err)
		}

		// Hash the header and check if we have solved the puzzle.
		hash := header.ComputeHash()
		if !header.IsSolved(hash) {
			header.Nonce++
			continue
		}

		header.Hash = hash

		evHandler("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", header.PrevBlockHash, hash)
		evHandler("database: POW: MINING: attempts[%d]", attempts)

		return header, nil
	}
}
