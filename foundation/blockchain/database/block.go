package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/blockforge/foundation/blockchain/digest"
	"github.com/ardanlabs/blockforge/foundation/blockchain/merkle"
)

// Set of errors related to blocks and the chain.
var (
	ErrEmptyChain          = errors.New("chain has no blocks to extend")
	ErrEmptyAddressPool    = errors.New("address pool has no miner addresses")
	ErrEmptyTransactionSet = errors.New("no eligible transactions for the block")
	ErrBlockInvalid        = errors.New("block is invalid")
	ErrBlockNotFound       = errors.New("block not found")
)

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Difficulty    uint8  `json:"difficulty"`                 // Number of leading 0's needed to solve the hash solution.
	Hash          string `json:"hash"`                       // Hash of this header found by the POW search.
	Height        uint16 `json:"height"`                     // Position of the block in the chain, previous+1.
	Miner         string `json:"miner"`                      // Address of the miner that produced the block.
	Nonce         uint64 `json:"nonce"`                      // Value identified to solve the hash solution.
	PrevBlockHash string `json:"previous_block_header_hash"` // Hash of the previous block in the chain.
	TimeStamp     uint64 `json:"timestamp"`                  // Previous block's timestamp plus 10, not wall clock.
	TransCount    uint32 `json:"transactions_count"`         // Number of transactions in the block.
	TransRoot     string `json:"transactions_merkle_root"`   // Merkle root of the transactions in this block.
}

// HashString returns the delimited string of header fields that is hashed
// during mining. The hash field itself is not part of the string. The last
// three separators carry a space and must be kept that way since existing
// block hashes were produced with it.
func (bh BlockHeader) HashString() string {
	return fmt.Sprintf("%d,%d,%s,%d,%s, %d, %d, %s",
		bh.Difficulty,
		bh.Height,
		bh.Miner,
		bh.Nonce,
		bh.PrevBlockHash,
		bh.TimeStamp,
		bh.TransCount,
		bh.TransRoot,
	)
}

// ComputeHash hashes the header fields for the current nonce.
func (bh BlockHeader) ComputeHash() string {
	return digest.Hash(bh.HashString())
}

// IsSolved reports whether the specified hash meets the header's difficulty.
func (bh BlockHeader) IsSolved(hash string) bool {
	return digest.LeadingZeros(hash) >= int(bh.Difficulty)
}

// =============================================================================

// treeCache holds the merkle tree for a block. It's shared by every copy
// of a block value so the tree is computed at most once.
type treeCache struct {
	once sync.Once
	tree *merkle.Tree[Tx]
	err  error
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  []Tx
	cache  *treeCache
}

// NewBlock constructs a block for the specified header and transactions.
func NewBlock(header BlockHeader, trans []Tx) Block {
	return Block{
		Header: header,
		Trans:  append([]Tx(nil), trans...),
		cache:  &treeCache{},
	}
}

// NewBlockWithTree constructs a block whose tree cache is already populated
// with a tree built over the specified transactions.
func NewBlockWithTree(header BlockHeader, tree *merkle.Tree[Tx]) Block {
	b := Block{
		Header: header,
		Trans:  tree.Values(),
		cache:  &treeCache{},
	}

	b.cache.once.Do(func() {
		b.cache.tree = tree
	})

	return b
}

// Hash returns the hash recorded in the block header.
func (b Block) Hash() string {
	return b.Header.Hash
}

// MerkleTree returns the merkle tree for the block's transactions. The tree
// is built on first use and the same tree is returned after that. A block
// value not constructed through NewBlock has no cache and builds a fresh
// tree on each call.
func (b Block) MerkleTree() (*merkle.Tree[Tx], error) {
	if b.cache == nil {
		return merkle.NewTree(b.Trans)
	}

	b.cache.once.Do(func() {
		b.cache.tree, b.cache.err = merkle.NewTree(b.Trans)
	})

	return b.cache.tree, b.cache.err
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain as the child of the specified previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block height is the next height", b.Header.Height)

	nextHeight := previousBlock.Header.Height + 1
	if b.Header.Height != nextHeight {
		return fmt.Errorf("%w: this block is not the next height, got %d, exp %d", ErrBlockInvalid, b.Header.Height, nextHeight)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Height)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("%w: parent block hash doesn't match our known parent, got %s, exp %s", ErrBlockInvalid, b.Header.PrevBlockHash, previousBlock.Hash())
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block timestamp follows the parent", b.Header.Height)

	nextTimeStamp := previousBlock.Header.TimeStamp + BlockInterval
	if b.Header.TimeStamp != nextTimeStamp {
		return fmt.Errorf("%w: block timestamp does not follow the parent, got %d, exp %d", ErrBlockInvalid, b.Header.TimeStamp, nextTimeStamp)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block difficulty follows the parent", b.Header.Height)

	difficulty := NextDifficulty(previousBlock.Header.Difficulty, b.Header.Height)
	if b.Header.Difficulty != difficulty {
		return fmt.Errorf("%w: block difficulty does not follow the parent, got %d, exp %d", ErrBlockInvalid, b.Header.Difficulty, difficulty)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Height)

	hash := b.Header.ComputeHash()
	if hash != b.Header.Hash {
		return fmt.Errorf("%w: block hash does not match header, got %s, exp %s", ErrBlockInvalid, b.Header.Hash, hash)
	}

	if !b.Header.IsSolved(hash) {
		return fmt.Errorf("%w: %s invalid block hash for difficulty %d", ErrBlockInvalid, hash, b.Header.Difficulty)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: merkle root does match transactions", b.Header.Height)

	if int(b.Header.TransCount) != len(b.Trans) {
		return fmt.Errorf("%w: transaction count does not match, got %d, exp %d", ErrBlockInvalid, b.Header.TransCount, len(b.Trans))
	}

	tree, err := b.MerkleTree()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBlockInvalid, err)
	}

	if b.Header.TransRoot != tree.Root() {
		return fmt.Errorf("%w: merkle root does not match transactions, got %s, exp %s", ErrBlockInvalid, b.Header.TransRoot, tree.Root())
	}

	return nil
}

// =============================================================================

// BlockData represents what can be serialized to disk and over the network.
type BlockData struct {
	Header BlockHeader `json:"header"`
	Trans  []Tx        `json:"transactions"`
}

// NewBlockData constructs block data from a block.
func NewBlockData(block Block) BlockData {
	trans := make([]Tx, len(block.Trans))
	copy(trans, block.Trans)

	return BlockData{
		Header: block.Header,
		Trans:  trans,
	}
}

// ToBlock converts a storage block into a database block.
func ToBlock(blockData BlockData) Block {
	return NewBlock(blockData.Header, blockData.Trans)
}

// =============================================================================

// Tip returns the block with the largest timestamp. When several blocks share
// the largest timestamp the first one in the chain wins.
func Tip(chain []Block) (Block, error) {
	if len(chain) == 0 {
		return Block{}, ErrEmptyChain
	}

	tip := chain[0]
	for _, block := range chain[1:] {
		if block.Header.TimeStamp > tip.Header.TimeStamp {
			tip = block
		}
	}

	return tip, nil
}
