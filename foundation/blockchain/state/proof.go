package state

import (
	"github.com/ardanlabs/blockforge/foundation/blockchain/merkle"
)

// InclusionProof is the information needed to check that a transaction is
// part of a block without the block's other transactions.
type InclusionProof struct {
	BlockHash string   `json:"block_hash"`
	Root      string   `json:"root"`
	Index     int      `json:"index"`
	Leaf      string   `json:"leaf"`
	Proof     []string `json:"proof"`
}

// GenerateInclusionProof returns the proof for the transaction at the
// specified index in the block with the specified hash. The block's cached
// merkle tree is used.
func (s *State) GenerateInclusionProof(blockHash string, index int) (InclusionProof, error) {
	block, err := s.db.QueryByHash(blockHash)
	if err != nil {
		return InclusionProof{}, err
	}

	tree, err := block.MerkleTree()
	if err != nil {
		return InclusionProof{}, err
	}

	proof, err := tree.Proof(index)
	if err != nil {
		return InclusionProof{}, err
	}

	ip := InclusionProof{
		BlockHash: block.Hash(),
		Root:      tree.Root(),
		Index:     index,
		Leaf:      block.Trans[index].Hash(),
		Proof:     proof,
	}

	return ip, nil
}

// VerifyInclusionProof reports whether the leaf and proof fold into the root.
func VerifyInclusionProof(root string, leaf string, proof []string) bool {
	return merkle.VerifyProof(root, leaf, proof)
}
