// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, turned into generics, and moved
// onto an array backed tree.

// Package merkle provides an implementation of a merkle tree for validation
// support for the blockchain. The tree is stored as a flat array holding a
// complete binary tree: the root lives at index 0 and the children of the
// node at index i live at 2i+1 and 2i+2.
package merkle

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"math/bits"
	"strings"

	"github.com/ardanlabs/blockforge/foundation/blockchain/digest"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Set of errors returned by the tree.
var (
	ErrNoValues              = errors.New("cannot construct tree with no values")
	ErrProofIndexOutOfRange  = errors.New("leaf index is out of range")
	ErrValueNotFound         = errors.New("unable to find value in tree")
	ErrInvalidTreeComputed   = errors.New("tree hashes do not match the values")
	errUnexpectedParentIndex = errors.New("walked past the root")
)

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() string
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Nodes        []string
	Height       int
	values       []T
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using sha256
// for the internal nodes when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the nodes of the tree from the specified values in the
// order provided. If the tree has been generated previously, the tree is
// re-generated from scratch.
func (t *Tree[T]) Generate(values []T) error {
	n := len(values)
	if n == 0 {
		return ErrNoValues
	}

	// The height of the smallest complete binary tree with at least n leaves.
	height := bits.Len(uint(n - 1))
	size := 1<<(height+1) - 1
	base := 1<<height - 1

	nodes := make([]string, size)
	for i := range nodes {
		nodes[i] = digest.ZeroHash
	}

	for i, value := range values {
		nodes[base+i] = value.Hash()
	}

	for i := base - 1; i >= 0; i-- {
		nodes[i] = hashPair(t.hashStrategy, nodes[2*i+1], nodes[2*i+2])
	}

	t.Nodes = nodes
	t.Height = height
	t.values = append([]T(nil), values...)

	return nil
}

// Rebuild is a helper function that will rebuild the tree reusing only the
// data that it currently holds in the leaves.
func (t *Tree[T]) Rebuild() error {
	return t.Generate(t.values)
}

// Root returns the hash stored at the root of the tree.
func (t *Tree[T]) Root() string {
	return t.Nodes[0]
}

// LeafBase returns the index in Nodes of the first leaf.
func (t *Tree[T]) LeafBase() int {
	return 1<<t.Height - 1
}

// LeafCount returns the number of values stored in the tree. Padding leaves
// are not counted.
func (t *Tree[T]) LeafCount() int {
	return len(t.values)
}

// Values returns a copy of the values stored in the tree in leaf order.
func (t *Tree[T]) Values() []T {
	return append([]T(nil), t.values...)
}

// Proof returns the sibling hashes required to walk from the leaf at the
// specified index up to the root. The index counts leaves, not nodes.
//
// Given the tree for four values:
//
//	       0
//	   1       2
//	 3   4   5   6
//
// the proof for leaf 1 (node 4) is [node 3, node 2].
func (t *Tree[T]) Proof(index int) ([]string, error) {
	if index < 0 || index >= len(t.values) {
		return nil, fmt.Errorf("index %d, leaves %d: %w", index, len(t.values), ErrProofIndexOutOfRange)
	}

	proof := make([]string, 0, t.Height)
	for node := t.LeafBase() + index; node > 0; node = (node - 1) / 2 {

		// Left children sit at odd indexes, right children at even ones.
		// Proofs built with mixed parity rules do not verify against these roots.
		sibling := node + 1
		if node%2 == 0 {
			sibling = node - 1
		}

		proof = append(proof, t.Nodes[sibling])
	}

	if len(proof) != t.Height {
		return nil, errUnexpectedParentIndex
	}

	return proof, nil
}

// ProofFor locates the specified value in the tree and returns its leaf index
// and proof.
func (t *Tree[T]) ProofFor(value T) (int, []string, error) {
	for i, v := range t.values {
		if !v.Equals(value) {
			continue
		}

		proof, err := t.Proof(i)
		if err != nil {
			return 0, nil, err
		}

		return i, proof, nil
	}

	return 0, nil, ErrValueNotFound
}

// Verify recomputes every internal node from the leaves and returns an error
// if any stored hash does not match.
func (t *Tree[T]) Verify() error {
	base := t.LeafBase()

	for i, value := range t.values {
		if t.Nodes[base+i] != value.Hash() {
			return fmt.Errorf("leaf %d: %w", i, ErrInvalidTreeComputed)
		}
	}

	for i := base - 1; i >= 0; i-- {
		if t.Nodes[i] != hashPair(t.hashStrategy, t.Nodes[2*i+1], t.Nodes[2*i+2]) {
			return fmt.Errorf("node %d: %w", i, ErrInvalidTreeComputed)
		}
	}

	return nil
}

// VerifyData indicates whether a given piece of data is in the tree and if its
// proof folds back to the root of the tree.
func (t *Tree[T]) VerifyData(value T) bool {
	_, proof, err := t.ProofFor(value)
	if err != nil {
		return false
	}

	return verifyProof(t.hashStrategy, t.Root(), value.Hash(), proof)
}

// String returns a string representation of the tree, one node per line.
func (t *Tree[T]) String() string {
	var b strings.Builder

	for i, node := range t.Nodes {
		fmt.Fprintf(&b, "%d %s\n", i, node)
	}

	return b.String()
}

// MarshalText implements the TextMarshaler interface and produces a panic
// if anyone tries to marshal the Merkle tree. Use the Values function to
// return a slice that can be marshaled.
func (t *Tree[T]) MarshalText() (text []byte, err error) {
	panic("do not marshal the merkle tree, use Values")
}

// =============================================================================

// VerifyProof folds the proof into the leaf hash using SHA-256 and reports
// whether the result matches the root.
func VerifyProof(root string, leaf string, proof []string) bool {
	return verifyProof(sha256.New, root, leaf, proof)
}

// HashPair returns the SHA-256 parent hash of two sibling hashes.
func HashPair(a string, b string) string {
	return hashPair(sha256.New, a, b)
}

// verifyProof walks the proof with the specified hash strategy.
func verifyProof(hashStrategy func() hash.Hash, root string, leaf string, proof []string) bool {
	current := leaf
	for _, sibling := range proof {
		current = hashPair(hashStrategy, current, sibling)
	}

	return current == root
}

// hashPair orders the two hashes lexicographically before concatenating them
// so the parent hash does not depend on which side each child sits on.
func hashPair(hashStrategy func() hash.Hash, a string, b string) string {
	if b < a {
		a, b = b, a
	}

	h := hashStrategy()
	h.Write([]byte(a + b))

	return hexutil.Encode(h.Sum(nil))
}
