// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

// Package merkle implements the fixed-height hash tree committing credential
// and spent-nullifier state, together with inclusion-proof extraction and
// validation.
//
// A Tree is an immutable value: Update returns a new Tree and never touches
// the layers of the receiver. Callers holding a snapshot can extract proofs
// concurrently with no coordination; replacing the snapshot wholesale on
// update is the whole concurrency model.
package merkle

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/sync/errgroup"

	"github.com/examchain/examproof/logger"
	"github.com/examchain/examproof/poseidon"
)

var (
	// ErrCapacityExceeded reports more supplied leaves than the tree can
	// hold. This is a caller/configuration bug, not a condition to retry.
	ErrCapacityExceeded = errors.New("merkle: leaf count exceeds tree capacity")

	// ErrIndexOutOfRange reports a leaf index >= 2^height.
	ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")

	// ErrInvalidHeight reports an unusable tree height.
	ErrInvalidHeight = errors.New("merkle: height must be between 1 and 30")
)

// widths at or above this threshold hash a layer on all cores
const parallelThreshold = 2048

var log = logger.Logger().With().Str("component", "merkle").Logger()

// Tree is a complete binary hash tree of fixed height. layers[0] holds
// 2^height leaves (zero-padded beyond supplied data), each subsequent layer
// halves, and layers[height] holds the single root.
type Tree struct {
	h      poseidon.Hasher
	height int
	layers [][]fr.Element
}

// New returns the empty tree of the given height: all-zero leaves, the
// canonical "registry not yet populated" state. Its root is a pure function
// of the height.
func New(h poseidon.Hasher, height int) (*Tree, error) {
	return Build(h, nil, height)
}

// Build constructs a tree of the given height from the supplied leaves,
// placed from index 0 and zero-padded to capacity. Supplying more leaves
// than 2^height is a hard error; callers wanting truncation must truncate
// themselves.
func Build(h poseidon.Hasher, leaves []fr.Element, height int) (*Tree, error) {
	if height < 1 || height > 30 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHeight, height)
	}
	capacity := 1 << height
	if len(leaves) > capacity {
		log.Error().Int("leaves", len(leaves)).Int("capacity", capacity).
			Msg("leaf set exceeds tree capacity")
		return nil, fmt.Errorf("%w: %d leaves, capacity %d", ErrCapacityExceeded, len(leaves), capacity)
	}

	t := &Tree{h: h, height: height, layers: make([][]fr.Element, height+1)}
	t.layers[0] = make([]fr.Element, capacity)
	copy(t.layers[0], leaves)
	for level := 1; level <= height; level++ {
		t.layers[level] = make([]fr.Element, capacity>>level)
		t.hashLayer(t.layers[level], t.layers[level-1])
	}
	return t, nil
}

// hashLayer fills dst[i] = H2(src[2i], src[2i+1]), on all cores for wide
// layers.
func (t *Tree) hashLayer(dst, src []fr.Element) {
	if len(dst) < parallelThreshold {
		for i := range dst {
			dst[i] = t.h.Hash2(src[2*i], src[2*i+1])
		}
		return
	}
	var g errgroup.Group
	nbChunks := runtime.NumCPU()
	chunk := (len(dst) + nbChunks - 1) / nbChunks
	for start := 0; start < len(dst); start += chunk {
		end := min(start+chunk, len(dst))
		g.Go(func() error {
			for i := start; i < end; i++ {
				dst[i] = t.h.Hash2(src[2*i], src[2*i+1])
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers cannot fail
}

// Height returns the fixed height of the tree.
func (t *Tree) Height() int {
	return t.height
}

// Capacity returns the number of leaf slots, 2^height.
func (t *Tree) Capacity() int {
	return 1 << t.height
}

// Root returns the single element of the top layer.
func (t *Tree) Root() fr.Element {
	return t.layers[t.height][0]
}

// Leaf returns the committed leaf value at index.
func (t *Tree) Leaf(index int) (fr.Element, error) {
	if index < 0 || index >= t.Capacity() {
		return fr.Element{}, fmt.Errorf("%w: index %d, capacity %d", ErrIndexOutOfRange, index, t.Capacity())
	}
	return t.layers[0][index], nil
}

// Leaves returns a copy of the full (zero-padded) leaf layer.
func (t *Tree) Leaves() []fr.Element {
	out := make([]fr.Element, len(t.layers[0]))
	copy(out, t.layers[0])
	return out
}

// Update returns a new tree with the leaf at index replaced. Only the
// O(height) nodes on the path from the mutated leaf to the root are
// recomputed; the receiver is left untouched, so in-flight readers of the
// old snapshot observe no partial state.
func (t *Tree) Update(index int, leaf fr.Element) (*Tree, error) {
	if index < 0 || index >= t.Capacity() {
		return nil, fmt.Errorf("%w: index %d, capacity %d", ErrIndexOutOfRange, index, t.Capacity())
	}

	nt := &Tree{h: t.h, height: t.height, layers: make([][]fr.Element, t.height+1)}
	for level := range t.layers {
		nt.layers[level] = make([]fr.Element, len(t.layers[level]))
		copy(nt.layers[level], t.layers[level])
	}

	nt.layers[0][index] = leaf
	idx := index
	for level := 1; level <= t.height; level++ {
		idx >>= 1
		nt.layers[level][idx] = t.h.Hash2(nt.layers[level-1][2*idx], nt.layers[level-1][2*idx+1])
	}
	return nt, nil
}
