// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

// Package registry hosts the mutable edge of the subsystem: a credential
// registry and a spent-nullifier registry, each wrapping an immutable
// merkle.Tree snapshot that is replaced wholesale on every update.
//
// Updates are serialized by a mutex; readers take the current snapshot and
// work on it without further coordination. The decision of *when* a
// nullifier is spent (two proof requests racing for the same nullifier)
// belongs to whoever drives these registries; the registries only guarantee
// that a serialized update sequence keeps the trees sound.
package registry

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/rs/zerolog"

	"github.com/examchain/examproof/logger"
	"github.com/examchain/examproof/merkle"
	"github.com/examchain/examproof/poseidon"
)

var (
	// ErrRegistryFull reports that every leaf slot is occupied.
	ErrRegistryFull = errors.New("registry: no free leaf slot")

	// ErrAlreadySpent reports a nullifier whose slot already records it.
	ErrAlreadySpent = errors.New("registry: nullifier already spent")

	// ErrSlotOccupied reports a slot collision: the deterministic slot of a
	// nullifier already holds a different nullifier. The tree height is too
	// small for the nullifier population.
	ErrSlotOccupied = errors.New("registry: nullifier slot occupied by a different value")
)

// CredentialRegistry commits credential leaves into a fixed-height tree,
// assigning slots sequentially.
type CredentialRegistry struct {
	mu       sync.Mutex
	h        poseidon.Hasher
	tree     *merkle.Tree
	occupied *bitset.BitSet
	log      zerolog.Logger
}

// NewCredentialRegistry creates an empty credential registry of the given
// tree height.
func NewCredentialRegistry(h poseidon.Hasher, height int) (*CredentialRegistry, error) {
	t, err := merkle.New(h, height)
	if err != nil {
		return nil, err
	}
	return &CredentialRegistry{
		h:        h,
		tree:     t,
		occupied: bitset.New(uint(t.Capacity())),
		log:      logger.Logger().With().Str("component", "credential-registry").Logger(),
	}, nil
}

// Register commits a credential leaf into the next free slot and returns
// the slot index and the new root.
func (r *CredentialRegistry) Register(leaf fr.Element) (int, fr.Element, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.occupied.NextClear(0)
	if !ok || slot >= uint(r.tree.Capacity()) {
		r.log.Error().Int("capacity", r.tree.Capacity()).Msg("credential registry full")
		return 0, fr.Element{}, ErrRegistryFull
	}
	nt, err := r.tree.Update(int(slot), leaf)
	if err != nil {
		return 0, fr.Element{}, err
	}
	r.tree = nt
	r.occupied.Set(slot)
	root := nt.Root()
	r.log.Info().Uint("slot", slot).Str("root", root.String()).Msg("credential registered")
	return int(slot), root, nil
}

// Snapshot returns the current immutable tree. Proof extraction against the
// returned value is safe concurrently with further registrations.
func (r *CredentialRegistry) Snapshot() *merkle.Tree {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree
}

// Root returns the current commitment root.
func (r *CredentialRegistry) Root() fr.Element {
	return r.Snapshot().Root()
}

// ProofOf extracts the inclusion proof for a slot against the current
// snapshot.
func (r *CredentialRegistry) ProofOf(index int) (merkle.Proof, error) {
	return r.Snapshot().Proof(index)
}

// NullifierRegistry records spent nullifiers. Slot assignment is the named
// deterministic contract the verifier side relies on:
//
//	slot(nullifier) = nullifier mod 2^height
//
// Non-inclusion is proved relative to that slot only: a proof shows the
// slot currently holds something other than the nullifier. Two distinct
// nullifiers mapping to one slot is a capacity-planning failure surfaced as
// ErrSlotOccupied, never papered over.
type NullifierRegistry struct {
	mu       sync.Mutex
	h        poseidon.Hasher
	tree     *merkle.Tree
	capacity int
	log      zerolog.Logger
}

// NewNullifierRegistry creates an empty spent-nullifier registry of the
// given tree height.
func NewNullifierRegistry(h poseidon.Hasher, height int) (*NullifierRegistry, error) {
	t, err := merkle.New(h, height)
	if err != nil {
		return nil, err
	}
	return &NullifierRegistry{
		h:        h,
		tree:     t,
		capacity: t.Capacity(),
		log:      logger.Logger().With().Str("component", "nullifier-registry").Logger(),
	}, nil
}

// SlotFor maps a nullifier to its deterministic slot.
func (r *NullifierRegistry) SlotFor(nullifier fr.Element) int {
	var n big.Int
	nullifier.BigInt(&n)
	n.Mod(&n, big.NewInt(int64(r.capacity)))
	return int(n.Int64())
}

// MarkSpent records the nullifier at its slot and returns the new root.
// Marking the same nullifier twice is ErrAlreadySpent; a slot held by a
// different nullifier is ErrSlotOccupied.
func (r *NullifierRegistry) MarkSpent(nullifier fr.Element) (fr.Element, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.SlotFor(nullifier)
	current, err := r.tree.Leaf(slot)
	if err != nil {
		return fr.Element{}, err
	}
	if current.Equal(&nullifier) {
		r.log.Warn().Int("slot", slot).Msg("nullifier replay attempt")
		return fr.Element{}, fmt.Errorf("%w: slot %d", ErrAlreadySpent, slot)
	}
	if !current.IsZero() {
		r.log.Error().Int("slot", slot).Msg("nullifier slot collision")
		return fr.Element{}, fmt.Errorf("%w: slot %d", ErrSlotOccupied, slot)
	}
	nt, err := r.tree.Update(slot, nullifier)
	if err != nil {
		return fr.Element{}, err
	}
	r.tree = nt
	root := nt.Root()
	r.log.Info().Int("slot", slot).Str("root", root.String()).Msg("nullifier spent")
	return root, nil
}

// IsSpent reports whether the nullifier is recorded at its slot.
func (r *NullifierRegistry) IsSpent(nullifier fr.Element) bool {
	t := r.Snapshot()
	leaf, err := t.Leaf(r.SlotFor(nullifier))
	if err != nil {
		return false
	}
	return leaf.Equal(&nullifier)
}

// Snapshot returns the current immutable tree.
func (r *NullifierRegistry) Snapshot() *merkle.Tree {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree
}

// Root returns the current spent-set root.
func (r *NullifierRegistry) Root() fr.Element {
	return r.Snapshot().Root()
}

// Witness extracts the non-inclusion material for a nullifier against the
// current snapshot: the authentication path of its slot and the leaf stored
// there. The caller feeds both to the composer, which checks that the
// stored leaf differs from the nullifier.
func (r *NullifierRegistry) Witness(nullifier fr.Element) (merkle.Proof, fr.Element, error) {
	t := r.Snapshot()
	slot := r.SlotFor(nullifier)
	proof, err := t.Proof(slot)
	if err != nil {
		return merkle.Proof{}, fr.Element{}, err
	}
	return proof, proof.Leaf, nil
}
