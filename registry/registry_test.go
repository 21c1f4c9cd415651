// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"sync"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/examchain/examproof/poseidon"
)

func randElement(t *testing.T) fr.Element {
	t.Helper()
	var e fr.Element
	_, err := e.SetRandom()
	require.NoError(t, err)
	return e
}

func TestCredentialRegisterSequentialSlots(t *testing.T) {
	r, err := NewCredentialRegistry(poseidon.New(), 3)
	require.NoError(t, err)

	for want := 0; want < 4; want++ {
		slot, root, err := r.Register(randElement(t))
		require.NoError(t, err)
		require.Equal(t, want, slot)
		current := r.Root()
		require.True(t, root.Equal(&current))
	}
}

func TestCredentialProofAgainstRoot(t *testing.T) {
	h := poseidon.New()
	r, err := NewCredentialRegistry(h, 3)
	require.NoError(t, err)

	leaf := randElement(t)
	slot, root, err := r.Register(leaf)
	require.NoError(t, err)

	p, err := r.ProofOf(slot)
	require.NoError(t, err)
	require.True(t, p.Leaf.Equal(&leaf))
	require.True(t, p.Verify(h, root, 3))
}

func TestCredentialRegistryFull(t *testing.T) {
	r, err := NewCredentialRegistry(poseidon.New(), 1)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _, err := r.Register(randElement(t))
		require.NoError(t, err)
	}
	_, _, err = r.Register(randElement(t))
	require.ErrorIs(t, err, ErrRegistryFull)
}

func TestNullifierSlotContract(t *testing.T) {
	r, err := NewNullifierRegistry(poseidon.New(), 2)
	require.NoError(t, err)

	var n fr.Element
	n.SetUint64(6)
	require.Equal(t, 2, r.SlotFor(n)) // 6 mod 4
	n.SetUint64(3)
	require.Equal(t, 3, r.SlotFor(n))
}

func TestNullifierSpendLifecycle(t *testing.T) {
	r, err := NewNullifierRegistry(poseidon.New(), 3)
	require.NoError(t, err)

	var n fr.Element
	n.SetUint64(5)
	require.False(t, r.IsSpent(n))

	emptyRoot := r.Root()
	root, err := r.MarkSpent(n)
	require.NoError(t, err)
	require.False(t, root.Equal(&emptyRoot))
	require.True(t, r.IsSpent(n))

	_, err = r.MarkSpent(n)
	require.ErrorIs(t, err, ErrAlreadySpent)
}

func TestNullifierSlotCollision(t *testing.T) {
	r, err := NewNullifierRegistry(poseidon.New(), 2)
	require.NoError(t, err)

	// 1 and 5 share slot 1 in a height-2 tree
	var a, b fr.Element
	a.SetUint64(1)
	b.SetUint64(5)
	_, err = r.MarkSpent(a)
	require.NoError(t, err)
	_, err = r.MarkSpent(b)
	require.ErrorIs(t, err, ErrSlotOccupied)
	require.False(t, r.IsSpent(b))
}

func TestNullifierWitnessTracksSpending(t *testing.T) {
	h := poseidon.New()
	r, err := NewNullifierRegistry(h, 3)
	require.NoError(t, err)

	var n fr.Element
	n.SetUint64(9) // slot 1

	// before spending: slot holds zero, witness proves non-inclusion
	proof, stored, err := r.Witness(n)
	require.NoError(t, err)
	require.True(t, stored.IsZero())
	require.True(t, proof.Verify(h, r.Root(), 3))
	require.False(t, stored.Equal(&n))

	_, err = r.MarkSpent(n)
	require.NoError(t, err)

	// after spending: the slot holds the nullifier itself
	proof, stored, err = r.Witness(n)
	require.NoError(t, err)
	require.True(t, stored.Equal(&n))
	require.True(t, proof.Verify(h, r.Root(), 3))
}

// readers holding an older snapshot keep proving against its root while
// writers advance the registry
func TestSnapshotIsolation(t *testing.T) {
	h := poseidon.New()
	r, err := NewCredentialRegistry(h, 4)
	require.NoError(t, err)
	_, _, err = r.Register(randElement(t))
	require.NoError(t, err)

	snap := r.Snapshot()
	oldRoot := snap.Root()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := r.Register(randElement(t)); err != nil {
				t.Error(err)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := snap.Proof(0)
			if err != nil {
				t.Error(err)
				return
			}
			if !p.Verify(h, oldRoot, 4) {
				t.Error("stale snapshot proof no longer verifies against its own root")
			}
		}()
	}
	wg.Wait()

	newRoot := r.Root()
	require.False(t, oldRoot.Equal(&newRoot))
}
