// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

package merkle

import (
	"bytes"
	"errors"
	"math/rand"
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

func randLeaves(t *testing.T, n int) []fr.Element {
	t.Helper()
	leaves := make([]fr.Element, n)
	for i := range leaves {
		leaves[i] = randElement(t)
	}
	return leaves
}

func TestBuildShape(t *testing.T) {
	h := poseidon.New()
	tr, err := Build(h, randLeaves(t, 5), 3)
	require.NoError(t, err)

	require.Equal(t, 3, tr.Height())
	require.Equal(t, 8, tr.Capacity())
	require.Len(t, tr.Leaves(), 8)

	// padded slots hold the canonical zero leaf
	leaf, err := tr.Leaf(7)
	require.NoError(t, err)
	require.True(t, leaf.IsZero())
}

func TestRootMatchesManualHashing(t *testing.T) {
	h := poseidon.New()
	leaves := randLeaves(t, 4)
	tr, err := Build(h, leaves, 2)
	require.NoError(t, err)

	left := h.Hash2(leaves[0], leaves[1])
	right := h.Hash2(leaves[2], leaves[3])
	want := h.Hash2(left, right)
	root := tr.Root()
	require.True(t, root.Equal(&want))
}

func TestEmptyRootDependsOnHeightOnly(t *testing.T) {
	h := poseidon.New()
	for height := 1; height <= 6; height++ {
		a, err := New(h, height)
		require.NoError(t, err)
		b, err := New(h, height)
		require.NoError(t, err)
		ra, rb := a.Root(), b.Root()
		require.True(t, ra.Equal(&rb), "height %d", height)
	}

	// distinct heights commit to distinct empty states
	a, _ := New(h, 2)
	b, _ := New(h, 3)
	ra, rb := a.Root(), b.Root()
	require.False(t, ra.Equal(&rb))
}

func TestCapacityExceeded(t *testing.T) {
	h := poseidon.New()
	_, err := Build(h, randLeaves(t, 5), 2)
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestInvalidHeight(t *testing.T) {
	h := poseidon.New()
	for _, height := range []int{0, -1, 31} {
		_, err := Build(h, nil, height)
		require.ErrorIs(t, err, ErrInvalidHeight, "height %d", height)
	}
}

func TestUpdateMatchesFullRebuild(t *testing.T) {
	h := poseidon.New()
	const height = 4
	leaves := randLeaves(t, 16)
	tr, err := Build(h, leaves, height)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for step := 0; step < 20; step++ {
		idx := rng.Intn(16)
		leaf := randElement(t)

		tr, err = tr.Update(idx, leaf)
		require.NoError(t, err)

		leaves[idx] = leaf
		rebuilt, err := Build(h, leaves, height)
		require.NoError(t, err)

		got, want := tr.Root(), rebuilt.Root()
		require.True(t, got.Equal(&want), "step %d", step)
	}
}

func TestUpdateLeavesReceiverUntouched(t *testing.T) {
	h := poseidon.New()
	tr, err := Build(h, randLeaves(t, 4), 2)
	require.NoError(t, err)
	before := tr.Root()

	_, err = tr.Update(1, randElement(t))
	require.NoError(t, err)

	after := tr.Root()
	require.True(t, before.Equal(&after))
}

func TestIndexOutOfRange(t *testing.T) {
	h := poseidon.New()
	tr, err := New(h, 2)
	require.NoError(t, err)

	_, err = tr.Update(4, fr.Element{})
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = tr.Update(-1, fr.Element{})
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = tr.Proof(4)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = tr.Leaf(4)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSnapshotRoundTrip(t *testing.T) {
	h := poseidon.New()
	tr, err := Build(h, randLeaves(t, 6), 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tr.WriteSnapshot(&buf))

	restored, err := ReadSnapshot(&buf, h)
	require.NoError(t, err)

	a, b := tr.Root(), restored.Root()
	require.True(t, a.Equal(&b))
	require.Equal(t, tr.Height(), restored.Height())
}

func TestSnapshotGarbageRejected(t *testing.T) {
	_, err := ReadSnapshot(bytes.NewReader([]byte("not cbor")), poseidon.New())
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrInvalidHeight))
}
