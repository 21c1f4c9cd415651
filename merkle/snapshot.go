// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

package merkle

import (
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/fxamacker/cbor/v2"

	"github.com/examchain/examproof/poseidon"
)

// snapshot is the CBOR artifact for persisting tree state between CLI
// invocations. Only height and the leaf layer are stored; internal layers
// are recomputed on load.
type snapshot struct {
	Height int      `cbor:"1,keyasint"`
	Leaves [][]byte `cbor:"2,keyasint"`
}

// WriteSnapshot writes a compact CBOR encoding of the tree to w.
func (t *Tree) WriteSnapshot(w io.Writer) error {
	s := snapshot{Height: t.height, Leaves: make([][]byte, len(t.layers[0]))}
	for i := range t.layers[0] {
		b := t.layers[0][i].Bytes()
		s.Leaves[i] = b[:]
	}
	if err := cbor.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("merkle: encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot rebuilds a tree from a CBOR snapshot.
func ReadSnapshot(r io.Reader, h poseidon.Hasher) (*Tree, error) {
	var s snapshot
	if err := cbor.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("merkle: decode snapshot: %w", err)
	}
	leaves := make([]fr.Element, len(s.Leaves))
	for i := range s.Leaves {
		leaves[i].SetBytes(s.Leaves[i])
	}
	return Build(h, leaves, s.Height)
}
