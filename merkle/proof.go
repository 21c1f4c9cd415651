// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

package merkle

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/examchain/examproof/poseidon"
)

// Proof is an authentication path for one leaf: height sibling values and
// height path bits ordered leaf-to-root, plus the leaf value itself.
// A path bit of 0 means the current node is the left child at that level,
// 1 the right child.
type Proof struct {
	Siblings []fr.Element
	PathBits []int
	Leaf     fr.Element
}

// Proof extracts the authentication path for the leaf at index. The sibling
// at each level is the entry at index XOR 1 within that level.
func (t *Tree) Proof(index int) (Proof, error) {
	if index < 0 || index >= t.Capacity() {
		return Proof{}, fmt.Errorf("%w: index %d, capacity %d", ErrIndexOutOfRange, index, t.Capacity())
	}

	p := Proof{
		Siblings: make([]fr.Element, t.height),
		PathBits: make([]int, t.height),
		Leaf:     t.layers[0][index],
	}
	idx := index
	for level := 0; level < t.height; level++ {
		p.Siblings[level] = t.layers[level][idx^1]
		p.PathBits[level] = idx & 1
		idx >>= 1
	}
	return p, nil
}

// VerifyProof replays an authentication path of exactly height levels
// against a claimed root without any tree access. It is the off-circuit
// reference for the in-circuit recomputation: both must agree on every
// input. The height check is load-bearing: a path shorter than the tree
// height replays an internal node to the root, so accepting it would let
// any internal node pass as an included leaf.
//
// A false result is a normal, security-relevant rejection, not an error.
func VerifyProof(h poseidon.Hasher, leaf fr.Element, siblings []fr.Element, pathBits []int, root fr.Element, height int) bool {
	if len(siblings) != height || len(pathBits) != height {
		return false
	}
	current := leaf
	for i := range siblings {
		if pathBits[i] == 0 {
			current = h.Hash2(current, siblings[i])
		} else {
			current = h.Hash2(siblings[i], current)
		}
	}
	return current.Equal(&root)
}

// Verify replays the proof against root using the validator above. The
// caller supplies the expected tree height; it must come from out-of-band
// knowledge of the tree, never from the proof itself.
func (p Proof) Verify(h poseidon.Hasher, root fr.Element, height int) bool {
	return VerifyProof(h, p.Leaf, p.Siblings, p.PathBits, root, height)
}

// proofJSON is the wire shape other tooling depends on: field elements as
// base-10 decimal strings.
type proofJSON struct {
	Siblings    []string `json:"siblings"`
	PathIndices []int    `json:"pathIndices"`
	Leaf        string   `json:"leaf"`
}

// MarshalJSON encodes the proof in the serialized artifact shape
// {siblings, pathIndices, leaf} with decimal-string field elements.
func (p Proof) MarshalJSON() ([]byte, error) {
	out := proofJSON{
		Siblings:    make([]string, len(p.Siblings)),
		PathIndices: p.PathBits,
		Leaf:        p.Leaf.String(),
	}
	for i := range p.Siblings {
		out.Siblings[i] = p.Siblings[i].String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire shape, rejecting non-decimal field
// encodings and path bits outside {0, 1}.
func (p *Proof) UnmarshalJSON(data []byte) error {
	var in proofJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Siblings) != len(in.PathIndices) {
		return fmt.Errorf("merkle: %d siblings but %d path indices", len(in.Siblings), len(in.PathIndices))
	}
	leaf, err := decimalElement(in.Leaf)
	if err != nil {
		return fmt.Errorf("merkle: leaf: %w", err)
	}
	siblings := make([]fr.Element, len(in.Siblings))
	for i := range in.Siblings {
		if siblings[i], err = decimalElement(in.Siblings[i]); err != nil {
			return fmt.Errorf("merkle: sibling %d: %w", i, err)
		}
	}
	for i, b := range in.PathIndices {
		if b != 0 && b != 1 {
			return fmt.Errorf("merkle: path index %d is %d, want 0 or 1", i, b)
		}
	}
	p.Leaf = leaf
	p.Siblings = siblings
	p.PathBits = in.PathIndices
	return nil
}

func decimalElement(s string) (fr.Element, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return fr.Element{}, fmt.Errorf("invalid decimal field element %q", s)
	}
	var e fr.Element
	e.SetBigInt(n)
	return e, nil
}
