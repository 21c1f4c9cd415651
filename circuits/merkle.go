// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

// Package circuits holds the in-circuit counterpart of the credential
// subsystem: the verification composer relation and the gadgets it is built
// from. Every hash evaluated here must agree bit-for-bit with the
// off-circuit poseidon and merkle packages.
package circuits

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
)

// Path is an in-circuit authentication path: sibling values and left/right
// bits ordered leaf-to-root, matching merkle.Proof.
type Path struct {
	Siblings []frontend.Variable
	PathBits []frontend.Variable
}

// recomputeRoot replays an authentication path from leaf upward and returns
// the root it arrives at. It mirrors merkle.VerifyProof exactly: a path bit
// of 0 places the running value on the left of the 2-input hash, 1 on the
// right. The result is compared softly by the caller, so an invalid path
// does not make the circuit unsatisfiable.
func recomputeRoot(api frontend.API, h hash.FieldHasher, leaf frontend.Variable, path Path) frontend.Variable {
	current := leaf
	for i := range path.Siblings {
		api.AssertIsBoolean(path.PathBits[i])
		left := api.Select(path.PathBits[i], path.Siblings[i], current)
		right := api.Select(path.PathBits[i], current, path.Siblings[i])
		h.Reset()
		h.Write(left, right)
		current = h.Sum()
	}
	return current
}

// isEqual returns 1 iff a == b.
func isEqual(api frontend.API, a, b frontend.Variable) frontend.Variable {
	return api.IsZero(api.Sub(a, b))
}
