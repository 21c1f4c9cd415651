// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

// Package poseidon exposes the off-circuit hash primitives of the credential
// subsystem: a 2-input node/leaf hash and higher-arity hashes used to derive
// credential and usage identifiers.
//
// All hashing is a Merkle-Damgard chain over the Poseidon2 permutation with
// a zero IV, the exact construction gnark's std/hash/poseidon2 gadget
// evaluates in-circuit. Off-circuit and in-circuit results are bit-for-bit
// identical; that identity is what makes every proof in this module sound,
// so any change here must be mirrored by the circuits package.
package poseidon

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
)

// Hasher is the hash primitive handed to trees, registries and composers.
// It is an explicitly constructed value, not ambient global state: there is
// no lazy initialization and therefore no "hash not initialized" failure
// mode. The zero value is ready to use and safe for concurrent callers,
// since every hash call runs on a fresh underlying state.
type Hasher struct{}

// New returns a ready-to-use Hasher.
func New() Hasher {
	return Hasher{}
}

// Hash chains the inputs through the Poseidon2 Merkle-Damgard construction
// and returns the resulting field element. It accepts any arity >= 1.
func (Hasher) Hash(inputs ...fr.Element) fr.Element {
	h := poseidon2.NewMerkleDamgardHasher()
	for i := range inputs {
		b := inputs[i].Bytes()
		h.Write(b[:])
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

// Hash2 is the 2-input hash used for both leaf derivation and internal tree
// nodes.
func (p Hasher) Hash2(a, b fr.Element) fr.Element {
	return p.Hash(a, b)
}

// CredentialHash derives the credential leaf
// H4(examIDHash, achievementLevelHash, issuerHash, holderSecret).
func (p Hasher) CredentialHash(examIDHash, achievementLevelHash, issuerHash, holderSecret fr.Element) fr.Element {
	return p.Hash(examIDHash, achievementLevelHash, issuerHash, holderSecret)
}

// UsageID derives the public usage marker H2(credentialHash, nullifier)
// binding one credential to one nullifier spend.
func (p Hasher) UsageID(credentialHash, nullifier fr.Element) fr.Element {
	return p.Hash(credentialHash, nullifier)
}
