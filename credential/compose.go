// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/examchain/examproof/merkle"
	"github.com/examchain/examproof/poseidon"
)

// VerificationInputs collects everything the composed relation consumes.
// The roots, nullifier, attribute hashes, time, key and signature are
// public; the holder secret, the two authentication paths and the stored
// nullifier leaf are private witness material.
type VerificationInputs struct {
	CredentialRoot fr.Element
	NullifierRoot  fr.Element
	Nullifier      fr.Element
	Credential     Credential
	CurrentTime    fr.Element

	CredentialProof     merkle.Proof
	NullifierProof      merkle.Proof
	StoredNullifierLeaf fr.Element

	PublicKey []byte
	Signature []byte
}

// Outcome is the evaluated relation: the composed verified bit, its three
// conjuncts (kept separate for diagnostics), and the two derived public
// outputs.
type Outcome struct {
	Verified           bool
	CredentialIncluded bool
	NullifierValid     bool
	SignatureValid     bool

	CredentialHash        fr.Element
	CredentialID          fr.Element
	VerificationTimestamp fr.Element
}

// Compose evaluates the verification relation off-circuit. It is the
// pre-flight counterpart of the composer circuit and must stay in lockstep
// with it: for identical inputs both yield the same verified bit and the
// same derived outputs. height is the registry tree height, the same value
// the circuit is compiled for; a path of any other length fails its
// inclusion conjunct.
//
// A replayed nullifier (stored leaf equal to the nullifier) is not an
// error: it simply yields NullifierValid == false and therefore Verified ==
// false.
func Compose(h poseidon.Hasher, in VerificationInputs, height int) (Outcome, error) {
	var out Outcome

	out.CredentialHash = in.Credential.Hash(h)
	out.CredentialIncluded = merkle.VerifyProof(h,
		out.CredentialHash, in.CredentialProof.Siblings, in.CredentialProof.PathBits,
		in.CredentialRoot, height)

	rootMatchesStoredLeaf := merkle.VerifyProof(h,
		in.StoredNullifierLeaf, in.NullifierProof.Siblings, in.NullifierProof.PathBits,
		in.NullifierRoot, height)
	nullifierDiffers := !in.StoredNullifierLeaf.Equal(&in.Nullifier)
	out.NullifierValid = rootMatchesStoredLeaf && nullifierDiffers

	ok, err := VerifySignature(in.PublicKey, in.Signature, out.CredentialHash)
	if err != nil {
		return Outcome{}, err
	}
	out.SignatureValid = ok

	out.Verified = out.CredentialIncluded && out.NullifierValid && out.SignatureValid
	out.CredentialID = UsageID(h, out.CredentialHash, in.Nullifier)
	out.VerificationTimestamp = in.CurrentTime
	return out, nil
}
