// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

package circuits

import (
	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/hash/poseidon2"
)

// CredentialCircuit is the verification composer: it combines credential
// inclusion, nullifier non-inclusion and signature validity into a single
// 0/1 result with two derived public outputs.
//
// Since circuits have no output wires, the three outputs (Verified,
// CredentialID, VerificationTimestamp) are public inputs constrained equal
// to the computed values. The declaration order of the public fields is the
// public-input order external tooling depends on; do not reorder.
type CredentialCircuit struct {
	CredentialRoot       frontend.Variable `gnark:",public"`
	NullifierRoot        frontend.Variable `gnark:",public"`
	Nullifier            frontend.Variable `gnark:",public"`
	ExamIDHash           frontend.Variable `gnark:",public"`
	AchievementLevelHash frontend.Variable `gnark:",public"`
	IssuerHash           frontend.Variable `gnark:",public"`
	CurrentTime          frontend.Variable `gnark:",public"`
	PublicKey            PublicKey         `gnark:",public"`
	Signature            Signature         `gnark:",public"`

	Verified              frontend.Variable `gnark:",public"`
	CredentialID          frontend.Variable `gnark:",public"`
	VerificationTimestamp frontend.Variable `gnark:",public"`

	HolderSecret        frontend.Variable
	StoredNullifierLeaf frontend.Variable
	CredentialPath      Path
	NullifierPath       Path
}

// NewCredentialCircuit returns a circuit shell for the given tree height,
// with path slices sized so that compilation sees their final length.
// Height is a compile-time parameter: proofs for one height do not verify
// against a circuit compiled for another.
func NewCredentialCircuit(height int) *CredentialCircuit {
	return &CredentialCircuit{
		CredentialPath: Path{
			Siblings: make([]frontend.Variable, height),
			PathBits: make([]frontend.Variable, height),
		},
		NullifierPath: Path{
			Siblings: make([]frontend.Variable, height),
			PathBits: make([]frontend.Variable, height),
		},
	}
}

func (c *CredentialCircuit) Define(api frontend.API) error {
	h, err := poseidon2.New(api)
	if err != nil {
		return err
	}
	curve, err := twistededwards.NewEdCurve(api, tedwards.BN254)
	if err != nil {
		return err
	}
	hSig, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}

	// credentialHash = H4(examIdHash, achievementLevelHash, issuerHash, holderSecret)
	h.Reset()
	h.Write(c.ExamIDHash, c.AchievementLevelHash, c.IssuerHash, c.HolderSecret)
	credentialHash := h.Sum()

	// credential inclusion against the credential registry root
	credentialIncluded := isEqual(api,
		recomputeRoot(api, h, credentialHash, c.CredentialPath),
		c.CredentialRoot)

	// the claimed nullifier slot holds storedNullifierLeaf under the
	// nullifier root, and that stored value differs from this nullifier:
	// the nullifier has not been recorded as spent at that slot
	rootMatchesStoredLeaf := isEqual(api,
		recomputeRoot(api, h, c.StoredNullifierLeaf, c.NullifierPath),
		c.NullifierRoot)
	nullifierDiffers := api.Sub(1, isEqual(api, c.StoredNullifierLeaf, c.Nullifier))
	nullifierValid := api.Mul(rootMatchesStoredLeaf, nullifierDiffers)

	signatureValid := verifySignature(api, curve, c.Signature, credentialHash, c.PublicKey, &hSig)

	// verified = product of 0/1 conjuncts, pinned boolean
	verified := api.Mul(credentialIncluded, api.Mul(nullifierValid, signatureValid))
	api.AssertIsBoolean(verified)

	h.Reset()
	h.Write(credentialHash, c.Nullifier)
	usageID := h.Sum()

	api.AssertIsEqual(c.Verified, verified)
	api.AssertIsEqual(c.CredentialID, usageID)
	// pass-through, not validated: expiry windows are the caller's job
	api.AssertIsEqual(c.VerificationTimestamp, c.CurrentTime)

	return nil
}
