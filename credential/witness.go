// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"

	"github.com/examchain/examproof/circuits"
	"github.com/examchain/examproof/merkle"
	"github.com/examchain/examproof/poseidon"
)

// NewComposerWitness evaluates the relation off-circuit and builds the full
// assignment for the composer circuit, including the three output values
// the circuit re-derives. height must match the height the circuit was
// compiled for; both supplied paths must have exactly that many levels.
// The returned Outcome is the pre-flight result; if Outcome.Verified is
// false the witness still solves, with Verified == 0.
func NewComposerWitness(h poseidon.Hasher, in VerificationInputs, height int) (*circuits.CredentialCircuit, Outcome, error) {
	if err := pathHeight(in.CredentialProof, height, "credential"); err != nil {
		return nil, Outcome{}, err
	}
	if err := pathHeight(in.NullifierProof, height, "nullifier"); err != nil {
		return nil, Outcome{}, err
	}

	out, err := Compose(h, in, height)
	if err != nil {
		return nil, Outcome{}, err
	}

	w := circuits.NewCredentialCircuit(height)

	w.CredentialRoot = in.CredentialRoot
	w.NullifierRoot = in.NullifierRoot
	w.Nullifier = in.Nullifier
	w.ExamIDHash = in.Credential.ExamIDHash
	w.AchievementLevelHash = in.Credential.AchievementLevelHash
	w.IssuerHash = in.Credential.IssuerHash
	w.CurrentTime = in.CurrentTime
	if err := w.PublicKey.Assign(in.PublicKey); err != nil {
		return nil, Outcome{}, err
	}
	if err := w.Signature.Assign(in.Signature); err != nil {
		return nil, Outcome{}, err
	}

	w.Verified = boolBit(out.Verified)
	w.CredentialID = out.CredentialID
	w.VerificationTimestamp = out.VerificationTimestamp

	w.HolderSecret = in.Credential.HolderSecret
	w.StoredNullifierLeaf = in.StoredNullifierLeaf
	assignPath(&w.CredentialPath, in.CredentialProof.Siblings, in.CredentialProof.PathBits)
	assignPath(&w.NullifierPath, in.NullifierProof.Siblings, in.NullifierProof.PathBits)

	return w, out, nil
}

func pathHeight(p merkle.Proof, height int, name string) error {
	if len(p.Siblings) != height || len(p.PathBits) != height {
		return fmt.Errorf("credential: %s path has %d siblings and %d bits, want %d levels",
			name, len(p.Siblings), len(p.PathBits), height)
	}
	return nil
}

func assignPath(dst *circuits.Path, siblings []fr.Element, bits []int) {
	for i := range siblings {
		dst.Siblings[i] = siblings[i]
		dst.PathBits[i] = bits[i]
	}
}

func boolBit(b bool) frontend.Variable {
	if b {
		return 1
	}
	return 0
}
