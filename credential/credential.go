// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

// Package credential defines the exam-credential domain objects, their leaf
// hashing, EdDSA signing, and the off-circuit evaluation of the composed
// verification relation.
package credential

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/examchain/examproof/field"
	"github.com/examchain/examproof/poseidon"
)

// Credential carries the canonicalized attributes of one exam credential.
// HolderSecret never leaves the holder: it enters leaf hashing and witness
// construction but is not part of any public value.
type Credential struct {
	ExamIDHash           fr.Element
	AchievementLevelHash fr.Element
	IssuerHash           fr.Element
	HolderSecret         fr.Element
}

// New canonicalizes the raw attributes through the field codec. Any input
// accepted by field.ToElement is accepted here, so malformed attribute
// strings still produce a stable credential.
func New(examID, achievementLevel, issuer, holderSecret interface{}) Credential {
	return Credential{
		ExamIDHash:           field.ToElement(examID),
		AchievementLevelHash: field.ToElement(achievementLevel),
		IssuerHash:           field.ToElement(issuer),
		HolderSecret:         field.ToElement(holderSecret),
	}
}

// Hash returns the credential leaf
// H4(examIdHash, achievementLevelHash, issuerHash, holderSecret).
func (c Credential) Hash(h poseidon.Hasher) fr.Element {
	return h.CredentialHash(c.ExamIDHash, c.AchievementLevelHash, c.IssuerHash, c.HolderSecret)
}

// UsageID returns the public usage marker binding this credential hash to
// one spend of the nullifier.
func UsageID(h poseidon.Hasher, credentialHash, nullifier fr.Element) fr.Element {
	return h.UsageID(credentialHash, nullifier)
}
