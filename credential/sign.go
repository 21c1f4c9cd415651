// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	eddsabn254 "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark-crypto/hash"
	"github.com/consensys/gnark-crypto/signature"
	"github.com/consensys/gnark-crypto/signature/eddsa"
)

// The signature scheme is EdDSA on the BN254 twisted Edwards curve with
// MiMC as the transcript hash; the message is always the credential hash.
// The same pairing is recomputed by the in-circuit verifier, so neither
// side can change independently.

// GenerateKey returns a fresh EdDSA signer.
func GenerateKey(r io.Reader) (signature.Signer, error) {
	k, err := eddsa.New(tedwards.BN254, r)
	if err != nil {
		return nil, fmt.Errorf("credential: generate eddsa key: %w", err)
	}
	return k, nil
}

// Sign signs the credential hash and returns the serialized signature
// (compressed R followed by S).
func Sign(signer signature.Signer, credentialHash fr.Element) ([]byte, error) {
	msg := credentialHash.Bytes()
	sig, err := signer.Sign(msg[:], hash.MIMC_BN254.New())
	if err != nil {
		return nil, fmt.Errorf("credential: sign credential hash: %w", err)
	}
	return sig, nil
}

// VerifySignature checks a serialized signature over the credential hash
// against a serialized public key. A false result is a normal rejection; an
// error means the key or signature bytes are malformed.
func VerifySignature(pubKeyBin, sigBin []byte, credentialHash fr.Element) (bool, error) {
	var pk eddsabn254.PublicKey
	if _, err := pk.SetBytes(pubKeyBin); err != nil {
		return false, fmt.Errorf("credential: decode public key: %w", err)
	}
	msg := credentialHash.Bytes()
	ok, err := pk.Verify(sigBin, msg[:], hash.MIMC_BN254.New())
	if err != nil {
		return false, fmt.Errorf("credential: verify signature: %w", err)
	}
	return ok, nil
}
