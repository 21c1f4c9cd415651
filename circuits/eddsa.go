// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

package circuits

import (
	"fmt"
	"math/big"

	edwardsbn254 "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/hash"
)

// PublicKey is an in-circuit EdDSA public key on the BN254 twisted Edwards
// curve.
type PublicKey struct {
	A twistededwards.Point
}

// Signature is an in-circuit EdDSA signature (R, S). S fits a single field
// element since the Edwards subgroup order is below r.
type Signature struct {
	R twistededwards.Point
	S frontend.Variable
}

// Assign fills the public key from its gnark-crypto compressed encoding
// (32 bytes).
func (pk *PublicKey) Assign(pubKeyBin []byte) error {
	var p edwardsbn254.PointAffine
	if _, err := p.SetBytes(pubKeyBin); err != nil {
		return fmt.Errorf("circuits: decompress public key: %w", err)
	}
	x := p.X.Bytes()
	y := p.Y.Bytes()
	pk.A.X = x[:]
	pk.A.Y = y[:]
	return nil
}

// Assign fills the signature from its gnark-crypto encoding: R compressed
// (32 bytes) followed by S as a big-endian scalar (32 bytes).
func (s *Signature) Assign(sigBin []byte) error {
	if len(sigBin) != 64 {
		return fmt.Errorf("circuits: signature must be 64 bytes, got %d", len(sigBin))
	}
	var r edwardsbn254.PointAffine
	if _, err := r.SetBytes(sigBin[:32]); err != nil {
		return fmt.Errorf("circuits: decompress signature R: %w", err)
	}
	x := r.X.Bytes()
	y := r.Y.Bytes()
	s.R.X = x[:]
	s.R.Y = y[:]
	s.S = new(big.Int).SetBytes(sigBin[32:])
	return nil
}

// verifySignature checks S·G == R + H(R, A, M)·A and returns the outcome as
// a 0/1 variable instead of constraining it, so a bad signature flows into
// the composed verified bit rather than making the witness unsolvable. The
// group equation, the MiMC transcript hash and the cofactor clearing match
// the asserting EdDSA verifier gadget.
func verifySignature(api frontend.API, curve twistededwards.Curve, sig Signature, msg frontend.Variable, pub PublicKey, hFunc hash.FieldHasher) frontend.Variable {
	// H(R, A, M)
	hFunc.Reset()
	hFunc.Write(sig.R.X, sig.R.Y, pub.A.X, pub.A.Y, msg)
	hRAM := hFunc.Sum()

	base := twistededwards.Point{
		X: curve.Params().Base[0],
		Y: curve.Params().Base[1],
	}

	// lhs = [S]G
	lhs := curve.ScalarMul(base, sig.S)
	curve.AssertIsOnCurve(lhs)

	// rhs = R + [H(R,A,M)]A
	rhs := curve.Add(sig.R, curve.ScalarMul(pub.A, hRAM))
	curve.AssertIsOnCurve(rhs)

	// [cofactor](lhs - rhs) must be the identity (0, 1)
	diff := curve.Add(lhs, curve.Neg(rhs))
	switch curve.Params().Cofactor.Uint64() {
	case 4:
		diff = curve.Double(curve.Double(diff))
	case 8:
		diff = curve.Double(curve.Double(curve.Double(diff)))
	}

	xIsZero := api.IsZero(diff.X)
	yIsOne := api.IsZero(api.Sub(diff.Y, 1))
	return api.Mul(xIsZero, yIsOne)
}
