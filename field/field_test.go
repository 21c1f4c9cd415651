// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

package field

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestToElementPassThrough(t *testing.T) {
	var want fr.Element
	want.SetUint64(42)

	for name, in := range map[string]interface{}{
		"fr.Element":  want,
		"*fr.Element": &want,
		"int":         42,
		"int64":       int64(42),
		"uint64":      uint64(42),
		"uint":        uint(42),
		"big.Int":     *big.NewInt(42),
		"*big.Int":    big.NewInt(42),
	} {
		got := ToElement(in)
		require.True(t, got.Equal(&want), "kind %s", name)
	}
}

func TestToElementDecimal(t *testing.T) {
	var want fr.Element
	want.SetUint64(123456789)
	got := ToElement("123456789")
	require.True(t, got.Equal(&want))

	// values above the modulus reduce mod r
	r := fr.Modulus()
	overflow := new(big.Int).Add(r, big.NewInt(7))
	var seven fr.Element
	seven.SetUint64(7)
	got = ToElement(overflow.String())
	require.True(t, got.Equal(&seven))
}

func TestToElementHex(t *testing.T) {
	var want fr.Element
	want.SetUint64(0x2a)
	for _, s := range []string{"0x2a", "0x2A", "0X2a"} {
		got := ToElement(s)
		require.True(t, got.Equal(&want), "input %q", s)
	}
}

func TestToElementFallback(t *testing.T) {
	// non-numeric strings go through the digest path: stable, non-trivial,
	// and distinct per input
	cases := []string{"", "math-101", "0x", "0xzz", "  42", "4 2", "héllo", "-1"}
	for _, s := range cases {
		a := ToElement(s)
		b := ToElement(s)
		require.True(t, a.Equal(&b), "input %q must be stable", s)
	}
	a := ToElement("math-101")
	b := ToElement("math-102")
	require.False(t, a.Equal(&b))

	// the digest of "42" the text is NOT taken; it parses as a number
	var want fr.Element
	want.SetUint64(42)
	got := ToElement("42")
	require.True(t, got.Equal(&want))
}

func TestToElementUnknownTypeNeverZeroLeaf(t *testing.T) {
	type attrs struct{ Exam, Level string }

	a := ToElement(attrs{"math", "101"})
	b := ToElement(attrs{"math", "101"})
	require.True(t, a.Equal(&b))
	require.False(t, a.IsZero(), "unknown type must not alias the empty-leaf marker")

	c := ToElement(attrs{"math", "102"})
	require.False(t, a.Equal(&c))

	f := ToElement(3.25)
	require.False(t, f.IsZero())
}

func TestToElementProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 1000

	properties := gopter.NewProperties(parameters)

	properties.Property("total and stable on arbitrary strings", prop.ForAll(
		func(s string) bool {
			a := ToElement(s)
			b := ToElement(s)
			return a.Equal(&b)
		},
		gen.AnyString(),
	))

	properties.Property("decimal and hex renderings agree", prop.ForAll(
		func(n uint64) bool {
			var want fr.Element
			want.SetUint64(n)
			dec := ToElement(fmt.Sprintf("%d", n))
			hexa := ToElement(fmt.Sprintf("0x%x", n))
			return dec.Equal(&want) && hexa.Equal(&want)
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
