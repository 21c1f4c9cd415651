// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

// Package field canonicalizes arbitrary credential attributes into BN254
// scalar field elements.
//
// Every hash, tree and circuit operation in this module works exclusively on
// fr.Element values; this package is the single place where raw input
// (integers, decimal strings, hex strings, free text) is turned into that
// representation. The mapping is total and deterministic: the same attribute
// always encodes to the same element, which is what makes re-submitted
// credentials hash to the same leaf.
package field

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/crypto/sha3"
)

// ToElement converts v into a canonical field element. It never fails:
//
//   - fr.Element, *fr.Element, big.Int, *big.Int and native integers pass
//     through (reduced mod r where needed);
//   - a string of decimal digits parses as a base-10 integer;
//   - a string prefixed with "0x" followed by hex digits parses as that
//     hex integer;
//   - any other string (empty, malformed hex, free text) maps to the
//     Keccak-256 digest of its bytes, interpreted as a big-endian integer
//     and reduced mod r.
//
// Raw []byte input goes through the digest path directly. Any other Go type
// encodes as the digest of its formatted representation, so a mistyped
// input can never alias the zero-valued empty-leaf marker.
func ToElement(v interface{}) fr.Element {
	var e fr.Element
	switch x := v.(type) {
	case fr.Element:
		return x
	case *fr.Element:
		return *x
	case big.Int:
		e.SetBigInt(&x)
	case *big.Int:
		e.SetBigInt(x)
	case uint64:
		e.SetUint64(x)
	case int64:
		e.SetInt64(x)
	case int:
		e.SetInt64(int64(x))
	case uint:
		e.SetUint64(uint64(x))
	case []byte:
		return digestElement(x)
	case string:
		return fromString(x)
	default:
		return digestElement(fmt.Appendf(nil, "%v", x))
	}
	return e
}

// FromString is the string-only entry point of the codec, exposed for wire
// decoding where inputs are always strings.
func FromString(s string) fr.Element {
	return fromString(s)
}

func fromString(s string) fr.Element {
	var e fr.Element
	if isDecimal(s) {
		n, _ := new(big.Int).SetString(s, 10)
		e.SetBigInt(n)
		return e
	}
	if body, ok := hexBody(s); ok {
		n, _ := new(big.Int).SetString(body, 16)
		e.SetBigInt(n)
		return e
	}
	return digestElement([]byte(s))
}

// digestElement maps arbitrary bytes to a field element via Keccak-256,
// big-endian.
func digestElement(b []byte) fr.Element {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	var n big.Int
	n.SetBytes(h.Sum(nil))
	var e fr.Element
	e.SetBigInt(&n)
	return e
}

func isDecimal(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// hexBody returns the digits after a "0x" prefix, and whether they form a
// valid non-empty hex string.
func hexBody(s string) (string, bool) {
	if len(s) < 3 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return "", false
	}
	body := s[2:]
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return "", false
		}
	}
	return body, true
}
