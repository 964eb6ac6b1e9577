// Copyright 2016 Maarten Everts. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"github.com/go-errors/errors"
	"github.com/privacybydesign/openvote/big"
)

// Some utility code (mostly math stuff) useful in various places in this
// module.

// Often we need to refer to the same small constant big numbers, no point in
// creating them again and again.
var bigONE = big.NewInt(1)

// ErrNotInvertible is returned when a modular inverse is requested for an
// element that shares a factor with the modulus.
var ErrNotInvertible = errors.New("modular inverse does not exist")

// ModExp computes base^exp mod m by square-and-multiply, scanning exp from its
// most significant set bit down to bit 0. The amount of work depends on the bit
// length of exp only. exp must be non-negative and m positive; exp == 0 yields 1
// for every base, including base == 0 (mod m). The result is in [0, m).
func ModExp(base, exp, m *big.Int) *big.Int {
	if exp.Sign() < 0 {
		panic("ModExp: negative exponent")
	}
	if m.Sign() <= 0 {
		panic("ModExp: non-positive modulus")
	}

	result := big.NewInt(1)
	if m.Cmp(bigONE) == 0 {
		return result.SetInt64(0)
	}
	b := new(big.Int).Mod(base, m)
	tmp := new(big.Int)
	for i := exp.BitLen() - 1; i >= 0; i-- {
		tmp.Mul(result, result)
		result.Mod(tmp, m)
		if exp.Bit(i) == 1 {
			tmp.Mul(result, b)
			result.Mod(tmp, m)
		}
	}
	return result
}

// ExtendedGCD runs the iterative extended Euclidean algorithm on a and b and
// returns x, y and gcd such that a*x + b*y == gcd.
func ExtendedGCD(a, b *big.Int) (x, y, gcd *big.Int) {
	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)

	q, tmp := new(big.Int), new(big.Int)
	for r.Sign() != 0 {
		q.Quo(oldR, r)

		tmp.Mul(q, r)
		oldR, r = r, new(big.Int).Sub(oldR, tmp)

		tmp.Mul(q, s)
		oldS, s = s, new(big.Int).Sub(oldS, tmp)

		tmp.Mul(q, t)
		oldT, t = t, new(big.Int).Sub(oldT, tmp)
	}

	// Normalize to a non-negative gcd
	if oldR.Sign() < 0 {
		oldR.Neg(oldR)
		oldS.Neg(oldS)
		oldT.Neg(oldT)
	}
	return oldS, oldT, oldR
}

// ModInverse returns the inverse of a modulo m, as an element of [0, m). It
// returns ErrNotInvertible when gcd(a, m) != 1.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, errors.Errorf("modulus must be positive, got %s", m)
	}
	x, _, g := ExtendedGCD(new(big.Int).Mod(a, m), m)
	if g.Cmp(bigONE) != 0 {
		return nil, ErrNotInvertible
	}
	return x.Mod(x, m), nil
}

// DivMod computes a * b^-1 mod m.
func DivMod(a, b, m *big.Int) (*big.Int, error) {
	ib, err := ModInverse(b, m)
	if err != nil {
		return nil, err
	}
	r := new(big.Int).Mul(a, ib)
	return r.Mod(r, m), nil
}

// ModPow computes x^y mod m. The exponent (y) can be negative, in which case it
// uses the modular inverse to compute the result.
func ModPow(x, y, m *big.Int) (*big.Int, error) {
	if y.Sign() == -1 {
		t, err := ModInverse(x, m)
		if err != nil {
			return nil, err
		}
		return ModExp(t, new(big.Int).Neg(y), m), nil
	}
	return ModExp(x, y, m), nil
}
