// Package group holds the finite-field group parameters shared by all voters.
//
// A Group is built once and is immutable afterwards: it is safe for concurrent
// use and is passed explicitly to every arithmetic and protocol operation.
// Group elements ("values") live modulo P, while exponents live modulo
// Order = P-1. Confusing the two moduli breaks the proofs, so all exponent
// reduction goes through ReduceExponent.
package group

import (
	"io"
	"sync"

	"github.com/bwesterb/go-exptable"
	"github.com/go-errors/errors"
	"github.com/privacybydesign/openvote/big"
	"github.com/privacybydesign/openvote/internal/common"
	"github.com/sirupsen/logrus"
)

// Logger is overwritten by the openvote package on initialization.
var Logger = logrus.StandardLogger()

// The 1024-bit MODP group from RFC 2409 section 6.2, generator 2.
const (
	defaultModulusHex = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74" +
		"020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F1437" +
		"4FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
		"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE65381FFFFFFFFFFFFFFFF"
	defaultGenerator = 2

	// window size of the fixed-base exponentiation table for G
	tableWindow = 7
)

var (
	ErrNotPrime     = errors.New("group modulus is not prime")
	ErrBadGenerator = errors.New("group generator must satisfy 1 < g < P")

	bigONE = big.NewInt(1)
	bigTWO = big.NewInt(2)

	defaultOnce  sync.Once
	defaultGroup *Group
)

type Group struct {
	P     *big.Int // modulus for values
	Order *big.Int // modulus for exponents, P-1
	G     *big.Int // generator

	gTable exptable.Table
}

// BuildGroup validates the modulus and generator and precomputes the
// exponentiation table for the generator.
func BuildGroup(prime, generator *big.Int) (*Group, error) {
	if prime == nil || generator == nil {
		return nil, errors.New("group parameters must not be nil")
	}
	if !prime.ProbablyPrime(40) {
		return nil, ErrNotPrime
	}
	if generator.Cmp(bigONE) <= 0 || generator.Cmp(prime) >= 0 {
		return nil, ErrBadGenerator
	}
	if !ProbablySafePrime(prime, 40) {
		Logger.WithField("bits", prime.BitLen()).Warn("group modulus is not a safe prime")
	}

	result := &Group{
		P:     new(big.Int).Set(prime),
		Order: new(big.Int).Sub(prime, bigONE),
		G:     new(big.Int).Set(generator),
	}
	result.gTable.Compute(result.G.Go(), result.P.Go(), tableWindow)
	return result, nil
}

// Default returns the group used when nothing else is configured. It is built
// on first use and shared afterwards.
func Default() *Group {
	defaultOnce.Do(func() {
		p, ok := new(big.Int).SetString(defaultModulusHex, 16)
		if !ok {
			panic("invalid default group modulus")
		}
		g, err := BuildGroup(p, big.NewInt(defaultGenerator))
		if err != nil {
			panic(err)
		}
		defaultGroup = g
	})
	return defaultGroup
}

// ProbablySafePrime reports whether x is probably safe prime, by calling big.Int.ProbablyPrime(n)
// on x as well as on (x-1)/2.
func ProbablySafePrime(x *big.Int, n int) bool {
	if x.Cmp(bigTWO) <= 0 {
		return false
	}
	if !x.ProbablyPrime(n) {
		return false
	}
	y := new(big.Int).Rsh(x, 1)
	return y.ProbablyPrime(n)
}

// ReduceExponent returns exp mod Order as a new integer.
func (g *Group) ReduceExponent(exp *big.Int) *big.Int {
	return new(big.Int).Mod(exp, g.Order)
}

// ExpG computes G^exp mod P using the precomputed table. The exponent is
// reduced modulo Order first, so negative exponents are fine.
func (g *Group) ExpG(exp *big.Int) *big.Int {
	e := g.ReduceExponent(exp)
	ret := new(big.Int)
	if e.Sign() == 0 {
		return ret.SetInt64(1)
	}
	g.gTable.Exp(ret.Go(), e.Go())
	return ret
}

// Exp computes base^exp mod P, with exp reduced modulo Order.
func (g *Group) Exp(base, exp *big.Int) *big.Int {
	return common.ModExp(base, g.ReduceExponent(exp), g.P)
}

// Mul computes the product of the given values mod P.
func (g *Group) Mul(values ...*big.Int) *big.Int {
	r := big.NewInt(1)
	for _, v := range values {
		r.Mul(r, v)
		r.Mod(r, g.P)
	}
	return r
}

// Div computes a / b mod P.
func (g *Group) Div(a, b *big.Int) (*big.Int, error) {
	return common.DivMod(a, b, g.P)
}

// IsElement reports whether x is a value in [1, P).
func (g *Group) IsElement(x *big.Int) bool {
	return x != nil && x.Sign() > 0 && x.Cmp(g.P) < 0
}

// IsExponent reports whether x is an exponent in [0, Order).
func (g *Group) IsExponent(x *big.Int) bool {
	return x != nil && x.Sign() >= 0 && x.Cmp(g.Order) < 0
}

// RandomExponent samples a secret exponent in [0, Order) from rnd.
func (g *Group) RandomExponent(rnd io.Reader) (*big.Int, error) {
	return common.RandomExponent(rnd, g.Order)
}
