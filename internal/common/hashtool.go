package common

import (
	"crypto/sha256"
	"encoding/asn1"

	"github.com/privacybydesign/openvote/big"

	gobig "math/big"
)

// HashCommit computes the sha256 hash over the asn1 representation of a domain
// separation string followed by the number of values and the values themselves,
// and returns the positive big integer represented by that hash (big-endian).
// The DER encoding is length-prefixed per element, so distinct inputs never
// serialize to the same bytes. A nil value is hashed as zero.
func HashCommit(domain string, values []*big.Int) *big.Int {
	tmp := make([]interface{}, len(values)+2)
	tmp[0] = domain
	tmp[1] = gobig.NewInt(int64(len(values)))
	for i, v := range values {
		if v == nil {
			tmp[i+2] = new(gobig.Int)
			continue
		}
		tmp[i+2] = v.Go()
	}
	r, err := asn1.Marshal(tmp)
	if err != nil {
		panic(err) // Marshal should never error, so panic if it does
	}

	sha := sha256.Sum256(r)
	return new(big.Int).SetBytes(sha[:])
}

// HashChallenge is HashCommit reduced modulo the exponent group order, so that
// challenges can be split and recombined inside the exponent group.
func HashChallenge(domain string, order *big.Int, values ...*big.Int) *big.Int {
	c := HashCommit(domain, values)
	return c.Mod(c, order)
}
