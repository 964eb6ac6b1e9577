package openvote

import (
	"github.com/go-errors/errors"
	"github.com/multiformats/go-multihash"
	"github.com/privacybydesign/openvote/big"
	"github.com/privacybydesign/openvote/cbor"
	"github.com/privacybydesign/openvote/group"
)

// PersonalBase computes the round 2 base of voter i from the round 1
// commitments gx_1..gx_n (commitments[j-1] = gx_j):
//
//	gy_i = (prod_{j<i} gx_j) / (prod_{j>i} gx_j) mod P
//
// so that prod_i gy_i^x_i = 1.
func PersonalBase(g *group.Group, commitments []*big.Int, i int) (*big.Int, error) {
	n := len(commitments)
	if i < 1 || i > n {
		return nil, errors.Errorf("voter index %d out of range [1, %d]", i, n)
	}
	num := g.Mul(commitments[:i-1]...)
	den := g.Mul(commitments[i:]...)
	return g.Div(num, den)
}

// RecoverTally returns the k in [0, n] for which g^k equals the product of the
// round 2 commitments. The search is bounded by n because every vote is 0 or 1.
func RecoverTally(g *group.Group, commitments []*big.Int) (int, error) {
	product := g.Mul(commitments...)
	candidate := big.NewInt(1)
	for k := 0; k <= len(commitments); k++ {
		if candidate.Cmp(product) == 0 {
			return k, nil
		}
		candidate = g.Mul(candidate, g.G)
	}
	return 0, errors.Errorf("product of round 2 commitments is not g^k for any k in [0, %d]", len(commitments))
}

// transcript is what the fingerprint of a session is computed over.
type transcript struct {
	Round1 []*Message `cbor:"round1"`
	Round2 []*Message `cbor:"round2"`
}

// Fingerprint computes a SHA2-256 multihash over the canonical CBOR encoding
// of both boards, ordered by voter index. Voters that saw the same boards get
// the same fingerprint, which they can compare out of band.
func Fingerprint(round1, round2 Board, n int) (multihash.Multihash, error) {
	bts, err := cbor.Marshal(&transcript{
		Round1: round1.Ordered(n),
		Round2: round2.Ordered(n),
	})
	if err != nil {
		return nil, errors.WrapPrefix(err, "failed to encode transcript", 0)
	}
	return multihash.Sum(bts, multihash.SHA2_256, -1)
}
