package openvote

import (
	"io"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/openvote/big"
	"github.com/privacybydesign/openvote/group"
	"github.com/privacybydesign/openvote/internal/common"
)

const schnorrDomain = "openvote/schnorr"

// SchnorrProof is a non-interactive proof of knowledge of x such that gx = g^x,
// bound to a session context and a voter index.
type SchnorrProof struct {
	Commitment *big.Int `json:"gv" cbor:"gv"`
	Response   *big.Int `json:"r" cbor:"r"`
}

func schnorrChallenge(g *group.Group, context, gv, gx *big.Int, index int) *big.Int {
	return common.HashChallenge(schnorrDomain, g.Order, context, g.G, gv, gx, big.NewInt(int64(index)))
}

// ProveKnowledge proves knowledge of x behind gx = g^x mod P for voter index.
func ProveKnowledge(g *group.Group, rnd io.Reader, context, x, gx *big.Int, index int) (*SchnorrProof, error) {
	if !g.IsExponent(x) || !g.IsElement(gx) {
		return nil, errors.New("schnorr: secret or commitment out of range")
	}
	v, err := g.RandomExponent(rnd)
	if err != nil {
		return nil, err
	}
	gv := g.ExpG(v)
	c := schnorrChallenge(g, context, gv, gx, index)

	// r = v - x*c mod order
	r := new(big.Int).Mul(x, c)
	r.Sub(v, r)
	return &SchnorrProof{
		Commitment: gv,
		Response:   g.ReduceExponent(r),
	}, nil
}

func (p *SchnorrProof) verifyStructure(g *group.Group) bool {
	return p != nil && g.IsElement(p.Commitment) && g.IsExponent(p.Response)
}

// Verify checks the proof against commitment gx of voter index: it accepts iff
// gv == g^r * gx^c mod P, with c recomputed from the transcript.
func (p *SchnorrProof) Verify(g *group.Group, context, gx *big.Int, index int) bool {
	if !p.verifyStructure(g) || !g.IsElement(gx) {
		return false
	}
	c := schnorrChallenge(g, context, p.Commitment, gx, index)
	expected := g.Mul(g.ExpG(p.Response), g.Exp(gx, c))
	return expected.Cmp(p.Commitment) == 0
}

// Equal reports whether both proofs carry the same values.
func (p *SchnorrProof) Equal(q *SchnorrProof) bool {
	if p == nil || q == nil {
		return p == q
	}
	return equalInts(p.Commitment, q.Commitment) && equalInts(p.Response, q.Response)
}

func equalInts(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
