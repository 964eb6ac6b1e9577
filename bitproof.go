package openvote

import (
	"io"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/openvote/big"
	"github.com/privacybydesign/openvote/group"
	"github.com/privacybydesign/openvote/internal/common"
)

const bitDomain = "openvote/bit"

// BitProof is a disjunctive Chaum-Pedersen proof (Cramer, Damgård and
// Schoenmakers, CRYPTO '94) that the public pair
//
//	X = g^xi, Y = h^xi * g^v
//
// encodes a bit v in {0, 1}, without revealing which. Branch 1 states that
// (g, X) and (h, Y) share the exponent xi (v = 0); branch 2 states that (g, X)
// and (h, Y/g) do (v = 1). One branch is simulated, the other is real, and the
// challenge shares satisfy C = D1 + D2 mod Order.
type BitProof struct {
	X *big.Int `json:"x" cbor:"x"`
	Y *big.Int `json:"y" cbor:"y"`

	A1 *big.Int `json:"a1" cbor:"a1"`
	B1 *big.Int `json:"b1" cbor:"b1"`
	A2 *big.Int `json:"a2" cbor:"a2"`
	B2 *big.Int `json:"b2" cbor:"b2"`

	C  *big.Int `json:"c" cbor:"c"`
	D1 *big.Int `json:"d1" cbor:"d1"`
	D2 *big.Int `json:"d2" cbor:"d2"`
	R1 *big.Int `json:"r1" cbor:"r1"`
	R2 *big.Int `json:"r2" cbor:"r2"`
}

func bitChallenge(g *group.Group, context, h *big.Int, index int, p *BitProof) *big.Int {
	return common.HashChallenge(bitDomain, g.Order,
		context, big.NewInt(int64(index)), h, p.X, p.Y, p.A1, p.B1, p.A2, p.B2)
}

// simulateBranch produces a transcript (a, b) for the statement "(g, x) and
// (h, z) share an exponent" from a chosen challenge share d and response r:
// a = g^r * x^d and b = h^r * z^d.
func simulateBranch(g *group.Group, x, h, z, d, r *big.Int) (a, b *big.Int) {
	a = g.Mul(g.ExpG(r), g.Exp(x, d))
	b = g.Mul(g.Exp(h, r), g.Exp(z, d))
	return
}

// ProveBit proves that Y = h^xi * g^vote, with X = g^xi, encodes a bit. The
// proof is bound to context and to the voter index.
func ProveBit(g *group.Group, rnd io.Reader, context, xi *big.Int, vote int, h *big.Int, index int) (*BitProof, error) {
	if vote != 0 && vote != 1 {
		return nil, errors.Errorf("vote must be 0 or 1, got %d", vote)
	}
	if !g.IsExponent(xi) || !g.IsElement(h) {
		return nil, errors.New("bit proof: secret or base out of range")
	}

	p := &BitProof{X: g.ExpG(xi)}
	p.Y = g.Mul(g.Exp(h, xi), g.ExpG(big.NewInt(int64(vote))))
	yOverG, err := g.Div(p.Y, g.G)
	if err != nil {
		return nil, err
	}

	// Simulated branch: random challenge share and response
	dSim, err := g.RandomExponent(rnd)
	if err != nil {
		return nil, err
	}
	rSim, err := g.RandomExponent(rnd)
	if err != nil {
		return nil, err
	}
	// Real branch: witness w
	w, err := g.RandomExponent(rnd)
	if err != nil {
		return nil, err
	}

	if vote == 0 {
		p.A2, p.B2 = simulateBranch(g, p.X, h, yOverG, dSim, rSim)
		p.A1, p.B1 = g.ExpG(w), g.Exp(h, w)
	} else {
		p.A1, p.B1 = simulateBranch(g, p.X, h, p.Y, dSim, rSim)
		p.A2, p.B2 = g.ExpG(w), g.Exp(h, w)
	}

	p.C = bitChallenge(g, context, h, index, p)

	// d_real = c - d_sim, r_real = w - xi*d_real, all mod order
	dReal := g.ReduceExponent(new(big.Int).Sub(p.C, dSim))
	rReal := new(big.Int).Mul(xi, dReal)
	rReal = g.ReduceExponent(rReal.Sub(w, rReal))

	if vote == 0 {
		p.D1, p.R1 = dReal, rReal
		p.D2, p.R2 = dSim, rSim
	} else {
		p.D1, p.R1 = dSim, rSim
		p.D2, p.R2 = dReal, rReal
	}
	return p, nil
}

func (p *BitProof) verifyStructure(g *group.Group) bool {
	if p == nil {
		return false
	}
	for _, v := range []*big.Int{p.X, p.Y, p.A1, p.B1, p.A2, p.B2} {
		if !g.IsElement(v) {
			return false
		}
	}
	for _, e := range []*big.Int{p.C, p.D1, p.D2, p.R1, p.R2} {
		if !g.IsExponent(e) {
			return false
		}
	}
	return true
}

// Verify checks the proof for personal base h and voter index. All five
// relations must hold and the challenge must match the transcript; there is
// no partial acceptance. Verify does not modify p.
func (p *BitProof) Verify(g *group.Group, context, h *big.Int, index int) bool {
	if !p.verifyStructure(g) || !g.IsElement(h) {
		return false
	}
	if bitChallenge(g, context, h, index, p).Cmp(p.C) != 0 {
		return false
	}

	sum := g.ReduceExponent(new(big.Int).Add(p.D1, p.D2))
	if sum.Cmp(p.C) != 0 {
		return false
	}

	yOverG, err := g.Div(p.Y, g.G)
	if err != nil {
		return false
	}
	a1, b1 := simulateBranch(g, p.X, h, p.Y, p.D1, p.R1)
	a2, b2 := simulateBranch(g, p.X, h, yOverG, p.D2, p.R2)
	return a1.Cmp(p.A1) == 0 &&
		b1.Cmp(p.B1) == 0 &&
		a2.Cmp(p.A2) == 0 &&
		b2.Cmp(p.B2) == 0
}

// Equal reports whether both proofs carry the same values.
func (p *BitProof) Equal(q *BitProof) bool {
	if p == nil || q == nil {
		return p == q
	}
	ps, qs := p.fields(), q.fields()
	for i := range ps {
		if !equalInts(ps[i], qs[i]) {
			return false
		}
	}
	return true
}

func (p *BitProof) fields() []*big.Int {
	return []*big.Int{p.X, p.Y, p.A1, p.B1, p.A2, p.B2, p.C, p.D1, p.D2, p.R1, p.R2}
}
