package openvote

import (
	"crypto/rand"
	"testing"

	"github.com/privacybydesign/openvote/big"
	"github.com/privacybydesign/openvote/group"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testContext = big.NewInt(0x5e5510)

func schnorrSetup(t *testing.T) (*group.Group, *big.Int, *big.Int) {
	g := group.Default()
	x, err := g.RandomExponent(rand.Reader)
	require.NoError(t, err)
	return g, x, g.ExpG(x)
}

func TestSchnorrProof(t *testing.T) {
	g, x, gx := schnorrSetup(t)
	proof, err := ProveKnowledge(g, rand.Reader, testContext, x, gx, 3)
	require.NoError(t, err)
	assert.True(t, proof.Verify(g, testContext, gx, 3), "Valid proof rejected")
	assert.True(t, proof.Verify(g, testContext, gx, 3), "Verification must be repeatable")
}

func TestSchnorrProofZeroSecret(t *testing.T) {
	g := group.Default()
	x := big.NewInt(0)
	gx := g.ExpG(x)
	proof, err := ProveKnowledge(g, rand.Reader, testContext, x, gx, 1)
	require.NoError(t, err)
	assert.True(t, proof.Verify(g, testContext, gx, 1))
}

func TestSchnorrProofTampered(t *testing.T) {
	g, x, gx := schnorrSetup(t)
	proof, err := ProveKnowledge(g, rand.Reader, testContext, x, gx, 3)
	require.NoError(t, err)

	t.Run("commitment", func(t *testing.T) {
		p := *proof
		p.Commitment = g.Mul(p.Commitment, g.G)
		assert.False(t, p.Verify(g, testContext, gx, 3))
	})
	t.Run("response", func(t *testing.T) {
		p := *proof
		p.Response = g.ReduceExponent(new(big.Int).Add(p.Response, big.NewInt(1)))
		assert.False(t, p.Verify(g, testContext, gx, 3))
	})
	t.Run("public value", func(t *testing.T) {
		assert.False(t, proof.Verify(g, testContext, g.Mul(gx, g.G), 3))
	})
	t.Run("index", func(t *testing.T) {
		assert.False(t, proof.Verify(g, testContext, gx, 4))
	})
	t.Run("context", func(t *testing.T) {
		assert.False(t, proof.Verify(g, big.NewInt(1), gx, 3))
	})
	t.Run("out of range", func(t *testing.T) {
		p := *proof
		p.Response = new(big.Int).Set(g.Order)
		assert.False(t, p.Verify(g, testContext, gx, 3))
		p = *proof
		p.Commitment = big.NewInt(0)
		assert.False(t, p.Verify(g, testContext, gx, 3))
	})
	t.Run("missing", func(t *testing.T) {
		var p *SchnorrProof
		assert.False(t, p.Verify(g, testContext, gx, 3))
		assert.False(t, (&SchnorrProof{}).Verify(g, testContext, gx, 3))
	})

	// The original still verifies
	assert.True(t, proof.Verify(g, testContext, gx, 3))
}

func TestSchnorrProofBadInput(t *testing.T) {
	g, x, _ := schnorrSetup(t)
	_, err := ProveKnowledge(g, rand.Reader, testContext, g.Order, g.ExpG(x), 1)
	assert.Error(t, err)
	_, err = ProveKnowledge(g, rand.Reader, testContext, x, big.NewInt(0), 1)
	assert.Error(t, err)
}

func TestSchnorrProofEqual(t *testing.T) {
	g, x, gx := schnorrSetup(t)
	proof, err := ProveKnowledge(g, rand.Reader, testContext, x, gx, 1)
	require.NoError(t, err)
	cpy := &SchnorrProof{
		Commitment: new(big.Int).Set(proof.Commitment),
		Response:   new(big.Int).Set(proof.Response),
	}
	assert.True(t, proof.Equal(cpy))
	cpy.Response = big.NewInt(1)
	assert.False(t, proof.Equal(cpy))
	assert.False(t, proof.Equal(nil))
	assert.True(t, (*SchnorrProof)(nil).Equal(nil))
}
