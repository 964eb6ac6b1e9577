package openvote

import (
	"crypto/rand"
	"testing"

	"github.com/multiformats/go-multihash"
	"github.com/privacybydesign/openvote/big"
	"github.com/privacybydesign/openvote/group"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSecrets(t *testing.T, g *group.Group, n int) ([]*big.Int, []*big.Int) {
	xs := make([]*big.Int, n)
	gxs := make([]*big.Int, n)
	for i := range xs {
		x, err := g.RandomExponent(rand.Reader)
		require.NoError(t, err)
		xs[i], gxs[i] = x, g.ExpG(x)
	}
	return xs, gxs
}

func TestPersonalBaseTelescopes(t *testing.T) {
	g := group.Default()
	for _, n := range []int{1, 2, 5} {
		xs, gxs := randomSecrets(t, g, n)
		product := big.NewInt(1)
		for i := 1; i <= n; i++ {
			gy, err := PersonalBase(g, gxs, i)
			require.NoError(t, err)
			product = g.Mul(product, g.Exp(gy, xs[i-1]))
		}
		assert.Equal(t, int64(1), product.Int64(), "product of gy_i^x_i for %d voters", n)
	}
}

func TestPersonalBaseSmall(t *testing.T) {
	g, err := group.BuildGroup(big.NewInt(23), big.NewInt(5))
	require.NoError(t, err)
	gxs := []*big.Int{big.NewInt(4), big.NewInt(7), big.NewInt(6)}

	// gy_1 = 1 / (7*6) = 1/19 = 17 mod 23
	gy, err := PersonalBase(g, gxs, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(17), gy.Int64())

	// gy_2 = 4 / 6 = 4*4 = 16 mod 23
	gy, err = PersonalBase(g, gxs, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(16), gy.Int64())

	// gy_3 = 4*7 = 5 mod 23
	gy, err = PersonalBase(g, gxs, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), gy.Int64())

	_, err = PersonalBase(g, gxs, 0)
	assert.Error(t, err)
	_, err = PersonalBase(g, gxs, 4)
	assert.Error(t, err)
}

func TestPersonalBaseNotInvertible(t *testing.T) {
	g, err := group.BuildGroup(big.NewInt(23), big.NewInt(5))
	require.NoError(t, err)
	_, err = PersonalBase(g, []*big.Int{big.NewInt(4), big.NewInt(0)}, 1)
	require.Error(t, err)
}

func TestRecoverTally(t *testing.T) {
	g := group.Default()
	votes := []int{1, 0, 1, 1, 0}
	xs, gxs := randomSecrets(t, g, len(votes))
	commitments := make([]*big.Int, len(votes))
	for i, v := range votes {
		gy, err := PersonalBase(g, gxs, i+1)
		require.NoError(t, err)
		commitments[i] = g.Mul(g.Exp(gy, xs[i]), g.ExpG(big.NewInt(int64(v))))
	}
	k, err := RecoverTally(g, commitments)
	require.NoError(t, err)
	assert.Equal(t, 3, k)
}

func TestRecoverTallyOutOfRange(t *testing.T) {
	g := group.Default()
	// g^3 cannot come from two voters
	_, err := RecoverTally(g, []*big.Int{g.ExpG(big.NewInt(1)), g.ExpG(big.NewInt(2))})
	assert.Error(t, err)

	k, err := RecoverTally(g, []*big.Int{big.NewInt(1), big.NewInt(1)})
	require.NoError(t, err)
	assert.Equal(t, 0, k)
}

func TestFingerprint(t *testing.T) {
	g := group.Default()
	_, gxs := randomSecrets(t, g, 2)
	board := func(values ...*big.Int) Board {
		b := Board{}
		for i, v := range values {
			b[i+1] = &Message{Round: Round1, Index: i + 1, Commitment: v}
		}
		return b
	}

	fp1, err := Fingerprint(board(gxs...), board(gxs[1], gxs[0]), 2)
	require.NoError(t, err)
	fp2, err := Fingerprint(board(gxs...), board(gxs[1], gxs[0]), 2)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	fp3, err := Fingerprint(board(gxs...), board(gxs...), 2)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)

	decoded, err := multihash.Decode(fp1)
	require.NoError(t, err)
	assert.Equal(t, uint64(multihash.SHA2_256), decoded.Code)
	assert.Equal(t, 32, decoded.Length)
}
