package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	t.Parallel()

	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.ErrorIs(t, h.Compare(hash, "battery staple"), ErrPasswordMismatch)
}

func TestRandomTokenGeneratorIssuesDistinctTokens(t *testing.T) {
	t.Parallel()

	g := RandomTokenGenerator{Size: 16}
	a, err := g.NewToken()
	require.NoError(t, err)
	b, err := g.NewToken()
	require.NoError(t, err)
	assert.Len(t, a, 22)
	assert.NotEqual(t, a, b)
}

func TestRandomTokenGeneratorFloorsShortSizes(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -4, 8} {
		token, err := RandomTokenGenerator{Size: size}.NewToken()
		require.NoError(t, err)
		assert.Len(t, token, 43)
	}
}
