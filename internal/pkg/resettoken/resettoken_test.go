package resettoken

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_FormatAndEntropy(t *testing.T) {
	plaintext, hash, err := Generate()
	require.NoError(t, err)

	// 20 random bytes hex-encoded.
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{40}$`), plaintext)
	// sha256 hex digest.
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), hash)
	assert.NotEqual(t, plaintext, hash)
}

func TestGenerate_TokensDiffer(t *testing.T) {
	t1, _, err := Generate()
	require.NoError(t, err)
	t2, _, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestHash_MatchesGeneratedHash(t *testing.T) {
	plaintext, hash, err := Generate()
	require.NoError(t, err)
	assert.Equal(t, hash, Hash(plaintext))
}

func TestHash_Deterministic(t *testing.T) {
	assert.Equal(t, Hash("some-token"), Hash("some-token"))
	assert.NotEqual(t, Hash("some-token"), Hash("other-token"))
}
