package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify_Roundtrip(t *testing.T) {
	digest, err := Hash("s3cret-pass")
	require.NoError(t, err)

	ok, err := Verify("s3cret-pass", digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHash_SaltVaries(t *testing.T) {
	d1, err := Hash("same-password")
	require.NoError(t, err)
	d2, err := Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)

	// Both digests still verify despite differing.
	for _, d := range []string{d1, d2} {
		ok, err := Verify("same-password", d)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	digest, err := Hash("correct-horse")
	require.NoError(t, err)

	ok, err := Verify("battery-staple", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_MalformedDigest_ReturnsError(t *testing.T) {
	ok, err := Verify("anything", "not-a-bcrypt-digest")
	assert.False(t, ok)
	require.Error(t, err)
}
