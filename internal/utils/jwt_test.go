package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT("0x00000000000000000000000000000000000000ab", 137, 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000ab", claims.Address)
	assert.Equal(t, int64(137), claims.ChainID)
	assert.Equal(t, "mintcart", claims.Issuer)
}

func TestJWTRejectsForeignSecretAndExpiry(t *testing.T) {
	SetJWTSecret("one")
	token, err := GenerateJWT("0xabc", 1, 1)
	require.NoError(t, err)

	SetJWTSecret("two")
	_, err = ValidateJWT(token)
	assert.Error(t, err)

	expired, err := GenerateJWT("0xabc", 1, -1)
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	assert.Error(t, err)
}
