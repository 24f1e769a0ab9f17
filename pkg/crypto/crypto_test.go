package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("str0ng-pass")
	require.NoError(t, err)
	require.NotEqual(t, "str0ng-pass", hash)

	require.True(t, VerifyPassword(hash, "str0ng-pass"))
	require.False(t, VerifyPassword(hash, "wrong-pass"))
}

func TestValidatePasswordStrength(t *testing.T) {
	require.NoError(t, ValidatePasswordStrength("str0ng-pass"))

	require.Error(t, ValidatePasswordStrength("short"))
	require.Error(t, ValidatePasswordStrength("123456789"))
	require.Error(t, ValidatePasswordStrength(" padded-pass "))
}
