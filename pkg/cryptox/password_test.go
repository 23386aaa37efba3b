package cryptox

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	t.Run("round trip", func(t *testing.T) {
		hash, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		require.Contains(t, hash, "$argon2id$v=19$")

		require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		hash, err := HashPassword("secret")
		require.NoError(t, err)

		require.Error(t, VerifyPassword("not-secret", hash))
	})

	t.Run("malformed hash fails", func(t *testing.T) {
		require.Error(t, VerifyPassword("secret", "not-a-phc-string"))
		require.Error(t, VerifyPassword("secret", "$bcrypt$v=19$m=1,t=1,p=1$AA$AA"))
	})

	t.Run("hashes are salted", func(t *testing.T) {
		a, err := HashPassword("same")
		require.NoError(t, err)
		b, err := HashPassword("same")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})
}

func TestGeneratePassword(t *testing.T) {
	pw, err := GeneratePassword()
	require.NoError(t, err)
	require.Len(t, pw, 12)
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	a := FingerprintToken("token-a")
	require.Equal(t, a, FingerprintToken("token-a"))
	require.NotEqual(t, a, FingerprintToken("token-b"))
	require.Len(t, a, 43)
}
