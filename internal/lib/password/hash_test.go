package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHash_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "regular password", password: "password123"},
		{name: "special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "long password", password: "verylongpasswordwithmorethanfiftycharacters"},
		{name: "short password", password: "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := GetHash(tt.password)
			require.NoError(t, err)
			require.NotEmpty(t, hash)

			assert.NoError(t, CompareHash(hash, tt.password))
		})
	}
}

func TestCompareHash_Mismatch(t *testing.T) {
	hash, err := GetHash("correct_password")
	require.NoError(t, err)

	assert.Error(t, CompareHash(hash, "wrong_password"))
	assert.Error(t, CompareHash(hash, ""))
}

func TestGetHash_Salted(t *testing.T) {
	hash1, err := GetHash("same_password")
	require.NoError(t, err)
	hash2, err := GetHash("same_password")
	require.NoError(t, err)

	// bcrypt солит каждый хэш, одинаковые пароли дают разные хэши.
	assert.NotEqual(t, hash1, hash2)
}
