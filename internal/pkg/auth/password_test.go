package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTemporaryPassword(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantLen int
	}{
		{name: "default length", length: 12, wantLen: 12},
		{name: "long", length: 24, wantLen: 24},
		{name: "too short is raised", length: 4, wantLen: MinTemporaryPasswordLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwd, err := GenerateTemporaryPassword(tt.length)
			require.NoError(t, err)
			assert.Len(t, pwd, tt.wantLen)
			assert.True(t, strings.ContainsAny(pwd, upperChars), "upper in %q", pwd)
			assert.True(t, strings.ContainsAny(pwd, lowerChars), "lower in %q", pwd)
			assert.True(t, strings.ContainsAny(pwd, digitChars), "digit in %q", pwd)
			assert.True(t, strings.ContainsAny(pwd, symbolChars), "symbol in %q", pwd)
		})
	}
}

func TestGenerateTemporaryPasswordIsRandom(t *testing.T) {
	seen := make(map[string]struct{}, 200)
	for i := 0; i < 200; i++ {
		pwd, err := GenerateTemporaryPassword(12)
		require.NoError(t, err)
		_, dup := seen[pwd]
		require.False(t, dup, "duplicate password %q", pwd)
		seen[pwd] = struct{}{}
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("S3cret!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "S3cret!pass", hash)
	assert.True(t, CheckPassword(hash, "S3cret!pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
