package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybersafe_backend/internal/util"
)

func TestGenerateAccessIDFormat(t *testing.T) {
	id, err := GenerateAccessID()
	require.NoError(t, err)

	groups := strings.Split(id, "-")
	require.Len(t, groups, 4)
	for _, g := range groups {
		assert.Len(t, g, 4)
		for _, r := range g {
			assert.Contains(t, accessAlphabet, string(r),
				"only unambiguous characters appear")
		}
	}
}

func TestGenerateAccessIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateAccessID()
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestLoginBlankAccessIDRejected(t *testing.T) {
	svc := NewAuthService(nil, "secret", time.Hour)

	_, _, err := svc.Login("   ")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestHashAccessIDNormalizes(t *testing.T) {
	h1 := HashAccessID("ABCD-EFGH-JKMN-PQRS")
	h2 := HashAccessID("  abcd-efgh-jkmn-pqrs ")
	assert.Equal(t, h1, h2, "case and whitespace do not change identity")
	assert.Len(t, h1, 64)

	assert.NotEqual(t, h1, HashAccessID("ABCD-EFGH-JKMN-PQRT"))
}
