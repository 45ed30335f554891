package invitations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateInviteCode_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)

		for _, c := range code {
			require.True(t, strings.ContainsRune(codeAlphabet, c), "unexpected character %q in code %s", c, code)
		}
	}
}

func TestGenerateInviteCode_ExcludesAmbiguousCharacters(t *testing.T) {
	require.NotContains(t, codeAlphabet, "0")
	require.NotContains(t, codeAlphabet, "O")
	require.NotContains(t, codeAlphabet, "1")
	require.NotContains(t, codeAlphabet, "I")
	require.Len(t, codeAlphabet, 32)

	for i := 0; i < 500; i++ {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		require.NotContains(t, code, "0")
		require.NotContains(t, code, "O")
		require.NotContains(t, code, "1")
		require.NotContains(t, code, "I")
	}
}

func TestNormalizeCode_Uppercases(t *testing.T) {
	require.Equal(t, "AB3D7KXZ", NormalizeCode("ab3d7kxz"))
	require.Equal(t, "AB3D7KXZ", NormalizeCode("  Ab3d7KxZ "))
}

func TestValidCodeFormat(t *testing.T) {
	code, err := GenerateInviteCode()
	require.NoError(t, err)
	require.True(t, ValidCodeFormat(code))

	require.False(t, ValidCodeFormat("SHORT"))
	require.False(t, ValidCodeFormat("AB3D7KX0"))
	require.False(t, ValidCodeFormat("ab3d7kxz"))
}
