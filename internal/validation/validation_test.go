package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	require.NoError(t, ValidateEmail("team@example.com"))
	require.NoError(t, ValidateEmail("  Team@Example.COM  "))

	require.ErrorIs(t, ValidateEmail("not-an-email"), ErrInvalidEmail)
	require.ErrorIs(t, ValidateEmail("missing@tld"), ErrInvalidEmail)
	require.ErrorIs(t, ValidateEmail(""), ErrInvalidEmail)
	require.ErrorIs(t, ValidateEmail("two words@example.com"), ErrInvalidEmail)

	long := strings.Repeat("a", 320) + "@example.com"
	require.ErrorIs(t, ValidateEmail(long), ErrEmailTooLong)
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "team@example.com", NormalizeEmail("  Team@Example.COM  "))
}

func TestValidateMediaURL(t *testing.T) {
	require.NoError(t, ValidateMediaURL("https://cdn.example.com/clip.mp4"))

	require.Error(t, ValidateMediaURL(""))
	require.Error(t, ValidateMediaURL("http://cdn.example.com/clip.mp4"))
	require.Error(t, ValidateMediaURL("ftp://cdn.example.com/clip.mp4"))
	require.Error(t, ValidateMediaURL("https://"))
}
