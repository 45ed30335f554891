package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, subject string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{
		Subject: subject,
	})
	raw, err := token.SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return raw
}

func TestResolvePrincipal_User(t *testing.T) {
	userID := uuid.New()
	header := "Bearer " + signedToken(t, userID.String())

	principal, err := ResolvePrincipal(header, "", "")
	require.NoError(t, err)
	require.Equal(t, PrincipalUser, principal.Kind)
	require.Equal(t, userID, principal.ID)
	require.Equal(t, userID, principal.UserID)
	require.False(t, principal.IsTeam())
}

func TestResolvePrincipal_TeamContext(t *testing.T) {
	userID := uuid.New()
	teamID := uuid.New()
	header := "Bearer " + signedToken(t, userID.String())

	principal, err := ResolvePrincipal(header, "team", teamID.String())
	require.NoError(t, err)
	require.Equal(t, PrincipalTeam, principal.Kind)
	require.Equal(t, teamID, principal.ID)
	require.Equal(t, userID, principal.UserID)
	require.True(t, principal.IsTeam())
}

func TestResolvePrincipal_UnknownContextTypeFallsBackToUser(t *testing.T) {
	userID := uuid.New()
	header := "Bearer " + signedToken(t, userID.String())

	principal, err := ResolvePrincipal(header, "organization", uuid.NewString())
	require.NoError(t, err)
	require.Equal(t, PrincipalUser, principal.Kind)
	require.Equal(t, userID, principal.ID)
}

func TestResolvePrincipal_MissingHeader(t *testing.T) {
	_, err := ResolvePrincipal("", "", "")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = ResolvePrincipal("Bearer ", "", "")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = ResolvePrincipal("Basic dXNlcjpwYXNz", "", "")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestResolvePrincipal_MalformedToken(t *testing.T) {
	_, err := ResolvePrincipal("Bearer not-a-jwt", "", "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolvePrincipal_NoSubject(t *testing.T) {
	header := "Bearer " + signedToken(t, "")

	_, err := ResolvePrincipal(header, "", "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolvePrincipal_SubjectNotUUID(t *testing.T) {
	header := "Bearer " + signedToken(t, "alice@example.com")

	_, err := ResolvePrincipal(header, "", "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolvePrincipal_BadContextID(t *testing.T) {
	userID := uuid.New()
	header := "Bearer " + signedToken(t, userID.String())

	_, err := ResolvePrincipal(header, "team", "not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidContext)
}
