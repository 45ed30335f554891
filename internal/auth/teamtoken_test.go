package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateTeamToken_AndValidate(t *testing.T) {
	userID := uuid.New()
	teamID := uuid.New()
	secret := "test-secret"

	token, err := CreateTeamToken(userID, teamID, secret, 7)
	require.NoError(t, err)

	claims, err := ValidateTeamToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, userID.String(), claims.Subject)
	require.Equal(t, teamID, claims.ContextID)
	require.Equal(t, "team", claims.ContextType)
	require.NotNil(t, claims.ExpiresAt)
}

func TestValidateTeamToken_WrongSecret(t *testing.T) {
	token, err := CreateTeamToken(uuid.New(), uuid.New(), "secret-a", 7)
	require.NoError(t, err)

	_, err = ValidateTeamToken(token, "secret-b")
	require.Error(t, err)
}

func TestValidateTeamToken_Expired(t *testing.T) {
	token, err := CreateTeamToken(uuid.New(), uuid.New(), "secret", -1)
	require.NoError(t, err)

	_, err = ValidateTeamToken(token, "secret")
	require.Error(t, err)
}

func TestTeamTokenRoundTripsThroughPrincipal(t *testing.T) {
	userID := uuid.New()
	teamID := uuid.New()

	token, err := CreateTeamToken(userID, teamID, "secret", 7)
	require.NoError(t, err)

	claims, err := ValidateTeamToken(token, "secret")
	require.NoError(t, err)

	principal, err := ResolvePrincipal("Bearer "+token, claims.ContextType, claims.ContextID.String())
	require.NoError(t, err)
	require.Equal(t, PrincipalTeam, principal.Kind)
	require.Equal(t, teamID, principal.ID)
	require.Equal(t, userID, principal.UserID)
}
