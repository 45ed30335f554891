package integration

import (
	"context"
	"testing"

	"github.com/squadhub/squadhub/internal/auth"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "integration-test-secret"

func TestIntegration_TeamCredentialsRegistration(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	member := createProfile(t, pool, "member")
	teamID := createTeam(t, pool, "Loginauts", captain)
	addMember(t, pool, teamID, member, true)

	service := auth.NewTeamAuthService(pool)

	// Only the captain can register credentials
	_, err := service.RegisterCredentials(ctx, teamID, member, "team@example.com", "password123")
	require.ErrorIs(t, err, auth.ErrNotTeamCaptain)

	team, err := service.RegisterCredentials(ctx, teamID, captain, "team@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, teamID, team.ID)

	// A team holds at most one credential set
	_, err = service.RegisterCredentials(ctx, teamID, captain, "other@example.com", "password123")
	require.ErrorIs(t, err, auth.ErrCredentialsExist)
}

func TestIntegration_TeamLoginAndLogout(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	member := createProfile(t, pool, "member")
	restricted := createProfile(t, pool, "restricted")
	outsider := createProfile(t, pool, "outsider")
	teamID := createTeam(t, pool, "Loginauts", captain)
	addMember(t, pool, teamID, member, true)
	addMember(t, pool, teamID, restricted, false)

	service := auth.NewTeamAuthService(pool)
	_, err := service.RegisterCredentials(ctx, teamID, captain, "team@example.com", "password123")
	require.NoError(t, err)

	_, _, err = service.Login(ctx, "team@example.com", "wrong-password", member, testJWTSecret, 7)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = service.Login(ctx, "nobody@example.com", "password123", member, testJWTSecret, 7)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = service.Login(ctx, "team@example.com", "password123", outsider, testJWTSecret, 7)
	require.ErrorIs(t, err, auth.ErrNotTeamMember)

	_, _, err = service.Login(ctx, "team@example.com", "password123", restricted, testJWTSecret, 7)
	require.ErrorIs(t, err, auth.ErrLoginNotAllowed)

	token, team, err := service.Login(ctx, "team@example.com", "password123", member, testJWTSecret, 7)
	require.NoError(t, err)
	require.Equal(t, teamID, team.ID)

	claims, err := auth.ValidateTeamToken(token, testJWTSecret)
	require.NoError(t, err)
	require.Equal(t, teamID, claims.ContextID)
	require.Equal(t, member.String(), claims.Subject)

	sessions, err := service.Sessions(ctx, teamID, captain)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, member, sessions[0].UserID)

	claims, err = service.Logout(ctx, token, testJWTSecret)
	require.NoError(t, err)
	require.Equal(t, teamID, claims.ContextID)

	sessions, err = service.Sessions(ctx, teamID, captain)
	require.NoError(t, err)
	require.Empty(t, sessions)

	// Outsiders cannot read the session list
	_, err = service.Sessions(ctx, teamID, outsider)
	require.ErrorIs(t, err, auth.ErrNotTeamMember)
}
