package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/squadhub/squadhub/internal/auth"
	"github.com/squadhub/squadhub/internal/chat"
	"github.com/squadhub/squadhub/internal/teams"
	"github.com/stretchr/testify/require"
)

func userPrincipal(id uuid.UUID) auth.Principal {
	return auth.Principal{Kind: auth.PrincipalUser, ID: id, UserID: id}
}

func teamPrincipal(teamID, userID uuid.UUID) auth.Principal {
	return auth.Principal{Kind: auth.PrincipalTeam, ID: teamID, UserID: userID}
}

func TestIntegration_JoinRequestLifecycle(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	admin := createProfile(t, pool, "admin")
	requester := createProfile(t, pool, "requester")
	roomID := createGroupRoom(t, pool, admin)

	service := chat.NewService(pool)

	status, err := service.RequestJoin(ctx, roomID, requester)
	require.NoError(t, err)
	require.Equal(t, chat.StatusPending, status)

	// Re-requesting does not create a second row or reset anything
	status, err = service.RequestJoin(ctx, roomID, requester)
	require.NoError(t, err)
	require.Equal(t, chat.StatusPending, status)

	pending, err := service.ListPending(ctx, roomID, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, requester, pending[0].ParticipantID)

	require.NoError(t, service.Approve(ctx, roomID, requester, admin))
	require.Equal(t, "approved", participantStatus(t, pool, roomID, requester))

	// Approval is announced in the room
	require.Equal(t, 1, systemMessageCount(t, pool, roomID))

	// Terminal states never revert and are not re-announced
	require.NoError(t, service.Approve(ctx, roomID, requester, admin))
	require.Equal(t, 1, systemMessageCount(t, pool, roomID))
	require.NoError(t, service.Reject(ctx, roomID, requester, admin))
	require.Equal(t, "approved", participantStatus(t, pool, roomID, requester))
}

func TestIntegration_JoinRequestUnknownRoom(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	requester := createProfile(t, pool, "requester")
	service := chat.NewService(pool)

	_, err := service.RequestJoin(context.Background(), uuid.New(), requester)
	require.ErrorIs(t, err, chat.ErrRoomNotFound)
}

func TestIntegration_AdmissionRequiresAdmin(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	admin := createProfile(t, pool, "admin")
	member := createProfile(t, pool, "member")
	requester := createProfile(t, pool, "requester")
	outsider := createProfile(t, pool, "outsider")
	roomID := createGroupRoom(t, pool, admin)

	service := chat.NewService(pool)

	_, err := service.RequestJoin(ctx, roomID, member)
	require.NoError(t, err)
	require.NoError(t, service.Approve(ctx, roomID, member, admin))

	_, err = service.RequestJoin(ctx, roomID, requester)
	require.NoError(t, err)

	// An approved non-admin member cannot resolve requests
	err = service.Approve(ctx, roomID, requester, member)
	require.ErrorIs(t, err, chat.ErrNotAdmin)
	require.Equal(t, "pending", participantStatus(t, pool, roomID, requester))

	// A non-participant cannot either
	err = service.Approve(ctx, roomID, requester, outsider)
	require.ErrorIs(t, err, chat.ErrNotParticipant)

	// A pending requester cannot approve themselves
	err = service.Approve(ctx, roomID, requester, requester)
	require.ErrorIs(t, err, chat.ErrNotParticipant)
	require.Equal(t, "pending", participantStatus(t, pool, roomID, requester))
}

func TestIntegration_SendMessageRequiresApprovedStanding(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	admin := createProfile(t, pool, "admin")
	pendingUser := createProfile(t, pool, "pending")
	outsider := createProfile(t, pool, "outsider")
	roomID := createGroupRoom(t, pool, admin)

	service := chat.NewService(pool)

	_, err := service.RequestJoin(ctx, roomID, pendingUser)
	require.NoError(t, err)

	_, err = service.SendMessage(ctx, roomID, userPrincipal(pendingUser), "hello", chat.MessageText, nil)
	require.ErrorIs(t, err, chat.ErrParticipationPending)

	_, err = service.SendMessage(ctx, roomID, userPrincipal(outsider), "hello", chat.MessageText, nil)
	require.ErrorIs(t, err, chat.ErrNotParticipant)

	msg, err := service.SendMessage(ctx, roomID, userPrincipal(admin), "hello", chat.MessageText, nil)
	require.NoError(t, err)
	require.Equal(t, "hello", msg.Content)
	require.Equal(t, admin, msg.SenderID)
}

func TestIntegration_TeamSenderMustBeTeamMember(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	teamID := createTeam(t, pool, "Broadcasters", captain)
	roomID := createGroupRoom(t, pool, captain)

	service := chat.NewService(pool)

	principal := auth.Principal{Kind: auth.PrincipalTeam, ID: teamID, UserID: captain}
	msg, err := service.SendMessage(ctx, roomID, principal, "go team", chat.MessageText, nil)
	require.NoError(t, err)
	require.Equal(t, "team", msg.SenderType)
	require.Equal(t, teamID, msg.SenderID)

	// A user cannot impersonate a team they are not a member of
	otherTeamCaptain := createProfile(t, pool, "other-captain")
	otherTeam := createTeam(t, pool, "Rivals", otherTeamCaptain)

	impersonator := auth.Principal{Kind: auth.PrincipalTeam, ID: otherTeam, UserID: captain}
	_, err = service.SendMessage(ctx, roomID, impersonator, "fake", chat.MessageText, nil)
	require.ErrorIs(t, err, teams.ErrNotMember)
}

func TestIntegration_DirectRoomIsReused(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	alice := createProfile(t, pool, "alice")
	bob := createProfile(t, pool, "bob")

	service := chat.NewService(pool)

	roomID, err := service.GetOrCreateDirectRoom(ctx, alice, bob)
	require.NoError(t, err)

	// Same pair in either order resolves to the same room
	again, err := service.GetOrCreateDirectRoom(ctx, bob, alice)
	require.NoError(t, err)
	require.Equal(t, roomID, again)

	// Both participants are admitted immediately in a direct room
	require.Equal(t, "approved", participantStatus(t, pool, roomID, alice))
	require.Equal(t, "approved", participantStatus(t, pool, roomID, bob))
}

func TestIntegration_DirectRoomUnknownTarget(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	alice := createProfile(t, pool, "alice")
	service := chat.NewService(pool)

	_, err := service.GetOrCreateDirectRoom(context.Background(), alice, uuid.New())
	require.ErrorIs(t, err, chat.ErrUserNotFound)
}
