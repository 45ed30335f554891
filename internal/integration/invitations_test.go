package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/squadhub/squadhub/internal/invitations"
	"github.com/stretchr/testify/require"
)

func TestIntegration_InvitationAcceptLifecycle(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	joiner := createProfile(t, pool, "joiner")
	teamID := createTeam(t, pool, "Rocket Squad", captain)

	service := invitations.NewService(pool)

	inv, err := service.Create(ctx, teamID, captain, nil)
	require.NoError(t, err)
	require.Len(t, inv.InviteCode, invitations.CodeLength)
	require.Equal(t, invitations.StatusPending, inv.Status)

	joinedTeam, err := service.Accept(ctx, inv.InviteCode, joiner)
	require.NoError(t, err)
	require.Equal(t, teamID, joinedTeam)
	require.True(t, isMember(t, pool, teamID, joiner))

	got, err := service.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusAccepted, got.Status)

	// A used code cannot admit anyone else
	other := createProfile(t, pool, "other")
	_, err = service.Accept(ctx, inv.InviteCode, other)
	require.ErrorIs(t, err, invitations.ErrInvitationNotPending)
	require.False(t, isMember(t, pool, teamID, other))
}

func TestIntegration_AcceptIsCaseInsensitive(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	joiner := createProfile(t, pool, "joiner")
	teamID := createTeam(t, pool, "Night Owls", captain)

	service := invitations.NewService(pool)
	inv, err := service.Create(ctx, teamID, captain, nil)
	require.NoError(t, err)

	_, err = service.Accept(ctx, strings.ToLower(inv.InviteCode), joiner)
	require.NoError(t, err)
	require.True(t, isMember(t, pool, teamID, joiner))
}

func TestIntegration_AcceptExistingMember(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	teamID := createTeam(t, pool, "Sharks", captain)

	service := invitations.NewService(pool)
	inv, err := service.Create(ctx, teamID, captain, nil)
	require.NoError(t, err)

	// The captain is already on the roster
	_, err = service.Accept(ctx, inv.InviteCode, captain)
	require.ErrorIs(t, err, invitations.ErrAlreadyMember)

	// The invitation survives for someone else
	got, err := service.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusPending, got.Status)
}

func TestIntegration_AcceptExpiredInvitation(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	joiner := createProfile(t, pool, "joiner")
	teamID := createTeam(t, pool, "Laggards", captain)

	service := invitations.NewService(pool)
	inv, err := service.Create(ctx, teamID, captain, nil)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		UPDATE team_invitations SET expires_at = NOW() - INTERVAL '1 hour' WHERE id = $1
	`, inv.ID)
	require.NoError(t, err)

	_, err = service.Accept(ctx, inv.InviteCode, joiner)
	require.ErrorIs(t, err, invitations.ErrInvitationExpired)
	require.False(t, isMember(t, pool, teamID, joiner))
}

func TestIntegration_AcceptUnknownCode(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	service := invitations.NewService(pool)
	joiner := createProfile(t, pool, "joiner")

	_, err := service.Accept(context.Background(), "ZZZZZZZZ", joiner)
	require.ErrorIs(t, err, invitations.ErrInvitationNotFound)
}

func TestIntegration_RejectScopedToInvitee(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	invitee := createProfile(t, pool, "invitee")
	stranger := createProfile(t, pool, "stranger")
	teamID := createTeam(t, pool, "Wolves", captain)

	service := invitations.NewService(pool)
	inv, err := service.Create(ctx, teamID, captain, &invitee)
	require.NoError(t, err)

	// Someone else cannot reject an invitation addressed to the invitee
	err = service.Reject(ctx, inv.ID, stranger)
	require.ErrorIs(t, err, invitations.ErrInvitationNotFound)

	err = service.Reject(ctx, inv.ID, invitee)
	require.NoError(t, err)

	got, err := service.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusRejected, got.Status)

	// Rejecting twice is reported, not silently repeated
	err = service.Reject(ctx, inv.ID, invitee)
	require.ErrorIs(t, err, invitations.ErrInvitationNotPending)
}

func TestIntegration_CancelInvitation(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	teamID := createTeam(t, pool, "Eagles", captain)

	service := invitations.NewService(pool)
	inv, err := service.Create(ctx, teamID, captain, nil)
	require.NoError(t, err)

	require.NoError(t, service.Cancel(ctx, inv.ID))

	err = service.Cancel(ctx, inv.ID)
	require.ErrorIs(t, err, invitations.ErrInvitationNotFound)

	_, err = service.GetByCode(ctx, inv.InviteCode)
	require.ErrorIs(t, err, invitations.ErrInvitationNotFound)
}

func TestIntegration_ExpireOldSweep(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	joiner := createProfile(t, pool, "joiner")
	teamID := createTeam(t, pool, "Sweepers", captain)

	service := invitations.NewService(pool)

	fresh, err := service.Create(ctx, teamID, captain, nil)
	require.NoError(t, err)

	var stale []uuid.UUID
	for i := 0; i < 2; i++ {
		inv, err := service.Create(ctx, teamID, captain, nil)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `
			UPDATE team_invitations SET expires_at = NOW() - INTERVAL '1 day' WHERE id = $1
		`, inv.ID)
		require.NoError(t, err)
		stale = append(stale, inv.ID)
	}

	// Accepted invitations are terminal and must not be swept
	accepted, err := service.Create(ctx, teamID, captain, nil)
	require.NoError(t, err)
	_, err = service.Accept(ctx, accepted.InviteCode, joiner)
	require.NoError(t, err)

	expired, err := service.ExpireOld(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, expired)

	for _, id := range stale {
		got, err := service.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, invitations.StatusExpired, got.Status)
	}

	got, err := service.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusPending, got.Status)

	got, err = service.GetByID(ctx, accepted.ID)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusAccepted, got.Status)

	// Sweep is idempotent
	expired, err = service.ExpireOld(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, expired)
}

func TestIntegration_ConcurrentAcceptAdmitsExactlyOne(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	teamID := createTeam(t, pool, "Racers", captain)

	service := invitations.NewService(pool)
	inv, err := service.Create(ctx, teamID, captain, nil)
	require.NoError(t, err)

	const racers = 4
	users := make([]uuid.UUID, racers)
	for i := range users {
		users[i] = createProfile(t, pool, "racer")
	}

	errs := make([]error, racers)
	done := make(chan int, racers)
	for i := range users {
		go func(i int) {
			_, errs[i] = service.Accept(ctx, inv.InviteCode, users[i])
			done <- i
		}(i)
	}
	for range users {
		<-done
	}

	winners := 0
	for i, acceptErr := range errs {
		if acceptErr == nil {
			winners++
			require.True(t, isMember(t, pool, teamID, users[i]))
			continue
		}
		require.ErrorIs(t, acceptErr, invitations.ErrInvitationNotPending)
		// Losers must not keep a membership row behind
		require.False(t, isMember(t, pool, teamID, users[i]))
	}
	require.Equal(t, 1, winners)

	got, err := service.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusAccepted, got.Status)
}

func TestIntegration_InviteCodesAreUniquePerInvitation(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	teamID := createTeam(t, pool, "Coders", captain)

	service := invitations.NewService(pool)
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		inv, err := service.Create(ctx, teamID, captain, nil)
		require.NoError(t, err)
		require.False(t, seen[inv.InviteCode], "duplicate code %s", inv.InviteCode)
		seen[inv.InviteCode] = true
	}
}
