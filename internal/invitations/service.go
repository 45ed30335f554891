package invitations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	inviteTTL          = 7 * 24 * time.Hour
	maxCodeAttempts    = 10
	uniqueViolationPgx = "23505"
)

// Service owns the invitation lifecycle: creation with unique-code
// generation, lookup, acceptance with membership creation, rejection,
// cancellation, and expiry sweeping.
//
// The store is the system of record. Code uniqueness is guaranteed by the
// invite_code unique constraint; the creation loop merely regenerates on
// conflict. Acceptance deliberately spans two statements with an explicit
// compensation instead of a transaction.
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new invitation service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Create generates an invitation for a team with a fresh unique code and
// a 7-day expiry. The caller must already hold member standing on the
// team. When the store rejects a code as a duplicate, a new one is drawn,
// up to maxCodeAttempts; exhaustion fails with ErrCodeExhausted.
func (s *Service) Create(ctx context.Context, teamID, createdBy uuid.UUID, invitedUserID *uuid.UUID) (*Invitation, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateInviteCode()
		if err != nil {
			return nil, err
		}

		expiresAt := time.Now().UTC().Add(inviteTTL)

		var inv Invitation
		err = s.pool.QueryRow(ctx, `
			INSERT INTO team_invitations (
			  team_id, invite_code, invited_user_id, created_by, status, expires_at
			)
			VALUES ($1, $2, $3, $4, 'pending', $5)
			RETURNING id, team_id, invite_code, invited_user_id, status,
			          expires_at, created_by, created_at, updated_at
		`, teamID, code, invitedUserID, createdBy, expiresAt).Scan(
			&inv.ID,
			&inv.TeamID,
			&inv.InviteCode,
			&inv.InvitedUserID,
			&inv.Status,
			&inv.ExpiresAt,
			&inv.CreatedBy,
			&inv.CreatedAt,
			&inv.UpdatedAt,
		)
		if err == nil {
			return &inv, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationPgx {
			// Code collision; draw again.
			continue
		}
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil, ErrCodeExhausted
}

// GetByCode looks up an invitation by its code together with the team
// summary. The lookup is case-insensitive: codes are normalized to
// uppercase first.
func (s *Service) GetByCode(ctx context.Context, code string) (*InvitationWithTeam, error) {
	var inv InvitationWithTeam

	query := `
		SELECT i.id, i.team_id, i.invite_code, i.invited_user_id, i.status,
		       i.expires_at, i.created_by, i.created_at, i.updated_at,
		       t.id, t.name, t.logo_url
		FROM team_invitations i
		INNER JOIN teams t ON t.id = i.team_id
		WHERE i.invite_code = $1
	`

	err := s.pool.QueryRow(ctx, query, NormalizeCode(code)).Scan(
		&inv.ID,
		&inv.TeamID,
		&inv.InviteCode,
		&inv.InvitedUserID,
		&inv.Status,
		&inv.ExpiresAt,
		&inv.CreatedBy,
		&inv.CreatedAt,
		&inv.UpdatedAt,
		&inv.Team.ID,
		&inv.Team.Name,
		&inv.Team.LogoURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return &inv, nil
}

// GetByID loads an invitation by ID.
func (s *Service) GetByID(ctx context.Context, invitationID uuid.UUID) (*Invitation, error) {
	var inv Invitation

	query := `
		SELECT id, team_id, invite_code, invited_user_id, status,
		       expires_at, created_by, created_at, updated_at
		FROM team_invitations
		WHERE id = $1
	`

	err := s.pool.QueryRow(ctx, query, invitationID).Scan(
		&inv.ID,
		&inv.TeamID,
		&inv.InviteCode,
		&inv.InvitedUserID,
		&inv.Status,
		&inv.ExpiresAt,
		&inv.CreatedBy,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return &inv, nil
}

// ListTeam retrieves all invitations for a team, newest first.
func (s *Service) ListTeam(ctx context.Context, teamID uuid.UUID) ([]Invitation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, team_id, invite_code, invited_user_id, status,
		       expires_at, created_by, created_at, updated_at
		FROM team_invitations
		WHERE team_id = $1
		ORDER BY created_at DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invs []Invitation
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(
			&inv.ID,
			&inv.TeamID,
			&inv.InviteCode,
			&inv.InvitedUserID,
			&inv.Status,
			&inv.ExpiresAt,
			&inv.CreatedBy,
			&inv.CreatedAt,
			&inv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitations: %w", err)
	}

	return invs, nil
}

// ListForUser retrieves a user's pending invitations with team summaries,
// newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]InvitationWithTeam, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.team_id, i.invite_code, i.invited_user_id, i.status,
		       i.expires_at, i.created_by, i.created_at, i.updated_at,
		       t.id, t.name, t.logo_url
		FROM team_invitations i
		INNER JOIN teams t ON t.id = i.team_id
		WHERE i.invited_user_id = $1
		  AND i.status = 'pending'
		ORDER BY i.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invs []InvitationWithTeam
	for rows.Next() {
		var inv InvitationWithTeam
		if err := rows.Scan(
			&inv.ID,
			&inv.TeamID,
			&inv.InviteCode,
			&inv.InvitedUserID,
			&inv.Status,
			&inv.ExpiresAt,
			&inv.CreatedBy,
			&inv.CreatedAt,
			&inv.UpdatedAt,
			&inv.Team.ID,
			&inv.Team.Name,
			&inv.Team.LogoURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitations: %w", err)
	}

	return invs, nil
}

// Accept joins a user to the team behind an invite code.
//
// Membership creation and the status flip are one logical unit. They are
// not wrapped in a transaction; instead the status flip is conditional on
// the invitation still being pending, and when it fails after the
// membership insert succeeded, the membership row is deleted again before
// the error is surfaced. Of two concurrent accepts for the same code,
// exactly one wins the conditional update; the loser compensates and
// reports a conflict.
func (s *Service) Accept(ctx context.Context, code string, userID uuid.UUID) (uuid.UUID, error) {
	inv, err := s.GetByCode(ctx, code)
	if err != nil {
		return uuid.Nil, err
	}

	if inv.Status != StatusPending {
		return uuid.Nil, ErrInvitationNotPending
	}
	if inv.ExpiresAt.Before(time.Now().UTC()) {
		return uuid.Nil, ErrInvitationExpired
	}

	var alreadyMember bool
	err = s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM team_members
			WHERE team_id = $1 AND user_id = $2
		)
	`, inv.TeamID, userID).Scan(&alreadyMember)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if alreadyMember {
		return uuid.Nil, ErrAlreadyMember
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, can_login)
		VALUES ($1, $2, TRUE)
	`, inv.TeamID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationPgx {
			// Lost a race against another join for the same user.
			return uuid.Nil, ErrAlreadyMember
		}
		return uuid.Nil, fmt.Errorf("failed to create membership: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE team_invitations
		SET status = 'accepted', updated_at = NOW()
		WHERE id = $1
		  AND status = 'pending'
	`, inv.ID)
	if err != nil {
		if compErr := s.compensateMembership(ctx, inv.TeamID, userID); compErr != nil {
			return uuid.Nil, fmt.Errorf("failed to accept invitation: %w (compensation failed: %v)", err, compErr)
		}
		return uuid.Nil, fmt.Errorf("failed to accept invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Another accept flipped the status first. Undo our membership.
		if compErr := s.compensateMembership(ctx, inv.TeamID, userID); compErr != nil {
			return uuid.Nil, fmt.Errorf("invitation accept lost race, compensation failed: %w", compErr)
		}
		return uuid.Nil, ErrInvitationNotPending
	}

	return inv.TeamID, nil
}

// compensateMembership removes the membership row created by a failed
// accept so no half-applied state stays visible to callers.
func (s *Service) compensateMembership(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`, teamID, userID)
	if err != nil {
		log.Error().
			Err(err).
			Str("team_id", teamID.String()).
			Str("user_id", userID.String()).
			Msg("Failed to compensate membership after accept failure")
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

// Reject marks an invitation rejected. The update is scoped to the
// invitation's invited user: a user may only reject invitations addressed
// to them.
func (s *Service) Reject(ctx context.Context, invitationID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE team_invitations
		SET status = 'rejected', updated_at = NOW()
		WHERE id = $1
		  AND invited_user_id = $2
		  AND status = 'pending'
	`, invitationID, userID)
	if err != nil {
		return fmt.Errorf("failed to reject invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		inv, err := s.GetByID(ctx, invitationID)
		if err != nil {
			return err
		}
		if inv.InvitedUserID == nil || *inv.InvitedUserID != userID {
			return ErrInvitationNotFound
		}
		return ErrInvitationNotPending
	}

	return nil
}

// Cancel deletes an invitation outright. The caller must hold captain
// standing on the invitation's team.
func (s *Service) Cancel(ctx context.Context, invitationID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM team_invitations
		WHERE id = $1
	`, invitationID)
	if err != nil {
		return fmt.Errorf("failed to cancel invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvitationNotFound
	}

	return nil
}

// ExpireOld flips every pending invitation past its expiry to expired.
// Idempotent; safe to run from multiple callers or on a schedule.
func (s *Service) ExpireOld(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE team_invitations
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending'
		  AND expires_at < NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}

	return tag.RowsAffected(), nil
}
