package teams

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrTeamNotFound is returned when a team is not found
	ErrTeamNotFound = errors.New("team not found")

	// ErrNotMember is returned when a user is not a member of a team
	ErrNotMember = errors.New("user is not a member of this team")

	// ErrNotCaptain is returned when an action requires captain standing
	ErrNotCaptain = errors.New("captain permission required")
)

// Service answers team lookups and captain/member standing questions.
// Every mutating action in the invitation and admission subsystems is
// preceded by exactly one of its checks.
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new team service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// GetByID retrieves a team by ID
func (s *Service) GetByID(ctx context.Context, teamID uuid.UUID) (*Team, error) {
	var team Team

	query := `
		SELECT id, name, logo_url, captain_id, location, play_style, created_at, updated_at
		FROM teams
		WHERE id = $1
	`

	err := s.pool.QueryRow(ctx, query, teamID).Scan(
		&team.ID,
		&team.Name,
		&team.LogoURL,
		&team.CaptainID,
		&team.Location,
		&team.PlayStyle,
		&team.CreatedAt,
		&team.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

// IsCaptain reports whether the team's captain attribute equals userID.
func (s *Service) IsCaptain(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var captainID uuid.UUID

	err := s.pool.QueryRow(ctx, `SELECT captain_id FROM teams WHERE id = $1`, teamID).Scan(&captainID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrTeamNotFound
		}
		return false, fmt.Errorf("failed to check captain: %w", err)
	}

	return captainID == userID, nil
}

// RequireCaptain fails with ErrNotCaptain unless userID is the team's captain.
func (s *Service) RequireCaptain(ctx context.Context, teamID, userID uuid.UUID) error {
	isCaptain, err := s.IsCaptain(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if !isCaptain {
		return ErrNotCaptain
	}
	return nil
}

// IsMember reports whether a membership row exists for (teamID, userID).
func (s *Service) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var exists bool

	query := `
		SELECT EXISTS (
			SELECT 1 FROM team_members
			WHERE team_id = $1 AND user_id = $2
		)
	`

	if err := s.pool.QueryRow(ctx, query, teamID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}

// RequireMember fails with ErrNotMember unless userID is a team member.
func (s *Service) RequireMember(ctx context.Context, teamID, userID uuid.UUID) error {
	isMember, err := s.IsMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotMember
	}
	return nil
}

// GetMembership loads a membership row for (teamID, userID).
// Returns ErrNotMember if none exists.
func (s *Service) GetMembership(ctx context.Context, teamID, userID uuid.UUID) (*Membership, error) {
	var m Membership

	query := `
		SELECT id, team_id, user_id, can_login, created_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`

	err := s.pool.QueryRow(ctx, query, teamID, userID).Scan(
		&m.ID,
		&m.TeamID,
		&m.UserID,
		&m.CanLogin,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &m, nil
}

// ListMembers retrieves all members of a team with display data.
func (s *Service) ListMembers(ctx context.Context, teamID uuid.UUID) ([]MemberInfo, error) {
	query := `
		SELECT m.user_id, p.full_name, p.avatar_url, m.can_login, m.created_at
		FROM team_members m
		INNER JOIN profiles p ON m.user_id = p.id
		WHERE m.team_id = $1
		ORDER BY m.created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []MemberInfo
	for rows.Next() {
		var member MemberInfo
		err := rows.Scan(
			&member.UserID,
			&member.FullName,
			&member.AvatarURL,
			&member.CanLogin,
			&member.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}
