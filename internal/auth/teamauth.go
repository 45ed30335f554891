package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	// ErrTeamNotFound is returned when the target team does not exist
	ErrTeamNotFound = errors.New("team not found")

	// ErrNotTeamCaptain is returned when a captain-only operation is
	// attempted by another user
	ErrNotTeamCaptain = errors.New("only the team captain can perform this action")

	// ErrNotTeamMember is returned when the acting user is not a member
	// of the team
	ErrNotTeamMember = errors.New("not a member of this team")

	// ErrCredentialsExist is returned when a team already has credentials
	ErrCredentialsExist = errors.New("team credentials already exist")

	// ErrInvalidCredentials is returned on a failed team login
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrLoginNotAllowed is returned when the member's can_login flag is off
	ErrLoginNotAllowed = errors.New("you do not have permission to login to this team")
)

// TeamSummary is the team payload returned by team-auth operations.
type TeamSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	LogoURL *string   `json:"logo_url"`
}

// TeamSession is an active team login session.
type TeamSession struct {
	UserID       uuid.UUID `json:"user_id"`
	FullName     string    `json:"full_name"`
	AvatarURL    *string   `json:"avatar_url"`
	LoggedInAt   time.Time `json:"logged_in_at"`
	LastActivity time.Time `json:"last_activity"`
}

// TeamAuthService owns team credentials and team login sessions. Team
// logins produce a signed token that lets a member act as the team.
type TeamAuthService struct {
	pool *pgxpool.Pool
}

// NewTeamAuthService creates a new team auth service
func NewTeamAuthService(pool *pgxpool.Pool) *TeamAuthService {
	return &TeamAuthService{pool: pool}
}

// RegisterCredentials creates login credentials for a team. Captain only;
// a team holds at most one credential set.
func (s *TeamAuthService) RegisterCredentials(ctx context.Context, teamID, userID uuid.UUID, email, password string) (*TeamSummary, error) {
	team, captainID, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if captainID != userID {
		return nil, ErrNotTeamCaptain
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM team_credentials WHERE team_id = $1)`,
		teamID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check credentials: %w", err)
	}
	if exists {
		return nil, ErrCredentialsExist
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO team_credentials (team_id, email, password_hash)
		VALUES ($1, $2, $3)
	`, teamID, email, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to create team credentials: %w", err)
	}

	return team, nil
}

// Login authenticates a user into a team context. The user must be a
// member with the can_login flag set; on success a signed team token is
// issued and a team session recorded. Session bookkeeping is
// non-critical: its failure is logged and the login still succeeds.
func (s *TeamAuthService) Login(ctx context.Context, email, password string, userID uuid.UUID, secret string, sessionDays int) (string, *TeamSummary, error) {
	var teamID uuid.UUID
	var passwordHash string

	err := s.pool.QueryRow(ctx,
		`SELECT team_id, password_hash FROM team_credentials WHERE email = $1`,
		email,
	).Scan(&teamID, &passwordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	if !CheckPassword(password, passwordHash) {
		return "", nil, ErrInvalidCredentials
	}

	var canLogin bool
	err = s.pool.QueryRow(ctx,
		`SELECT can_login FROM team_members WHERE team_id = $1 AND user_id = $2`,
		teamID, userID,
	).Scan(&canLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrNotTeamMember
		}
		return "", nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !canLogin {
		return "", nil, ErrLoginNotAllowed
	}

	team, _, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return "", nil, err
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO team_sessions (team_id, user_id, active, logged_in_at, last_activity)
		VALUES ($1, $2, TRUE, NOW(), NOW())
		ON CONFLICT (team_id, user_id)
		DO UPDATE SET active = TRUE, logged_in_at = NOW(), last_activity = NOW()
	`, teamID, userID); err != nil {
		log.Error().Err(err).Str("team_id", teamID.String()).Msg("Failed to record team session")
	}

	token, err := CreateTeamToken(userID, teamID, secret, sessionDays)
	if err != nil {
		return "", nil, err
	}

	return token, team, nil
}

// Logout deactivates the team session behind a team token and returns
// the token's claims.
func (s *TeamAuthService) Logout(ctx context.Context, tokenString, secret string) (*TeamClaims, error) {
	claims, err := ValidateTeamToken(tokenString, secret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if _, err := s.pool.Exec(ctx, `
		UPDATE team_sessions
		SET active = FALSE
		WHERE team_id = $1 AND user_id = $2
	`, claims.ContextID, userID); err != nil {
		log.Error().Err(err).Str("team_id", claims.ContextID.String()).Msg("Failed to deactivate team session")
	}

	return claims, nil
}

// Sessions lists the team's active login sessions with member display
// data. The caller must be a member of the team.
func (s *TeamAuthService) Sessions(ctx context.Context, teamID, userID uuid.UUID) ([]TeamSession, error) {
	var isMember bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`,
		teamID, userID,
	).Scan(&isMember)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotTeamMember
	}

	rows, err := s.pool.Query(ctx, `
		SELECT ts.user_id, p.full_name, p.avatar_url, ts.logged_in_at, ts.last_activity
		FROM team_sessions ts
		INNER JOIN profiles p ON p.id = ts.user_id
		WHERE ts.team_id = $1 AND ts.active = TRUE
		ORDER BY ts.logged_in_at DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer rows.Close()

	var sessions []TeamSession
	for rows.Next() {
		var session TeamSession
		if err := rows.Scan(
			&session.UserID,
			&session.FullName,
			&session.AvatarURL,
			&session.LoggedInAt,
			&session.LastActivity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

func (s *TeamAuthService) loadTeam(ctx context.Context, teamID uuid.UUID) (*TeamSummary, uuid.UUID, error) {
	var team TeamSummary
	var captainID uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, logo_url, captain_id FROM teams WHERE id = $1`,
		teamID,
	).Scan(&team.ID, &team.Name, &team.LogoURL, &captainID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, uuid.Nil, ErrTeamNotFound
		}
		return nil, uuid.Nil, fmt.Errorf("failed to load team: %w", err)
	}
	return &team, captainID, nil
}
