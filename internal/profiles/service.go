// Package profiles is the identity collaborator: it resolves display data
// for users and teams referenced by chats, posts, and admission requests.
package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrProfileNotFound is returned when a profile is not found
var ErrProfileNotFound = errors.New("profile not found")

// Display is the public display data for a user or team.
type Display struct {
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

// Profile represents a user profile row.
type Profile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url"`
}

// Service provides profile lookups
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new profile service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// GetByID retrieves a profile by user ID
func (s *Service) GetByID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var p Profile

	query := `
		SELECT id, email, full_name, avatar_url
		FROM profiles
		WHERE id = $1
	`

	err := s.pool.QueryRow(ctx, query, userID).Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

// UserDisplay resolves display data for a user. Missing profiles resolve
// to a placeholder rather than an error; enrichment never fails the
// primary operation.
func (s *Service) UserDisplay(ctx context.Context, userID uuid.UUID) Display {
	var d Display

	err := s.pool.QueryRow(ctx,
		`SELECT full_name, avatar_url FROM profiles WHERE id = $1`,
		userID,
	).Scan(&d.Name, &d.AvatarURL)
	if err != nil {
		return Display{Name: "Unknown"}
	}

	return d
}

// TeamDisplay resolves display data for a team.
func (s *Service) TeamDisplay(ctx context.Context, teamID uuid.UUID) Display {
	var d Display

	err := s.pool.QueryRow(ctx,
		`SELECT name, logo_url FROM teams WHERE id = $1`,
		teamID,
	).Scan(&d.Name, &d.AvatarURL)
	if err != nil {
		return Display{Name: "Unknown"}
	}

	return d
}
