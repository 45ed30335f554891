package teams

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a team in the system. The captain is a privileged
// single-owner role used for authorization; this subsystem never mutates
// it.
type Team struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	LogoURL   *string   `db:"logo_url" json:"logo_url"`
	CaptainID uuid.UUID `db:"captain_id" json:"captain_id"`
	Location  *string   `db:"location" json:"location"`
	PlayStyle *string   `db:"play_style" json:"play_style"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Membership represents a user's membership in a team, unique on
// (team_id, user_id). Rows are created only by direct addition or
// invitation acceptance.
type Membership struct {
	ID        uuid.UUID `db:"id"`
	TeamID    uuid.UUID `db:"team_id"`
	UserID    uuid.UUID `db:"user_id"`
	CanLogin  bool      `db:"can_login"`
	CreatedAt time.Time `db:"created_at"`
}

// MemberInfo combines a membership with the member's display data.
type MemberInfo struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url"`
	CanLogin  bool      `db:"can_login" json:"can_login"`
	JoinedAt  time.Time `db:"created_at" json:"joined_at"`
}
