package invitations

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvitationNotFound is returned when an invitation is not found
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrInvitationNotPending is returned when an invitation has already
	// reached a terminal status
	ErrInvitationNotPending = errors.New("invitation is no longer valid")

	// ErrInvitationExpired is returned when an invitation is past its expiry
	ErrInvitationExpired = errors.New("invitation expired")

	// ErrAlreadyMember is returned when the joining user already belongs
	// to the team
	ErrAlreadyMember = errors.New("already a member of this team")

	// ErrCodeExhausted is returned when code generation keeps colliding
	ErrCodeExhausted = errors.New("invite code generation retries exhausted")
)

// Status is the lifecycle state of an invitation. Invitations are created
// pending and transition to exactly one terminal status; they never revert.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Invitation represents a team invitation.
type Invitation struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	TeamID        uuid.UUID  `db:"team_id" json:"team_id"`
	InviteCode    string     `db:"invite_code" json:"invite_code"`
	InvitedUserID *uuid.UUID `db:"invited_user_id" json:"invited_user_id,omitempty"`
	Status        Status     `db:"status" json:"status"`
	ExpiresAt     time.Time  `db:"expires_at" json:"expires_at"`
	CreatedBy     *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// TeamSummary is the team display data attached to invitation previews.
type TeamSummary struct {
	ID      uuid.UUID `db:"id" json:"id"`
	Name    string    `db:"name" json:"name"`
	LogoURL *string   `db:"logo_url" json:"logo_url"`
}

// InvitationWithTeam combines an invitation with its team summary.
type InvitationWithTeam struct {
	Invitation
	Team TeamSummary `json:"team"`
}
