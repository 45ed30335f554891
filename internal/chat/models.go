package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRoomNotFound is returned when a chat room is not found
	ErrRoomNotFound = errors.New("chat room not found")

	// ErrNotParticipant is returned when the caller has no participant
	// row in the room
	ErrNotParticipant = errors.New("not a participant of this chat")

	// ErrParticipationPending is returned when the caller's participant
	// row exists but has not been approved
	ErrParticipationPending = errors.New("participation pending approval")

	// ErrNotAdmin is returned when an admin-only transition is attempted
	// by a non-admin participant
	ErrNotAdmin = errors.New("only admins can perform this action")

	// ErrUserNotFound is returned when the direct-chat target does not exist
	ErrUserNotFound = errors.New("user not found")
)

// SystemSenderID is the sender attributed to system-authored messages.
var SystemSenderID = uuid.Nil

// RoomType distinguishes direct rooms from group rooms.
type RoomType string

const (
	RoomDirect RoomType = "direct"
	RoomGroup  RoomType = "group"
)

// ParticipantRole is a participant's role within a room.
type ParticipantRole string

const (
	RoleAdmin  ParticipantRole = "admin"
	RoleMember ParticipantRole = "member"
)

// ParticipantStatus is the admission state of a participant. pending is
// the initial state; approved and rejected are terminal and never revert.
type ParticipantStatus string

const (
	StatusPending  ParticipantStatus = "pending"
	StatusApproved ParticipantStatus = "approved"
	StatusRejected ParticipantStatus = "rejected"
)

// MessageType classifies a chat message.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageVideo  MessageType = "video"
	MessageSystem MessageType = "system"
)

// Room represents a chat room.
type Room struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Type          RoomType   `db:"type" json:"type"`
	Name          *string    `db:"name" json:"name"`
	TeamID        *uuid.UUID `db:"team_id" json:"team_id,omitempty"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Participant represents a room participant row.
type Participant struct {
	ID            uuid.UUID         `db:"id" json:"id"`
	RoomID        uuid.UUID         `db:"room_id" json:"room_id"`
	ParticipantID uuid.UUID         `db:"participant_id" json:"participant_id"`
	Role          ParticipantRole   `db:"role" json:"role"`
	Status        ParticipantStatus `db:"status" json:"status"`
	JoinedAt      time.Time         `db:"joined_at" json:"joined_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// PendingRequest is a pending participant enriched with display data for
// the admin review list.
type PendingRequest struct {
	ID            uuid.UUID `json:"id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Name          string    `json:"name"`
	AvatarURL     *string   `json:"avatar_url"`
	RequestedAt   time.Time `json:"requested_at"`
}

// Message represents a chat message with resolved sender display data.
type Message struct {
	ID           uuid.UUID   `json:"id"`
	RoomID       uuid.UUID   `json:"room_id"`
	SenderType   string      `json:"sender_type"`
	SenderID     uuid.UUID   `json:"sender_id"`
	SenderName   string      `json:"sender_name"`
	SenderAvatar *string     `json:"sender_avatar"`
	Content      string      `json:"content"`
	MessageType  MessageType `json:"message_type"`
	MediaURL     *string     `json:"media_url,omitempty"`
	IsRead       bool        `json:"is_read"`
	CreatedAt    time.Time   `json:"created_at"`
	IsOwn        bool        `json:"is_own"`
}

// ChatSummary is one entry in a user's chat list.
type ChatSummary struct {
	ID            uuid.UUID       `json:"id"`
	Type          RoomType        `json:"type"`
	Name          *string         `json:"name"`
	AvatarURL     *string         `json:"avatar_url"`
	TeamID        *uuid.UUID      `json:"team_id,omitempty"`
	LastMessage   *string         `json:"last_message"`
	LastMessageAt *time.Time      `json:"last_message_at"`
	UnreadCount   int             `json:"unread_count"`
	Role          ParticipantRole `json:"role"`
}

// RoomDetails is the detail view of a room for an approved participant.
type RoomDetails struct {
	ID               uuid.UUID  `json:"id"`
	Type             RoomType   `json:"type"`
	Name             *string    `json:"name"`
	TeamID           *uuid.UUID `json:"team_id,omitempty"`
	ParticipantCount int        `json:"participant_count"`
	IsAdmin          bool       `json:"is_admin"`
	CreatedAt        time.Time  `json:"created_at"`
}
