package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/squadhub/squadhub/internal/auth"
	"github.com/squadhub/squadhub/internal/profiles"
	"github.com/squadhub/squadhub/internal/teams"
)

const maxMessageLength = 2000

// Service provides chat room, participant, and message operations.
// Admission transitions live in admission.go.
type Service struct {
	pool     *pgxpool.Pool
	profiles *profiles.Service
	teams    *teams.Service
}

// NewService creates a new chat service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{
		pool:     pool,
		profiles: profiles.NewService(pool),
		teams:    teams.NewService(pool),
	}
}

// VerifyParticipant fails unless the user's own participant row in the
// room is approved. Not having a row at all and having an unapproved row
// are distinct failures.
func (s *Service) VerifyParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	var status ParticipantStatus

	err := s.pool.QueryRow(ctx, `
		SELECT status FROM chat_participants
		WHERE room_id = $1 AND participant_id = $2
	`, roomID, userID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotParticipant
		}
		return fmt.Errorf("failed to check participant: %w", err)
	}

	if status != StatusApproved {
		return ErrParticipationPending
	}

	return nil
}

// VerifyAdmin fails unless the user's own participant row is
// {role: admin, status: approved}.
func (s *Service) VerifyAdmin(ctx context.Context, roomID, userID uuid.UUID) error {
	var role ParticipantRole
	var status ParticipantStatus

	err := s.pool.QueryRow(ctx, `
		SELECT role, status FROM chat_participants
		WHERE room_id = $1 AND participant_id = $2
	`, roomID, userID).Scan(&role, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotParticipant
		}
		return fmt.Errorf("failed to check participant: %w", err)
	}

	if status != StatusApproved {
		return ErrNotParticipant
	}
	if role != RoleAdmin {
		return ErrNotAdmin
	}

	return nil
}

// IsApprovedAdmin reports whether the user's participant row in the room
// is {role: admin, status: approved}.
func (s *Service) IsApprovedAdmin(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	err := s.VerifyAdmin(ctx, roomID, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotParticipant) || errors.Is(err, ErrNotAdmin) {
		return false, nil
	}
	return false, err
}

// GetOrCreateDirectRoom resolves the direct room between two users,
// creating it on first use via the get_or_create_direct_chat database
// function.
func (s *Service) GetOrCreateDirectRoom(ctx context.Context, userID, targetUserID uuid.UUID) (uuid.UUID, error) {
	if _, err := s.profiles.GetByID(ctx, targetUserID); err != nil {
		if errors.Is(err, profiles.ErrProfileNotFound) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, err
	}

	var roomID uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT get_or_create_direct_chat($1, $2)`,
		userID, targetUserID,
	).Scan(&roomID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get or create direct chat: %w", err)
	}

	return roomID, nil
}

// ListMyChats returns the rooms the user participates in as approved,
// with last-message and unread-count enrichment. Direct rooms take the
// other participant's display data.
func (s *Service) ListMyChats(ctx context.Context, userID uuid.UUID) ([]ChatSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.type, r.name, r.team_id, r.last_message_at, cp.role,
		       lm.content, lm.created_at,
		       (SELECT COUNT(*) FROM chat_messages m
		        WHERE m.room_id = r.id AND m.is_read = FALSE AND m.sender_id <> $1),
		       op.full_name, op.avatar_url
		FROM chat_participants cp
		INNER JOIN chat_rooms r ON r.id = cp.room_id
		LEFT JOIN LATERAL (
			SELECT content, created_at FROM chat_messages
			WHERE room_id = r.id
			ORDER BY created_at DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT p.full_name, p.avatar_url
			FROM chat_participants cp2
			INNER JOIN profiles p ON p.id = cp2.participant_id
			WHERE cp2.room_id = r.id
			  AND cp2.participant_id <> $1
			  AND r.type = 'direct'
			LIMIT 1
		) op ON TRUE
		WHERE cp.participant_id = $1
		  AND cp.status = 'approved'
		ORDER BY cp.joined_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []ChatSummary
	for rows.Next() {
		var c ChatSummary
		var lastContent *string
		var lastAt *time.Time
		var otherName, otherAvatar *string

		if err := rows.Scan(
			&c.ID,
			&c.Type,
			&c.Name,
			&c.TeamID,
			&c.LastMessageAt,
			&c.Role,
			&lastContent,
			&lastAt,
			&c.UnreadCount,
			&otherName,
			&otherAvatar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}

		c.LastMessage = lastContent
		if lastAt != nil {
			c.LastMessageAt = lastAt
		}
		if c.Type == RoomDirect {
			c.Name = otherName
			c.AvatarURL = otherAvatar
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}

	return chats, nil
}

// RoomDetails returns the detail view of a room for a caller who has a
// participant row in it.
func (s *Service) RoomDetails(ctx context.Context, roomID, userID uuid.UUID) (*RoomDetails, error) {
	var room Room

	err := s.pool.QueryRow(ctx, `
		SELECT id, type, name, team_id, last_message_at, created_at
		FROM chat_rooms
		WHERE id = $1
	`, roomID).Scan(&room.ID, &room.Type, &room.Name, &room.TeamID, &room.LastMessageAt, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var count int
	var isAdmin bool
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       BOOL_OR(participant_id = $2 AND role = 'admin')
		FROM chat_participants
		WHERE room_id = $1 AND status = 'approved'
	`, roomID, userID).Scan(&count, &isAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}

	return &RoomDetails{
		ID:               room.ID,
		Type:             room.Type,
		Name:             room.Name,
		TeamID:           room.TeamID,
		ParticipantCount: count,
		IsAdmin:          isAdmin,
		CreatedAt:        room.CreatedAt,
	}, nil
}

// Messages returns a page of room messages in chronological order,
// resolving sender display data and marking the caller's unread messages
// as read. The caller must be an approved participant.
func (s *Service) Messages(ctx context.Context, roomID, userID uuid.UUID, limit, offset int) ([]Message, error) {
	if err := s.VerifyParticipant(ctx, roomID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, sender_type, sender_id, content, message_type,
		       media_url, is_read, created_at
		FROM chat_messages
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, roomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID,
			&m.RoomID,
			&m.SenderType,
			&m.SenderID,
			&m.Content,
			&m.MessageType,
			&m.MediaURL,
			&m.IsRead,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	for i := range messages {
		m := &messages[i]
		display := s.senderDisplay(ctx, m.SenderType, m.SenderID)
		m.SenderName = display.Name
		m.SenderAvatar = display.AvatarURL
		m.IsOwn = m.SenderID == userID
	}

	s.markMessagesRead(ctx, roomID, userID)

	// Stored newest-first; returned in chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// SendMessage inserts a message authored by the acting principal. The
// authenticated user behind the principal must be an approved
// participant; when acting as a team, the user must additionally be a
// member of that team.
func (s *Service) SendMessage(ctx context.Context, roomID uuid.UUID, principal auth.Principal, content string, messageType MessageType, mediaURL *string) (*Message, error) {
	if content == "" || len(content) > maxMessageLength {
		return nil, fmt.Errorf("message content must be 1-%d characters", maxMessageLength)
	}
	if messageType == "" {
		messageType = MessageText
	}

	if err := s.VerifyParticipant(ctx, roomID, principal.UserID); err != nil {
		return nil, err
	}

	// Team-context actions require the underlying user to actually belong
	// to the team they speak for.
	if principal.IsTeam() {
		if err := s.teams.RequireMember(ctx, principal.ID, principal.UserID); err != nil {
			return nil, err
		}
	}

	var m Message
	err := s.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (room_id, sender_type, sender_id, content, message_type, media_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, room_id, sender_type, sender_id, content, message_type,
		          media_url, is_read, created_at
	`, roomID, string(principal.Kind), principal.ID, content, messageType, mediaURL).Scan(
		&m.ID,
		&m.RoomID,
		&m.SenderType,
		&m.SenderID,
		&m.Content,
		&m.MessageType,
		&m.MediaURL,
		&m.IsRead,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	m.IsOwn = true
	display := s.senderDisplay(ctx, m.SenderType, m.SenderID)
	m.SenderName = display.Name
	m.SenderAvatar = display.AvatarURL

	// Bookkeeping only; a failure must not fail the send.
	if _, err := s.pool.Exec(ctx,
		`UPDATE chat_rooms SET last_message_at = NOW() WHERE id = $1`,
		roomID,
	); err != nil {
		log.Warn().Err(err).Str("room_id", roomID.String()).Msg("Failed to bump room last_message_at")
	}

	return &m, nil
}

// senderDisplay resolves display data for a message sender.
func (s *Service) senderDisplay(ctx context.Context, senderType string, senderID uuid.UUID) profiles.Display {
	if senderID == SystemSenderID {
		return profiles.Display{Name: "System"}
	}
	if senderType == "team" {
		return s.profiles.TeamDisplay(ctx, senderID)
	}
	return s.profiles.UserDisplay(ctx, senderID)
}

// markMessagesRead marks other senders' messages in the room as read.
// Best effort; failures are logged, never surfaced.
func (s *Service) markMessagesRead(ctx context.Context, roomID, userID uuid.UUID) {
	_, err := s.pool.Exec(ctx, `
		UPDATE chat_messages
		SET is_read = TRUE
		WHERE room_id = $1 AND is_read = FALSE AND sender_id <> $2
	`, roomID, userID)
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID.String()).Msg("Failed to mark messages read")
	}
}

// sendSystemMessage posts a system-authored message to a room. Best
// effort; failures are logged, never escalated to the caller.
func (s *Service) sendSystemMessage(ctx context.Context, roomID uuid.UUID, content string) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (room_id, sender_type, sender_id, content, message_type)
		VALUES ($1, 'user', $2, $3, 'system')
	`, roomID, SystemSenderID, content)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("Failed to send system message")
	}
}
