package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Admission control: the pending/approved/rejected state machine over
// chat participants. All transitions are conditional updates keyed on
// status = 'pending', so a row that has already reached a terminal state
// is never touched again — re-resolving it is a silent no-op and the
// store remains the single arbiter under concurrent calls.

// RequestJoin records a join request for a room. The row is created
// pending; re-requesting is a no-op that reports the current status.
func (s *Service) RequestJoin(ctx context.Context, roomID, userID uuid.UUID) (ParticipantStatus, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_rooms WHERE id = $1)`,
		roomID,
	).Scan(&exists); err != nil {
		return "", fmt.Errorf("failed to check room: %w", err)
	}
	if !exists {
		return "", ErrRoomNotFound
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_participants (room_id, participant_id, role, status)
		VALUES ($1, $2, 'member', 'pending')
		ON CONFLICT (room_id, participant_id) DO NOTHING
	`, roomID, userID)
	if err != nil {
		return "", fmt.Errorf("failed to request join: %w", err)
	}

	var status ParticipantStatus
	err = s.pool.QueryRow(ctx, `
		SELECT status FROM chat_participants
		WHERE room_id = $1 AND participant_id = $2
	`, roomID, userID).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("failed to load participant status: %w", err)
	}

	return status, nil
}

// ListPending returns the room's pending join requests enriched with
// requester display data. Caller must be an approved admin of the room.
func (s *Service) ListPending(ctx context.Context, roomID, callerID uuid.UUID) ([]PendingRequest, error) {
	if err := s.VerifyAdmin(ctx, roomID, callerID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, participant_id, joined_at
		FROM chat_participants
		WHERE room_id = $1 AND status = 'pending'
		ORDER BY joined_at ASC
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending requests: %w", err)
	}
	defer rows.Close()

	var requests []PendingRequest
	for rows.Next() {
		var req PendingRequest
		if err := rows.Scan(&req.ID, &req.ParticipantID, &req.RequestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending requests: %w", err)
	}

	for i := range requests {
		display := s.profiles.UserDisplay(ctx, requests[i].ParticipantID)
		requests[i].Name = display.Name
		requests[i].AvatarURL = display.AvatarURL
	}

	return requests, nil
}

// Approve transitions a pending participant to approved and announces the
// join with a system message. A row that is already resolved is left
// untouched; callers should treat a subsequent read as authoritative.
func (s *Service) Approve(ctx context.Context, roomID, participantID, callerID uuid.UUID) error {
	if err := s.VerifyAdmin(ctx, roomID, callerID); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE chat_participants
		SET status = 'approved', updated_at = NOW()
		WHERE room_id = $1
		  AND participant_id = $2
		  AND status = 'pending'
	`, roomID, participantID)
	if err != nil {
		return fmt.Errorf("failed to approve request: %w", err)
	}

	if tag.RowsAffected() > 0 {
		s.sendSystemMessage(ctx, roomID, "A new member joined the chat!")
	}

	return nil
}

// Reject transitions a pending participant to rejected. Same conditional
// pattern as Approve; no system message.
func (s *Service) Reject(ctx context.Context, roomID, participantID, callerID uuid.UUID) error {
	if err := s.VerifyAdmin(ctx, roomID, callerID); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE chat_participants
		SET status = 'rejected', updated_at = NOW()
		WHERE room_id = $1
		  AND participant_id = $2
		  AND status = 'pending'
	`, roomID, participantID)
	if err != nil {
		return fmt.Errorf("failed to reject request: %w", err)
	}

	return nil
}
