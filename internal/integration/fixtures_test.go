package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func createProfile(t *testing.T, pool *pgxpool.Pool, name string) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	email := fmt.Sprintf("%s-%s@example.com", name, randomHex(t, 4))
	err := pool.QueryRow(context.Background(), `
		INSERT INTO profiles (email, full_name)
		VALUES ($1, $2)
		RETURNING id
	`, email, name).Scan(&id)
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return id
}

func createTeam(t *testing.T, pool *pgxpool.Pool, name string, captainID uuid.UUID) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `
		INSERT INTO teams (name, captain_id)
		VALUES ($1, $2)
		RETURNING id
	`, name, captainID).Scan(&id)
	if err != nil {
		t.Fatalf("failed to create team: %v", err)
	}

	addMember(t, pool, id, captainID, true)
	return id
}

func addMember(t *testing.T, pool *pgxpool.Pool, teamID, userID uuid.UUID, canLogin bool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		INSERT INTO team_members (team_id, user_id, can_login)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id, user_id) DO NOTHING
	`, teamID, userID, canLogin)
	if err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
}

func isMember(t *testing.T, pool *pgxpool.Pool, teamID, userID uuid.UUID) bool {
	t.Helper()

	var exists bool
	err := pool.QueryRow(context.Background(), `
		SELECT EXISTS (
			SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2
		)
	`, teamID, userID).Scan(&exists)
	if err != nil {
		t.Fatalf("failed to check membership: %v", err)
	}
	return exists
}

func createGroupRoom(t *testing.T, pool *pgxpool.Pool, adminID uuid.UUID) uuid.UUID {
	t.Helper()

	var roomID uuid.UUID
	err := pool.QueryRow(context.Background(), `
		INSERT INTO chat_rooms (type, name)
		VALUES ('group', 'Test Room')
		RETURNING id
	`).Scan(&roomID)
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	_, err = pool.Exec(context.Background(), `
		INSERT INTO chat_participants (room_id, participant_id, role, status)
		VALUES ($1, $2, 'admin', 'approved')
	`, roomID, adminID)
	if err != nil {
		t.Fatalf("failed to seed room admin: %v", err)
	}

	return roomID
}

func participantStatus(t *testing.T, pool *pgxpool.Pool, roomID, userID uuid.UUID) string {
	t.Helper()

	var status string
	err := pool.QueryRow(context.Background(), `
		SELECT status FROM chat_participants
		WHERE room_id = $1 AND participant_id = $2
	`, roomID, userID).Scan(&status)
	if err != nil {
		t.Fatalf("failed to load participant status: %v", err)
	}
	return status
}

func systemMessageCount(t *testing.T, pool *pgxpool.Pool, roomID uuid.UUID) int {
	t.Helper()

	var count int
	err := pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM chat_messages
		WHERE room_id = $1 AND message_type = 'system'
	`, roomID).Scan(&count)
	if err != nil {
		t.Fatalf("failed to count system messages: %v", err)
	}
	return count
}
