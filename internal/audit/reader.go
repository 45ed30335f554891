package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Reader struct {
	pool *pgxpool.Pool
}

func NewReader(pool *pgxpool.Pool) *Reader {
	return &Reader{pool: pool}
}

type ListItem struct {
	ID          uuid.UUID      `json:"id"`
	Action      string         `json:"action"`
	TeamID      *uuid.UUID     `json:"team_id,omitempty"`
	RoomID      *uuid.UUID     `json:"room_id,omitempty"`
	ActorUserID *uuid.UUID     `json:"actor_user_id,omitempty"`
	ActorName   string         `json:"actor_name,omitempty"`
	Meta        map[string]any `json:"meta"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (r *Reader) ListByTeam(ctx context.Context, teamID uuid.UUID, limit int) ([]ListItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT
		  al.id,
		  al.team_id,
		  al.room_id,
		  al.actor_user_id,
		  p.full_name,
		  al.action,
		  al.meta,
		  al.created_at
		FROM audit_log al
		LEFT JOIN profiles p ON p.id = al.actor_user_id
		WHERE al.team_id = $1
		ORDER BY al.created_at DESC
		LIMIT $2
	`, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var out []ListItem
	for rows.Next() {
		var item ListItem
		var rowTeamID uuid.NullUUID
		var roomID uuid.NullUUID
		var actorUserID uuid.NullUUID
		var actorName *string
		var metaRaw []byte

		if err := rows.Scan(&item.ID, &rowTeamID, &roomID, &actorUserID, &actorName, &item.Action, &metaRaw, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}

		if rowTeamID.Valid {
			item.TeamID = &rowTeamID.UUID
		}
		if roomID.Valid {
			item.RoomID = &roomID.UUID
		}
		if actorUserID.Valid {
			item.ActorUserID = &actorUserID.UUID
		}
		if actorName != nil {
			item.ActorName = *actorName
		}

		item.Meta = map[string]any{}
		if len(metaRaw) > 0 {
			_ = json.Unmarshal(metaRaw, &item.Meta)
		}

		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return out, nil
}
