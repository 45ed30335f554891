package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	EventInviteCreated   = "invite.created"
	EventInviteAccepted  = "invite.accepted"
	EventInviteRejected  = "invite.rejected"
	EventInviteCancelled = "invite.cancelled"
	EventTeamCredentials = "team.credentials_registered"
	EventTeamLogin       = "team.login"
	EventTeamLoginFailed = "team.login_failed"
	EventTeamLogout      = "team.logout"
	EventJoinRequested   = "chat.join_requested"
	EventJoinApproved    = "chat.join_approved"
	EventJoinRejected    = "chat.join_rejected"
	EventPostDeleted     = "post.deleted"
)

// Event represents an audit log entry.
type Event struct {
	ID          uuid.UUID              `db:"id"`
	TeamID      uuid.NullUUID          `db:"team_id"`
	RoomID      uuid.NullUUID          `db:"room_id"`
	ActorUserID uuid.NullUUID          `db:"actor_user_id"`
	Action      string                 `db:"action"`
	Meta        map[string]interface{} `db:"meta"`
	CreatedAt   time.Time              `db:"created_at"`
}

// Writer provides methods to write audit log entries.
type Writer struct {
	pool *pgxpool.Pool
}

func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

// LogParams contains parameters for logging an audit event.
type LogParams struct {
	TeamID      *uuid.UUID
	RoomID      *uuid.UUID
	ActorUserID *uuid.UUID
	Action      string
	Meta        map[string]interface{}
}

func (w *Writer) Log(ctx context.Context, params LogParams) error {
	metaJSON := []byte("{}")
	if params.Meta != nil {
		b, err := json.Marshal(params.Meta)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal audit meta")
			return err
		}
		metaJSON = b
	}

	query := `
		INSERT INTO audit_log (team_id, room_id, actor_user_id, action, meta)
		VALUES ($1, $2, $3, $4, $5)
	`

	teamID := toNullUUID(params.TeamID)
	roomID := toNullUUID(params.RoomID)
	actorUserID := toNullUUID(params.ActorUserID)

	_, err := w.pool.Exec(ctx, query, teamID, roomID, actorUserID, params.Action, metaJSON)
	if err != nil {
		log.Error().Err(err).Str("action", params.Action).Msg("Failed to write audit log")
		return err
	}

	log.Info().
		Str("action", params.Action).
		Interface("team_id", params.TeamID).
		Interface("room_id", params.RoomID).
		Interface("actor_user_id", params.ActorUserID).
		Msg("Audit event logged")

	return nil
}

func toNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (w *Writer) LogInviteCreated(ctx context.Context, teamID, actorUserID, inviteID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TeamID:      &teamID,
		ActorUserID: &actorUserID,
		Action:      EventInviteCreated,
		Meta: map[string]interface{}{
			"invite_id": inviteID.String(),
		},
	})
}

func (w *Writer) LogInviteAccepted(ctx context.Context, teamID, actorUserID uuid.UUID, code string) error {
	return w.Log(ctx, LogParams{
		TeamID:      &teamID,
		ActorUserID: &actorUserID,
		Action:      EventInviteAccepted,
		Meta: map[string]interface{}{
			"invite_code": code,
		},
	})
}

func (w *Writer) LogInviteRejected(ctx context.Context, actorUserID, inviteID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		ActorUserID: &actorUserID,
		Action:      EventInviteRejected,
		Meta: map[string]interface{}{
			"invite_id": inviteID.String(),
		},
	})
}

func (w *Writer) LogInviteCancelled(ctx context.Context, teamID, actorUserID, inviteID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TeamID:      &teamID,
		ActorUserID: &actorUserID,
		Action:      EventInviteCancelled,
		Meta: map[string]interface{}{
			"invite_id": inviteID.String(),
		},
	})
}

func (w *Writer) LogTeamCredentialsRegistered(ctx context.Context, teamID, actorUserID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TeamID:      &teamID,
		ActorUserID: &actorUserID,
		Action:      EventTeamCredentials,
		Meta:        map[string]interface{}{},
	})
}

func (w *Writer) LogTeamLogin(ctx context.Context, teamID, actorUserID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TeamID:      &teamID,
		ActorUserID: &actorUserID,
		Action:      EventTeamLogin,
		Meta:        map[string]interface{}{},
	})
}

func (w *Writer) LogTeamLoginFailed(ctx context.Context, email, ip string) error {
	return w.Log(ctx, LogParams{
		Action: EventTeamLoginFailed,
		Meta: map[string]interface{}{
			"email": email,
			"ip":    ip,
		},
	})
}

func (w *Writer) LogTeamLogout(ctx context.Context, teamID, actorUserID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TeamID:      &teamID,
		ActorUserID: &actorUserID,
		Action:      EventTeamLogout,
		Meta:        map[string]interface{}{},
	})
}

func (w *Writer) LogJoinRequested(ctx context.Context, roomID, actorUserID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		RoomID:      &roomID,
		ActorUserID: &actorUserID,
		Action:      EventJoinRequested,
		Meta:        map[string]interface{}{},
	})
}

func (w *Writer) LogJoinApproved(ctx context.Context, roomID, actorUserID, participantID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		RoomID:      &roomID,
		ActorUserID: &actorUserID,
		Action:      EventJoinApproved,
		Meta: map[string]interface{}{
			"participant_id": participantID.String(),
		},
	})
}

func (w *Writer) LogJoinRejected(ctx context.Context, roomID, actorUserID, participantID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		RoomID:      &roomID,
		ActorUserID: &actorUserID,
		Action:      EventJoinRejected,
		Meta: map[string]interface{}{
			"participant_id": participantID.String(),
		},
	})
}

func (w *Writer) LogPostDeleted(ctx context.Context, actorUserID, postID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		ActorUserID: &actorUserID,
		Action:      EventPostDeleted,
		Meta: map[string]interface{}{
			"post_id": postID.String(),
		},
	})
}
