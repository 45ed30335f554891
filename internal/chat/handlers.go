package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/squadhub/squadhub/internal/apperrors"
	"github.com/squadhub/squadhub/internal/audit"
	"github.com/squadhub/squadhub/internal/auth"
	"github.com/squadhub/squadhub/internal/teams"
)

type CreateDirectChatRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type SendMessageRequest struct {
	Content     string      `json:"content"`
	MessageType MessageType `json:"message_type,omitempty"`
	MediaURL    *string     `json:"media_url,omitempty"`
}

// writeChatAuthError maps the participant standing errors to responses.
func writeChatAuthError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, ErrNotParticipant):
		apperrors.WriteForbidden(w, r, "You are not a participant of this chat")
	case errors.Is(err, ErrParticipationPending):
		apperrors.WriteForbidden(w, r, "Your participation is pending approval")
	case errors.Is(err, ErrNotAdmin):
		apperrors.WriteForbidden(w, r, "Only admins can perform this action")
	case errors.Is(err, teams.ErrNotMember):
		apperrors.WriteForbidden(w, r, "You are not a member of this team")
	default:
		return false
	}
	return true
}

// HandleListMine handles GET /api/v1/chats/my
func HandleListMine(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		service := NewService(pool)
		chats, err := service.ListMyChats(ctx, userID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list chats")
			apperrors.WriteInternalError(w, r, "Failed to list chats")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"chats": chats,
		})
	}
}

// HandleCreateDirect handles POST /api/v1/chats/direct
func HandleCreateDirect(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var req CreateDirectChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		service := NewService(pool)
		roomID, err := service.GetOrCreateDirectRoom(ctx, userID, req.UserID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				apperrors.WriteNotFound(w, r, "User not found")
				return
			}
			log.Error().Err(err).Msg("Failed to create direct chat")
			apperrors.WriteInternalError(w, r, "Failed to create direct chat")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"room_id": roomID,
		})
	}
}

// HandleRoomDetails handles GET /api/v1/chats/{room_id}
func HandleRoomDetails(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		roomID, err := uuid.Parse(chi.URLParam(r, "room_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid room ID")
			return
		}

		service := NewService(pool)
		if err := service.VerifyParticipant(ctx, roomID, userID); err != nil {
			if writeChatAuthError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check participant")
			apperrors.WriteInternalError(w, r, "Failed to load room")
			return
		}

		details, err := service.RoomDetails(ctx, roomID, userID)
		if err != nil {
			if errors.Is(err, ErrRoomNotFound) {
				apperrors.WriteNotFound(w, r, "Chat room not found")
				return
			}
			log.Error().Err(err).Msg("Failed to load room")
			apperrors.WriteInternalError(w, r, "Failed to load room")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"room": details,
		})
	}
}

// HandleMessages handles GET /api/v1/chats/{room_id}/messages
func HandleMessages(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		roomID, err := uuid.Parse(chi.URLParam(r, "room_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid room ID")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		service := NewService(pool)
		messages, err := service.Messages(ctx, roomID, userID, limit, offset)
		if err != nil {
			if writeChatAuthError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to fetch messages")
			apperrors.WriteInternalError(w, r, "Failed to fetch messages")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"messages": messages,
		})
	}
}

// HandleSendMessage handles POST /api/v1/chats/{room_id}/messages.
// The message is authored by the acting principal: a user, or a team
// when the context headers select one.
func HandleSendMessage(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, ok := auth.PrincipalFrom(ctx)
		if !ok {
			apperrors.WriteUnauthorized(w, r, "Authentication required")
			return
		}

		roomID, err := uuid.Parse(chi.URLParam(r, "room_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid room ID")
			return
		}

		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if req.Content == "" {
			apperrors.WriteBadRequest(w, r, "Message content is required")
			return
		}

		service := NewService(pool)
		message, err := service.SendMessage(ctx, roomID, principal, req.Content, req.MessageType, req.MediaURL)
		if err != nil {
			if writeChatAuthError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to send message")
			apperrors.WriteInternalError(w, r, "Failed to send message")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"message": message,
		})
	}
}

// HandleRequestJoin handles POST /api/v1/chats/{room_id}/join
func HandleRequestJoin(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		roomID, err := uuid.Parse(chi.URLParam(r, "room_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid room ID")
			return
		}

		service := NewService(pool)
		status, err := service.RequestJoin(ctx, roomID, userID)
		if err != nil {
			if errors.Is(err, ErrRoomNotFound) {
				apperrors.WriteNotFound(w, r, "Chat room not found")
				return
			}
			log.Error().Err(err).Msg("Failed to request join")
			apperrors.WriteInternalError(w, r, "Failed to request join")
			return
		}

		if err := auditor.LogJoinRequested(ctx, roomID, userID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"status": status,
		})
	}
}

// HandleListPending handles GET /api/v1/chats/{room_id}/pending
func HandleListPending(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		roomID, err := uuid.Parse(chi.URLParam(r, "room_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid room ID")
			return
		}

		service := NewService(pool)
		requests, err := service.ListPending(ctx, roomID, userID)
		if err != nil {
			if writeChatAuthError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to fetch pending requests")
			apperrors.WriteInternalError(w, r, "Failed to fetch pending requests")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"requests": requests,
		})
	}
}

// HandleApprove handles POST /api/v1/chats/{room_id}/approve/{participant_id}
func HandleApprove(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		roomID, err := uuid.Parse(chi.URLParam(r, "room_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid room ID")
			return
		}
		participantID, err := uuid.Parse(chi.URLParam(r, "participant_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid participant ID")
			return
		}

		service := NewService(pool)
		if err := service.Approve(ctx, roomID, participantID, userID); err != nil {
			if writeChatAuthError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to approve request")
			apperrors.WriteInternalError(w, r, "Failed to approve request")
			return
		}

		if err := auditor.LogJoinApproved(ctx, roomID, userID, participantID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"success": true,
		})
	}
}

// HandleReject handles POST /api/v1/chats/{room_id}/reject/{participant_id}
func HandleReject(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		roomID, err := uuid.Parse(chi.URLParam(r, "room_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid room ID")
			return
		}
		participantID, err := uuid.Parse(chi.URLParam(r, "participant_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid participant ID")
			return
		}

		service := NewService(pool)
		if err := service.Reject(ctx, roomID, participantID, userID); err != nil {
			if writeChatAuthError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to reject request")
			apperrors.WriteInternalError(w, r, "Failed to reject request")
			return
		}

		if err := auditor.LogJoinRejected(ctx, roomID, userID, participantID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"success": true,
		})
	}
}
