package invitations

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/squadhub/squadhub/internal/apperrors"
	"github.com/squadhub/squadhub/internal/audit"
	"github.com/squadhub/squadhub/internal/auth"
	"github.com/squadhub/squadhub/internal/teams"
)

type CreateInvitationRequest struct {
	InvitedUserID *uuid.UUID `json:"invited_user_id,omitempty"`
}

// HandleCreate handles POST /api/v1/invitations/teams/{team_id}
func HandleCreate(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		teamID, err := uuid.Parse(chi.URLParam(r, "team_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid team ID")
			return
		}

		var req CreateInvitationRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				apperrors.WriteBadRequest(w, r, "Invalid request body")
				return
			}
		}

		// Any member can invite, not just the captain.
		guard := teams.NewService(pool)
		if err := guard.RequireMember(ctx, teamID, userID); err != nil {
			if errors.Is(err, teams.ErrNotMember) {
				apperrors.WriteForbidden(w, r, "You must be a team member to invite")
				return
			}
			log.Error().Err(err).Msg("Failed to check membership")
			apperrors.WriteInternalError(w, r, "Failed to create invitation")
			return
		}

		service := NewService(pool)
		inv, err := service.Create(ctx, teamID, userID, req.InvitedUserID)
		if err != nil {
			if errors.Is(err, ErrCodeExhausted) {
				apperrors.WriteConflict(w, r, "Could not allocate a unique invite code")
				return
			}
			log.Error().Err(err).Msg("Failed to create invitation")
			apperrors.WriteInternalError(w, r, "Failed to create invitation")
			return
		}

		if err := auditor.LogInviteCreated(ctx, teamID, userID, inv.ID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"invitation":  inv,
			"invite_code": inv.InviteCode,
			"expires_at":  inv.ExpiresAt,
		})
	}
}

// HandleListTeam handles GET /api/v1/invitations/teams/{team_id}
func HandleListTeam(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		teamID, err := uuid.Parse(chi.URLParam(r, "team_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid team ID")
			return
		}

		guard := teams.NewService(pool)
		if err := guard.RequireMember(ctx, teamID, userID); err != nil {
			if errors.Is(err, teams.ErrNotMember) {
				apperrors.WriteForbidden(w, r, "You must be a team member to view invitations")
				return
			}
			log.Error().Err(err).Msg("Failed to check membership")
			apperrors.WriteInternalError(w, r, "Failed to list invitations")
			return
		}

		service := NewService(pool)
		invs, err := service.ListTeam(ctx, teamID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list invitations")
			apperrors.WriteInternalError(w, r, "Failed to list invitations")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"invitations": invs,
		})
	}
}

// HandleCancel handles DELETE /api/v1/invitations/{invitation_id}
func HandleCancel(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		invitationID, err := uuid.Parse(chi.URLParam(r, "invitation_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invitation ID")
			return
		}

		service := NewService(pool)
		inv, err := service.GetByID(ctx, invitationID)
		if err != nil {
			if errors.Is(err, ErrInvitationNotFound) {
				apperrors.WriteNotFound(w, r, "Invitation not found")
				return
			}
			log.Error().Err(err).Msg("Failed to load invitation")
			apperrors.WriteInternalError(w, r, "Failed to cancel invitation")
			return
		}

		guard := teams.NewService(pool)
		if err := guard.RequireCaptain(ctx, inv.TeamID, userID); err != nil {
			if errors.Is(err, teams.ErrNotCaptain) || errors.Is(err, teams.ErrTeamNotFound) {
				apperrors.WriteForbidden(w, r, "Captain permission required")
				return
			}
			log.Error().Err(err).Msg("Failed to check captain")
			apperrors.WriteInternalError(w, r, "Failed to cancel invitation")
			return
		}

		if err := service.Cancel(ctx, invitationID); err != nil {
			if errors.Is(err, ErrInvitationNotFound) {
				apperrors.WriteNotFound(w, r, "Invitation not found")
				return
			}
			log.Error().Err(err).Msg("Failed to cancel invitation")
			apperrors.WriteInternalError(w, r, "Failed to cancel invitation")
			return
		}

		if err := auditor.LogInviteCancelled(ctx, inv.TeamID, userID, invitationID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"cancelled": true,
		})
	}
}

// HandlePreviewByCode handles GET /api/v1/invitations/code/{code}.
// No authentication: used to preview an invitation before joining.
func HandlePreviewByCode(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		code := NormalizeCode(chi.URLParam(r, "code"))
		if !ValidCodeFormat(code) {
			apperrors.WriteNotFound(w, r, "Invitation not found")
			return
		}

		service := NewService(pool)
		inv, err := service.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, ErrInvitationNotFound) {
				apperrors.WriteNotFound(w, r, "Invitation not found")
				return
			}
			log.Error().Err(err).Msg("Failed to load invitation")
			apperrors.WriteInternalError(w, r, "Failed to load invitation")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"invitation": map[string]any{
				"id":         inv.ID,
				"status":     inv.Status,
				"expires_at": inv.ExpiresAt,
				"team":       inv.Team,
			},
		})
	}
}

// HandleJoin handles POST /api/v1/invitations/join/{code}
func HandleJoin(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		code := chi.URLParam(r, "code")

		service := NewService(pool)
		teamID, err := service.Accept(ctx, code, userID)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvitationNotFound):
				apperrors.WriteNotFound(w, r, "Invitation not found")
			case errors.Is(err, ErrInvitationNotPending):
				apperrors.WriteConflict(w, r, "Invitation is no longer valid")
			case errors.Is(err, ErrInvitationExpired):
				apperrors.WriteConflict(w, r, "Invitation expired")
			case errors.Is(err, ErrAlreadyMember):
				apperrors.WriteConflict(w, r, "You are already a member of this team")
			default:
				log.Error().Err(err).Msg("Failed to accept invitation")
				apperrors.WriteInternalError(w, r, "Failed to join team")
			}
			return
		}

		if err := auditor.LogInviteAccepted(ctx, teamID, userID, NormalizeCode(code)); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		team, err := teams.NewService(pool).GetByID(ctx, teamID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load joined team")
			apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
				"joined":  true,
				"team_id": teamID,
			})
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"joined": true,
			"team": map[string]any{
				"id":       team.ID,
				"name":     team.Name,
				"logo_url": team.LogoURL,
			},
		})
	}
}

// HandleListMine handles GET /api/v1/invitations/my
func HandleListMine(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		service := NewService(pool)
		invs, err := service.ListForUser(ctx, userID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list invitations")
			apperrors.WriteInternalError(w, r, "Failed to list invitations")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"invitations": invs,
		})
	}
}

// HandleReject handles PATCH /api/v1/invitations/{invitation_id}/reject
func HandleReject(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		invitationID, err := uuid.Parse(chi.URLParam(r, "invitation_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invitation ID")
			return
		}

		service := NewService(pool)
		if err := service.Reject(ctx, invitationID, userID); err != nil {
			switch {
			case errors.Is(err, ErrInvitationNotFound):
				apperrors.WriteNotFound(w, r, "Invitation not found")
			case errors.Is(err, ErrInvitationNotPending):
				apperrors.WriteConflict(w, r, "Invitation is no longer valid")
			default:
				log.Error().Err(err).Msg("Failed to reject invitation")
				apperrors.WriteInternalError(w, r, "Failed to reject invitation")
			}
			return
		}

		if err := auditor.LogInviteRejected(ctx, userID, invitationID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"rejected": true,
		})
	}
}
