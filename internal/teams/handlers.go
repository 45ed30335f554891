package teams

import (
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
)

// HandleGet handles GET /api/v1/teams/{team_id}
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		teamID, err := uuid.Parse(chi.URLParam(r, "team_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid team ID")
			return
		}

		service := NewService(pool)
		team, err := service.GetByID(ctx, teamID)
		if err != nil {
			if errors.Is(err, ErrTeamNotFound) {
				apperrors.WriteNotFound(w, r, "Team not found")
				return
			}
			log.Error().Err(err).Msg("Failed to fetch team")
			apperrors.WriteInternalError(w, r, "Failed to fetch team")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"team": team,
		})
	}
}

// HandleListMembers handles GET /api/v1/teams/{team_id}/members
func HandleListMembers(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		teamID, err := uuid.Parse(chi.URLParam(r, "team_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid team ID")
			return
		}

		service := NewService(pool)
		if err := service.RequireMember(ctx, teamID, userID); err != nil {
			if errors.Is(err, ErrNotMember) {
				apperrors.WriteForbidden(w, r, "You are not a member of this team")
				return
			}
			log.Error().Err(err).Msg("Failed to check membership")
			apperrors.WriteInternalError(w, r, "Failed to fetch members")
			return
		}

		members, err := service.ListMembers(ctx, teamID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list members")
			apperrors.WriteInternalError(w, r, "Failed to fetch members")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"members": members,
		})
	}
}

// HandleAuditLog handles GET /api/v1/teams/{team_id}/audit. Captain only.
func HandleAuditLog(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		teamID, err := uuid.Parse(chi.URLParam(r, "team_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid team ID")
			return
		}

		service := NewService(pool)
		if err := service.RequireCaptain(ctx, teamID, userID); err != nil {
			if errors.Is(err, ErrNotCaptain) || errors.Is(err, ErrTeamNotFound) {
				apperrors.WriteForbidden(w, r, "Captain permission required")
				return
			}
			log.Error().Err(err).Msg("Failed to check captain")
			apperrors.WriteInternalError(w, r, "Failed to fetch audit log")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		events, err := audit.NewReader(pool).ListByTeam(ctx, teamID, limit)
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch audit log")
			apperrors.WriteInternalError(w, r, "Failed to fetch audit log")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"events": events,
		})
	}
}
