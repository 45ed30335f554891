package auth

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
	"github.com/squadhub/squadhub/internal/validation"
)

type RegisterTeamCredentialsRequest struct {
	TeamID   uuid.UUID `json:"team_id"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
}

type TeamLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TeamLogoutRequest struct {
	Token string `json:"token"`
}

// HandleTeamRegister handles POST /api/v1/auth/team/register
func HandleTeamRegister(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := GetUserID(ctx)

		var req RegisterTeamCredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if req.TeamID == uuid.Nil {
			apperrors.WriteBadRequest(w, r, "Team ID is required")
			return
		}
		if err := validation.ValidateEmail(req.Email); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		if len(req.Password) < 8 {
			apperrors.WriteBadRequest(w, r, "Password must be at least 8 characters")
			return
		}

		service := NewTeamAuthService(pool)
		team, err := service.RegisterCredentials(ctx, req.TeamID, userID, validation.NormalizeEmail(req.Email), req.Password)
		if err != nil {
			switch {
			case errors.Is(err, ErrTeamNotFound):
				apperrors.WriteNotFound(w, r, "Team not found")
			case errors.Is(err, ErrNotTeamCaptain):
				apperrors.WriteForbidden(w, r, "Only the team captain can register credentials")
			case errors.Is(err, ErrCredentialsExist):
				apperrors.WriteConflict(w, r, "Team credentials already exist")
			default:
				log.Error().Err(err).Msg("Failed to register team credentials")
				apperrors.WriteInternalError(w, r, "Failed to register team credentials")
			}
			return
		}

		if err := auditor.LogTeamCredentialsRegistered(ctx, req.TeamID, userID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"team": team,
		})
	}
}

// HandleTeamLogin handles POST /api/v1/auth/team/login. The caller
// authenticates with their own user token; on success they receive a
// team token to act in the team context.
func HandleTeamLogin(pool *pgxpool.Pool, auditor *audit.Writer, secret string, sessionDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := GetUserID(ctx)

		var req TeamLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			apperrors.WriteBadRequest(w, r, "Email and password are required")
			return
		}

		service := NewTeamAuthService(pool)
		token, team, err := service.Login(ctx, validation.NormalizeEmail(req.Email), req.Password, userID, secret, sessionDays)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidCredentials):
				if auditErr := auditor.LogTeamLoginFailed(ctx, validation.NormalizeEmail(req.Email), r.RemoteAddr); auditErr != nil {
					log.Error().Err(auditErr).Msg("Failed to log audit event")
				}
				apperrors.WriteUnauthorized(w, r, "Invalid email or password")
			case errors.Is(err, ErrNotTeamMember):
				apperrors.WriteForbidden(w, r, "You are not a member of this team")
			case errors.Is(err, ErrLoginNotAllowed):
				apperrors.WriteForbidden(w, r, "You do not have permission to login to this team")
			default:
				log.Error().Err(err).Msg("Failed to login to team")
				apperrors.WriteInternalError(w, r, "Failed to login to team")
			}
			return
		}

		if err := auditor.LogTeamLogin(ctx, team.ID, userID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"token": token,
			"team":  team,
		})
	}
}

// HandleTeamLogout handles POST /api/v1/auth/team/logout
func HandleTeamLogout(pool *pgxpool.Pool, auditor *audit.Writer, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req TeamLogoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			apperrors.WriteBadRequest(w, r, "Token is required")
			return
		}

		service := NewTeamAuthService(pool)
		claims, err := service.Logout(ctx, req.Token, secret)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				apperrors.WriteUnauthorized(w, r, "Invalid team token")
				return
			}
			log.Error().Err(err).Msg("Failed to logout of team")
			apperrors.WriteInternalError(w, r, "Failed to logout of team")
			return
		}

		if userID, parseErr := uuid.Parse(claims.Subject); parseErr == nil {
			if err := auditor.LogTeamLogout(ctx, claims.ContextID, userID); err != nil {
				log.Error().Err(err).Msg("Failed to log audit event")
			}
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"success": true,
		})
	}
}

// HandleTeamSessions handles GET /api/v1/auth/team/{team_id}/sessions
func HandleTeamSessions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := GetUserID(ctx)

		teamID, err := uuid.Parse(chi.URLParam(r, "team_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid team ID")
			return
		}

		service := NewTeamAuthService(pool)
		sessions, err := service.Sessions(ctx, teamID, userID)
		if err != nil {
			if errors.Is(err, ErrNotTeamMember) {
				apperrors.WriteForbidden(w, r, "You are not a member of this team")
				return
			}
			log.Error().Err(err).Msg("Failed to fetch team sessions")
			apperrors.WriteInternalError(w, r, "Failed to fetch sessions")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"sessions": sessions,
		})
	}
}
