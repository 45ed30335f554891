package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/squadhub/squadhub/internal/apperrors"
	"github.com/squadhub/squadhub/internal/audit"
	"github.com/squadhub/squadhub/internal/auth"
	"github.com/squadhub/squadhub/internal/chat"
	"github.com/squadhub/squadhub/internal/config"
	"github.com/squadhub/squadhub/internal/invitations"
	"github.com/squadhub/squadhub/internal/posts"
	"github.com/squadhub/squadhub/internal/teams"
)

// NewRouter creates and configures the Chi router with all middleware and routes
func NewRouter(pool *pgxpool.Pool, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(apperrors.RequestIDMiddleware) // Add request ID to context
	r.Use(LoggingMiddleware)             // Structured request logging
	r.Use(RecoveryMiddleware)            // Recover from panics
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.HeaderContextType, auth.HeaderContextID},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(auth.PrincipalMiddleware) // Resolve the acting principal

	// Audit writer (shared across API routes)
	auditor := audit.NewWriter(pool)

	// Health check routes (no authentication required)
	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(pool))

	// API routes - Team authentication
	r.Route("/api/v1/auth/team", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(auth.RequirePrincipal)

		r.Post("/register", auth.HandleTeamRegister(pool, auditor))
		r.With(LoginRateLimitMiddleware(cfg.LoginRateLimitRPM)).
			Post("/login", auth.HandleTeamLogin(pool, auditor, cfg.JWTSecret, cfg.SessionDays))
		r.Post("/logout", auth.HandleTeamLogout(pool, auditor, cfg.JWTSecret))
		r.Get("/{team_id}/sessions", auth.HandleTeamSessions(pool))
	})

	// API routes - Teams
	r.Route("/api/v1/teams", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(auth.RequirePrincipal)

		r.Get("/{team_id}", teams.HandleGet(pool))
		r.Get("/{team_id}/members", teams.HandleListMembers(pool))
		r.Get("/{team_id}/audit", teams.HandleAuditLog(pool))
	})

	// API routes - Invitations
	r.Route("/api/v1/invitations", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Code preview is public so invite links can render before login
		r.Get("/code/{code}", invitations.HandlePreviewByCode(pool))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequirePrincipal)

			r.Post("/teams/{team_id}", invitations.HandleCreate(pool, auditor))
			r.Get("/teams/{team_id}", invitations.HandleListTeam(pool))
			r.Get("/my", invitations.HandleListMine(pool))
			r.Post("/join/{code}", invitations.HandleJoin(pool, auditor))
			r.Patch("/{invitation_id}/reject", invitations.HandleReject(pool, auditor))
			r.Delete("/{invitation_id}", invitations.HandleCancel(pool, auditor))
		})
	})

	// API routes - Chats
	r.Route("/api/v1/chats", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(auth.RequirePrincipal)

		r.Get("/my", chat.HandleListMine(pool))
		r.Post("/direct", chat.HandleCreateDirect(pool))
		r.Get("/{room_id}", chat.HandleRoomDetails(pool))
		r.Get("/{room_id}/messages", chat.HandleMessages(pool))
		r.Post("/{room_id}/messages", chat.HandleSendMessage(pool))
		r.Post("/{room_id}/join", chat.HandleRequestJoin(pool, auditor))
		r.Get("/{room_id}/pending", chat.HandleListPending(pool))
		r.Post("/{room_id}/approve/{participant_id}", chat.HandleApprove(pool, auditor))
		r.Post("/{room_id}/reject/{participant_id}", chat.HandleReject(pool, auditor))
	})

	// API routes - Posts
	r.Route("/api/v1/posts", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(auth.RequirePrincipal)

		r.Get("/", posts.HandleFeed(pool))
		r.Post("/", posts.HandleCreate(pool))
		r.Get("/{post_id}", posts.HandleGet(pool))
		r.Delete("/{post_id}", posts.HandleDelete(pool, auditor))
		r.Post("/{post_id}/like", posts.HandleToggleLike(pool))
		r.Get("/{post_id}/comments", posts.HandleComments(pool))
		r.Post("/{post_id}/comments", posts.HandleAddComment(pool))
	})

	return r
}

// handleHealthz returns a simple liveness check
// Always returns 200 OK if the service is running
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleReadyz returns a readiness check that includes database connectivity
// Returns 200 OK if service is ready to accept traffic, 503 if not
func handleReadyz(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Check database connectivity
		if err := pool.Ping(r.Context()); err != nil {
			apperrors.WriteServiceUnavailable(w, r, "Database connection failed")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
			"status": "ready",
			"db":     "ok",
		})
	}
}
