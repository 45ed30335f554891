package posts

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
	"github.com/squadhub/squadhub/internal/validation"
)

type CreatePostRequest struct {
	Content           string    `json:"content"`
	MediaType         MediaType `json:"media_type,omitempty"`
	MediaURL          *string   `json:"media_url,omitempty"`
	MediaThumbnailURL *string   `json:"media_thumbnail_url,omitempty"`
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

// HandleFeed handles GET /api/v1/posts
func HandleFeed(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		service := NewService(pool)
		feed, err := service.Feed(ctx, userID, limit, offset)
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch feed")
			apperrors.WriteInternalError(w, r, "Failed to fetch feed")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"posts": feed,
		})
	}
}

// HandleCreate handles POST /api/v1/posts. The post is authored by the
// acting principal: the user, or a team when the context headers select one.
func HandleCreate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, ok := auth.PrincipalFrom(ctx)
		if !ok {
			apperrors.WriteUnauthorized(w, r, "Authentication required")
			return
		}

		var req CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if req.Content == "" {
			apperrors.WriteBadRequest(w, r, "Post content is required")
			return
		}
		if len(req.Content) > maxContentLength {
			apperrors.WriteBadRequest(w, r, "Post content is too long")
			return
		}
		if req.MediaURL != nil {
			if err := validation.ValidateMediaURL(*req.MediaURL); err != nil {
				apperrors.WriteBadRequest(w, r, err.Error())
				return
			}
		}

		service := NewService(pool)
		post, err := service.Create(ctx, principal, req.Content, req.MediaType, req.MediaURL, req.MediaThumbnailURL)
		if err != nil {
			if errors.Is(err, teams.ErrNotMember) {
				apperrors.WriteForbidden(w, r, "You are not a member of this team")
				return
			}
			log.Error().Err(err).Msg("Failed to create post")
			apperrors.WriteInternalError(w, r, "Failed to create post")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"post": post,
		})
	}
}

// HandleGet handles GET /api/v1/posts/{post_id}
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid post ID")
			return
		}

		service := NewService(pool)
		post, err := service.GetByID(ctx, postID, userID)
		if err != nil {
			if errors.Is(err, ErrPostNotFound) {
				apperrors.WriteNotFound(w, r, "Post not found")
				return
			}
			log.Error().Err(err).Msg("Failed to fetch post")
			apperrors.WriteInternalError(w, r, "Failed to fetch post")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"post": post,
		})
	}
}

// HandleDelete handles DELETE /api/v1/posts/{post_id}
func HandleDelete(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid post ID")
			return
		}

		service := NewService(pool)
		if err := service.Delete(ctx, postID, userID); err != nil {
			switch {
			case errors.Is(err, ErrPostNotFound):
				apperrors.WriteNotFound(w, r, "Post not found")
			case errors.Is(err, ErrNotAuthor):
				apperrors.WriteForbidden(w, r, "You cannot delete this post")
			default:
				log.Error().Err(err).Msg("Failed to delete post")
				apperrors.WriteInternalError(w, r, "Failed to delete post")
			}
			return
		}

		if err := auditor.LogPostDeleted(ctx, userID, postID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"success": true,
		})
	}
}

// HandleToggleLike handles POST /api/v1/posts/{post_id}/like
func HandleToggleLike(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid post ID")
			return
		}

		service := NewService(pool)
		liked, count, err := service.ToggleLike(ctx, postID, userID)
		if err != nil {
			if errors.Is(err, ErrPostNotFound) {
				apperrors.WriteNotFound(w, r, "Post not found")
				return
			}
			log.Error().Err(err).Msg("Failed to toggle like")
			apperrors.WriteInternalError(w, r, "Failed to toggle like")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"liked":       liked,
			"likes_count": count,
		})
	}
}

// HandleComments handles GET /api/v1/posts/{post_id}/comments
func HandleComments(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid post ID")
			return
		}

		service := NewService(pool)
		comments, err := service.Comments(ctx, postID)
		if err != nil {
			if errors.Is(err, ErrPostNotFound) {
				apperrors.WriteNotFound(w, r, "Post not found")
				return
			}
			log.Error().Err(err).Msg("Failed to fetch comments")
			apperrors.WriteInternalError(w, r, "Failed to fetch comments")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"comments": comments,
		})
	}
}

// HandleAddComment handles POST /api/v1/posts/{post_id}/comments
func HandleAddComment(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		postID, err := uuid.Parse(chi.URLParam(r, "post_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid post ID")
			return
		}

		var req AddCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
			apperrors.WriteBadRequest(w, r, "Comment content is required")
			return
		}

		service := NewService(pool)
		comment, err := service.AddComment(ctx, postID, userID, req.Content)
		if err != nil {
			if errors.Is(err, ErrPostNotFound) {
				apperrors.WriteNotFound(w, r, "Post not found")
				return
			}
			log.Error().Err(err).Msg("Failed to add comment")
			apperrors.WriteInternalError(w, r, "Failed to add comment")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"comment": comment,
		})
	}
}
