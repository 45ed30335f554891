package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/squadhub/squadhub/internal/auth"
	"github.com/squadhub/squadhub/internal/profiles"
	"github.com/squadhub/squadhub/internal/teams"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 50
	maxContentLength = 5000
)

// Service provides post feed operations
type Service struct {
	pool     *pgxpool.Pool
	profiles *profiles.Service
	teams    *teams.Service
}

// NewService creates a new posts service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{
		pool:     pool,
		profiles: profiles.NewService(pool),
		teams:    teams.NewService(pool),
	}
}

// Feed returns the newest posts with like state resolved for the viewer.
func (s *Service) Feed(ctx context.Context, viewerID uuid.UUID, limit, offset int) ([]Post, error) {
	if limit <= 0 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.author_type, p.author_id, p.content,
		       p.media_type, p.media_url, p.media_thumbnail_url,
		       p.likes_count, p.comments_count, p.created_at,
		       EXISTS (
		           SELECT 1 FROM post_likes pl
		           WHERE pl.post_id = p.id AND pl.user_id = $1
		       ) AS liked_by_me
		FROM posts p
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`, viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer rows.Close()

	var feed []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(
			&p.ID, &p.AuthorType, &p.AuthorID, &p.Content,
			&p.MediaType, &p.MediaURL, &p.MediaThumbnailURL,
			&p.LikesCount, &p.CommentsCount, &p.CreatedAt,
			&p.LikedByMe,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		feed = append(feed, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	for i := range feed {
		s.resolveAuthor(ctx, &feed[i])
	}

	return feed, nil
}

// Create publishes a post authored by the acting principal. Posting as a
// team requires the acting user to be a member of that team.
func (s *Service) Create(ctx context.Context, principal auth.Principal, content string, mediaType MediaType, mediaURL, thumbnailURL *string) (*Post, error) {
	if principal.IsTeam() {
		if err := s.teams.RequireMember(ctx, principal.ID, principal.UserID); err != nil {
			return nil, err
		}
	}

	if mediaType == "" {
		mediaType = MediaNone
	}

	var p Post
	err := s.pool.QueryRow(ctx, `
		INSERT INTO posts (author_type, author_id, content, media_type, media_url, media_thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, author_type, author_id, content, media_type, media_url,
		          media_thumbnail_url, likes_count, comments_count, created_at
	`, string(principal.Kind), principal.ID, content, mediaType, mediaURL, thumbnailURL).Scan(
		&p.ID, &p.AuthorType, &p.AuthorID, &p.Content, &p.MediaType, &p.MediaURL,
		&p.MediaThumbnailURL, &p.LikesCount, &p.CommentsCount, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.resolveAuthor(ctx, &p)
	return &p, nil
}

// GetByID returns a single post with like state for the viewer.
func (s *Service) GetByID(ctx context.Context, postID, viewerID uuid.UUID) (*Post, error) {
	var p Post
	err := s.pool.QueryRow(ctx, `
		SELECT p.id, p.author_type, p.author_id, p.content,
		       p.media_type, p.media_url, p.media_thumbnail_url,
		       p.likes_count, p.comments_count, p.created_at,
		       EXISTS (
		           SELECT 1 FROM post_likes pl
		           WHERE pl.post_id = p.id AND pl.user_id = $2
		       ) AS liked_by_me
		FROM posts p
		WHERE p.id = $1
	`, postID, viewerID).Scan(
		&p.ID, &p.AuthorType, &p.AuthorID, &p.Content,
		&p.MediaType, &p.MediaURL, &p.MediaThumbnailURL,
		&p.LikesCount, &p.CommentsCount, &p.CreatedAt,
		&p.LikedByMe,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}

	s.resolveAuthor(ctx, &p)
	return &p, nil
}

// Delete removes a post. User posts can only be deleted by their author;
// team posts by any member of the authoring team.
func (s *Service) Delete(ctx context.Context, postID, userID uuid.UUID) error {
	var authorType AuthorType
	var authorID uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT author_type, author_id FROM posts WHERE id = $1`,
		postID,
	).Scan(&authorType, &authorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to fetch post: %w", err)
	}

	switch authorType {
	case AuthorUser:
		if authorID != userID {
			return ErrNotAuthor
		}
	case AuthorTeam:
		if err := s.teams.RequireMember(ctx, authorID, userID); err != nil {
			if errors.Is(err, teams.ErrNotMember) {
				return ErrNotAuthor
			}
			return err
		}
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}

// ToggleLike likes the post if the user has not liked it, unlikes it
// otherwise, and keeps the denormalized counter in step. Returns the new
// liked state and like count.
func (s *Service) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`,
		postID,
	).Scan(&exists); err != nil {
		return false, 0, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return false, 0, ErrPostNotFound
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`, postID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to like post: %w", err)
	}

	liked := tag.RowsAffected() > 0
	if !liked {
		if _, err := s.pool.Exec(ctx,
			`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
			postID, userID,
		); err != nil {
			return false, 0, fmt.Errorf("failed to unlike post: %w", err)
		}
	}

	delta := -1
	if liked {
		delta = 1
	}
	var count int
	err = s.pool.QueryRow(ctx, `
		UPDATE posts
		SET likes_count = GREATEST(likes_count + $2, 0)
		WHERE id = $1
		RETURNING likes_count
	`, postID, delta).Scan(&count)
	if err != nil {
		return false, 0, fmt.Errorf("failed to update like count: %w", err)
	}

	return liked, count, nil
}

// Comments returns a post's comments in chronological order.
func (s *Service) Comments(ctx context.Context, postID uuid.UUID) ([]Comment, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`,
		postID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		       p.full_name, p.avatar_url
		FROM post_comments c
		INNER JOIN profiles p ON p.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt,
			&c.AuthorName, &c.AuthorAvatar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

// AddComment appends a comment and bumps the post's comment counter.
func (s *Service) AddComment(ctx context.Context, postID, userID uuid.UUID, content string) (*Comment, error) {
	var c Comment
	err := s.pool.QueryRow(ctx, `
		INSERT INTO post_comments (post_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, post_id, user_id, content, created_at
	`, postID, userID, content).Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	if _, err := s.pool.Exec(ctx,
		`UPDATE posts SET comments_count = comments_count + 1 WHERE id = $1`,
		postID,
	); err != nil {
		return nil, fmt.Errorf("failed to update comment count: %w", err)
	}

	display := s.profiles.UserDisplay(ctx, userID)
	c.AuthorName = display.Name
	c.AuthorAvatar = display.AvatarURL

	return &c, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func (s *Service) resolveAuthor(ctx context.Context, p *Post) {
	var display profiles.Display
	if p.AuthorType == AuthorTeam {
		display = s.profiles.TeamDisplay(ctx, p.AuthorID)
	} else {
		display = s.profiles.UserDisplay(ctx, p.AuthorID)
	}
	p.AuthorName = display.Name
	p.AuthorAvatar = display.AvatarURL
}
