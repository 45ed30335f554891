package integration

import (
	"context"
	"testing"

	"github.com/squadhub/squadhub/internal/posts"
	"github.com/squadhub/squadhub/internal/teams"
	"github.com/stretchr/testify/require"
)

func TestIntegration_PostLifecycle(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	author := createProfile(t, pool, "author")
	reader := createProfile(t, pool, "reader")

	service := posts.NewService(pool)

	post, err := service.Create(ctx, userPrincipal(author), "first post", posts.MediaNone, nil, nil)
	require.NoError(t, err)
	require.Equal(t, posts.AuthorUser, post.AuthorType)
	require.Equal(t, author, post.AuthorID)

	feed, err := service.Feed(ctx, reader, 0, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.False(t, feed[0].LikedByMe)

	liked, count, err := service.ToggleLike(ctx, post.ID, reader)
	require.NoError(t, err)
	require.True(t, liked)
	require.Equal(t, 1, count)

	// Toggling again removes the like
	liked, count, err = service.ToggleLike(ctx, post.ID, reader)
	require.NoError(t, err)
	require.False(t, liked)
	require.Equal(t, 0, count)

	comment, err := service.AddComment(ctx, post.ID, reader, "nice one")
	require.NoError(t, err)
	require.Equal(t, "nice one", comment.Content)

	comments, err := service.Comments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	got, err := service.GetByID(ctx, post.ID, reader)
	require.NoError(t, err)
	require.Equal(t, 1, got.CommentsCount)

	// Only the author can delete a user post
	err = service.Delete(ctx, post.ID, reader)
	require.ErrorIs(t, err, posts.ErrNotAuthor)

	require.NoError(t, service.Delete(ctx, post.ID, author))

	_, err = service.GetByID(ctx, post.ID, reader)
	require.ErrorIs(t, err, posts.ErrPostNotFound)
}

func TestIntegration_TeamPostRequiresMembership(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	captain := createProfile(t, pool, "captain")
	outsider := createProfile(t, pool, "outsider")
	teamID := createTeam(t, pool, "Publishers", captain)

	service := posts.NewService(pool)

	principal := teamPrincipal(teamID, captain)
	post, err := service.Create(ctx, principal, "team news", posts.MediaNone, nil, nil)
	require.NoError(t, err)
	require.Equal(t, posts.AuthorTeam, post.AuthorType)
	require.Equal(t, teamID, post.AuthorID)

	_, err = service.Create(ctx, teamPrincipal(teamID, outsider), "fake news", posts.MediaNone, nil, nil)
	require.ErrorIs(t, err, teams.ErrNotMember)

	// Outsiders cannot delete the team post either
	err = service.Delete(ctx, post.ID, outsider)
	require.ErrorIs(t, err, posts.ErrNotAuthor)

	require.NoError(t, service.Delete(ctx, post.ID, captain))
}
