package integration

import (
	"context"
	"testing"

	"github.com/squadhub/squadhub/internal/db"
	"github.com/stretchr/testify/require"
)

func TestIntegration_MigrationsApplyToFreshPostgres(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	for _, table := range []string{"profiles", "teams", "team_members", "team_invitations", "chat_rooms", "chat_participants", "chat_messages", "posts"} {
		var count int
		err := pool.QueryRow(context.Background(), `
			SELECT COUNT(*)
			FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		`, table).Scan(&count)
		require.NoError(t, err)
		require.Equal(t, 1, count, "expected table %s to exist", table)
	}
}

func TestIntegration_MigrationsAreIdempotent(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	// newTestDB already ran migrations once
	require.NoError(t, db.RunMigrations(context.Background(), pool))
}
