package localstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	sqlite, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Storage{
		"sqlite": sqlite,
		"redis":  NewRedisStorage(client, "kiosk:"),
	}
}

func TestStorage(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetItem(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SetItem(ctx, "respondent-1", "first"))
			require.NoError(t, s.SetItem(ctx, "respondent-1", "second"))
			require.NoError(t, s.SetItem(ctx, "respondent-2", "other"))
			require.NoError(t, s.SetItem(ctx, "survey-sessions", "{}"))

			v, err := s.GetItem(ctx, "respondent-1")
			require.NoError(t, err)
			assert.Equal(t, "second", v, "last write wins")

			keys, err := s.Keys(ctx, "respondent-")
			require.NoError(t, err)
			assert.Equal(t, []string{"respondent-1", "respondent-2"}, keys)

			require.NoError(t, s.RemoveItem(ctx, "respondent-1"))
			_, err = s.GetItem(ctx, "respondent-1")
			assert.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, s.RemoveItem(ctx, "respondent-1"))
		})
	}
}
