//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dmfarley/bidwatch/internal/store"
	domain "github.com/dmfarley/bidwatch/pkg/types"
)

func setupRedis(t *testing.T) *store.RedisStore {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	s, err := store.NewRedisStore(ctx, endpoint, "", 0, "bidwatch:test:listings")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestRedisStore_EmptyLoad(t *testing.T) {
	s := setupRedis(t)

	doc, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestRedisStore_SaveLoadRoundtrip(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	doc := store.Document{"chan-1": testRecord("https://www.ebay.com/itm/123456789012")}
	require.NoError(t, s.Save(ctx, doc))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, got, "chan-1")
	assert.Equal(t, doc["chan-1"], got["chan-1"])
}

func TestRedisStore_UpdateRecord(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRecord(ctx, "chan-1", testRecord("u")))

	err := s.UpdateRecord(ctx, "chan-1", func(r *domain.ListingRecord) error {
		r.Watchers = 42
		return nil
	})
	require.NoError(t, err)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, got["chan-1"].Watchers)

	assert.ErrorIs(t,
		s.UpdateRecord(ctx, "missing", func(*domain.ListingRecord) error { return nil }),
		store.ErrNotFound,
	)
}
