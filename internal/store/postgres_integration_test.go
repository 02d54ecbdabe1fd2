//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dmfarley/bidwatch/internal/store"
	domain "github.com/dmfarley/bidwatch/pkg/types"
)

func setupPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("bidwatch_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.NewPostgresStore(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestPostgresStore_EmptyLoad(t *testing.T) {
	s := setupPostgres(t)

	doc, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestPostgresStore_SaveLoadRoundtrip(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	doc := store.Document{"chan-1": testRecord("https://www.ebay.com/itm/123456789012")}
	require.NoError(t, s.Save(ctx, doc))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, got, "chan-1")
	assert.Equal(t, doc["chan-1"], got["chan-1"])

	// Second save replaces, not appends.
	doc["chan-1"].BidCount = 11
	require.NoError(t, s.Save(ctx, doc))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, got["chan-1"].BidCount)
}

func TestPostgresStore_UpdateRecord(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRecord(ctx, "chan-1", testRecord("u")))

	err := s.UpdateRecord(ctx, "chan-1", func(r *domain.ListingRecord) error {
		r.Status = domain.StatusEnded
		return nil
	})
	require.NoError(t, err)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, got["chan-1"].Status)

	assert.ErrorIs(t,
		s.UpdateRecord(ctx, "missing", func(*domain.ListingRecord) error { return nil }),
		store.ErrNotFound,
	)
}

func TestPostgresStore_Ping(t *testing.T) {
	s := setupPostgres(t)
	assert.NoError(t, s.Ping(context.Background()))
}
