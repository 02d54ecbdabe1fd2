package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/dmfarley/bidwatch/pkg/types"
)

const documentKey = "listings"

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS listing_documents (
    id         TEXT PRIMARY KEY,
    doc        JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps the whole document as a single JSONB row, keeping
// the load/save granularity identical to the file backend while gaining
// a real database underneath.
//
// TODO(test): needs live Postgres, covered by the integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
	mu   sync.Mutex
}

// NewPostgresStore connects, pings, and ensures the schema exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, createDocumentsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Load reads the document row. No row or unparseable JSON yields an
// empty document.
func (s *PostgresStore) Load(ctx context.Context) (Document, error) {
	var data []byte
	err := s.pool.
		QueryRow(ctx, `SELECT doc FROM listing_documents WHERE id = $1`, documentKey).
		Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, nil
		}
		return nil, fmt.Errorf("loading listing document: %w", err)
	}

	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, nil
	}
	return doc, nil
}

// Save upserts the document row.
func (s *PostgresStore) Save(ctx context.Context, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding listing document: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO listing_documents (id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		documentKey, data,
	)
	if err != nil {
		return fmt.Errorf("saving listing document: %w", err)
	}
	return nil
}

// UpdateRecord applies mutate to one record under the store mutex.
func (s *PostgresStore) UpdateRecord(
	ctx context.Context,
	channelID string,
	mutate func(*domain.ListingRecord) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := applyMutation(doc, channelID, mutate); err != nil {
		return err
	}
	return s.Save(ctx, doc)
}

// CreateRecord inserts a new record for a channel not yet tracked.
func (s *PostgresStore) CreateRecord(
	ctx context.Context,
	channelID string,
	rec *domain.ListingRecord,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if _, exists := doc[channelID]; exists {
		return fmt.Errorf("channel %s already tracks a listing", channelID)
	}
	doc[channelID] = rec
	return s.Save(ctx, doc)
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
