package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads and writes the single settings record. Load is called on
// every event so an update takes effect on the next one; no caching.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

const selectSettings = `
SELECT data
FROM notify_settings
WHERE id = 1
`

const upsertSettings = `
INSERT INTO notify_settings (id, version, data, updated_at)
VALUES (1, 1, $1, now())
ON CONFLICT (id) DO UPDATE
SET version = notify_settings.version + 1,
    data = EXCLUDED.data,
    updated_at = now()
`

type PostgresStore struct {
	pool *pgxpool.Pool
}

var ErrNotConfigured = errors.New("postgres store requires a non-nil pool")

func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, ErrNotConfigured
	}
	return &PostgresStore{pool: pool}, nil
}

func (r *PostgresStore) Load(ctx context.Context) (Settings, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, selectSettings).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s.Normalized(), nil
}

func (r *PostgresStore) Save(ctx context.Context, s Settings) error {
	data, err := json.Marshal(s.Normalized())
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := r.pool.Exec(ctx, upsertSettings, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
