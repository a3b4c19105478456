package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

const configurationColumns = `key, value, type, description, updated_by, updated_at`

// ConfigurationRepository stores the runtime feature flag overrides.
type ConfigurationRepository struct {
	db *sqlx.DB
}

func NewConfigurationRepository(db *sqlx.DB) *ConfigurationRepository {
	return &ConfigurationRepository{db: db}
}

// ListByKeys loads the persisted rows among keys, ordered by key. Keys with
// no row are simply absent from the result.
func (r *ConfigurationRepository) ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+configurationColumns+` FROM configurations WHERE key IN (?) ORDER BY key`, keys)
	if err != nil {
		return nil, fmt.Errorf("build configuration query: %w", err)
	}
	var rows []models.Configuration
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list configurations: %w", err)
	}
	return rows, nil
}

// Get returns sql.ErrNoRows when key has never been set.
func (r *ConfigurationRepository) Get(ctx context.Context, key string) (*models.Configuration, error) {
	var row models.Configuration
	if err := r.db.GetContext(ctx, &row, `SELECT `+configurationColumns+` FROM configurations WHERE key = $1`, key); err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert writes cfg, replacing any existing row for the same key.
func (r *ConfigurationRepository) Upsert(ctx context.Context, cfg *models.Configuration) error {
	cfg.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO configurations (` + configurationColumns + `)
VALUES (:key, :value, :type, :description, :updated_by, :updated_at)
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, type = EXCLUDED.type, description = EXCLUDED.description,
    updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("upsert configuration %s: %w", cfg.Key, err)
	}
	return nil
}
