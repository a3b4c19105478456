package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

func newConfigurationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestConfigurationRepositoryListByKeys(t *testing.T) {
	db, mock, cleanup := newConfigurationRepoMock(t)
	defer cleanup()

	repo := NewConfigurationRepository(db)
	rows := sqlmock.NewRows([]string{"key", "value", "type", "description", "updated_by", "updated_at"}).
		AddRow("redemption_enabled", "false", "BOOLEAN", "desc", "admin", time.Now())
	mock.ExpectQuery(`SELECT key, value, type, description, updated_by, updated_at FROM configurations WHERE key IN \(\$1, \$2\)`).
		WithArgs("overrides_enabled", "redemption_enabled").
		WillReturnRows(rows)

	result, err := repo.ListByKeys(context.Background(), []string{"overrides_enabled", "redemption_enabled"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "false", result[0].Value)

	empty, err := repo.ListByKeys(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigurationRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newConfigurationRepoMock(t)
	defer cleanup()
	mock.ExpectQuery("FROM configurations WHERE key = \\$1").
		WithArgs("overrides_enabled").
		WillReturnError(sql.ErrNoRows)

	_, err := NewConfigurationRepository(db).Get(context.Background(), "overrides_enabled")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestConfigurationRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newConfigurationRepoMock(t)
	defer cleanup()
	repo := NewConfigurationRepository(db)
	mock.ExpectExec("INSERT INTO configurations").
		WithArgs("overrides_enabled", "true", "BOOLEAN", sqlmock.AnyArg(), "admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	cfg := &models.Configuration{
		Key:       "overrides_enabled",
		Value:     "true",
		Type:      models.ConfigurationTypeBoolean,
		UpdatedBy: strPtr("admin"),
	}
	require.NoError(t, repo.Upsert(context.Background(), cfg))
	assert.False(t, cfg.UpdatedAt.IsZero())
}
