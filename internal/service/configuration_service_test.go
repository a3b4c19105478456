package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

type configurationRepoStub struct {
	items map[string]models.Configuration
	err   error
}

func (s *configurationRepoStub) ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := []models.Configuration{}
	for _, key := range keys {
		if cfg, ok := s.items[key]; ok {
			result = append(result, cfg)
		}
	}
	return result, nil
}

func (s *configurationRepoStub) Get(ctx context.Context, key string) (*models.Configuration, error) {
	if s.err != nil {
		return nil, s.err
	}
	if cfg, ok := s.items[key]; ok {
		return &cfg, nil
	}
	return nil, sql.ErrNoRows
}

func (s *configurationRepoStub) Upsert(ctx context.Context, cfg *models.Configuration) error {
	if s.err != nil {
		return s.err
	}
	if s.items == nil {
		s.items = make(map[string]models.Configuration)
	}
	s.items[cfg.Key] = *cfg
	return nil
}

var configAdmin = &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}

func TestConfigurationServiceUpdateBoolean(t *testing.T) {
	repo := &configurationRepoStub{}
	audit := &auditRecorder{}
	service := NewConfigurationService(repo, audit, nil, ConfigurationServiceConfig{})
	item, err := service.Update(context.Background(), FlagRedemptionEnabled, " TRUE ", configAdmin)
	require.NoError(t, err)
	assert.Equal(t, "true", item.Value)
	assert.Equal(t, "BOOLEAN", item.Type)
	assert.Equal(t, "true", repo.items[FlagRedemptionEnabled].Value)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionConfigUpdate, audit.logs[0].Action)
}

func TestConfigurationServiceUpdateRejectsInvalidInput(t *testing.T) {
	service := NewConfigurationService(&configurationRepoStub{}, nil, nil, ConfigurationServiceConfig{})

	_, err := service.Update(context.Background(), "unknown_key", "true", configAdmin)
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, err = service.Update(context.Background(), FlagOverridesEnabled, "sometimes", configAdmin)
	requireCode(t, err, appErrors.ErrValidation.Code)
}

func TestConfigurationServiceUpdateHandlesRepoError(t *testing.T) {
	repo := &configurationRepoStub{err: errors.New("db down")}
	service := NewConfigurationService(repo, nil, nil, ConfigurationServiceConfig{})
	_, err := service.Update(context.Background(), FlagOverridesEnabled, "false", configAdmin)
	requireCode(t, err, appErrors.ErrStoreUnavailable.Code)
}

func TestConfigurationServiceFlagsPreferPersistedValues(t *testing.T) {
	repo := &configurationRepoStub{
		items: map[string]models.Configuration{
			FlagRedemptionEnabled: {Key: FlagRedemptionEnabled, Value: "false", Type: models.ConfigurationTypeBoolean},
			"other_key":           {Key: "other_key", Value: "secret", Type: models.ConfigurationTypeString},
		},
	}
	service := NewConfigurationService(repo, nil, nil, ConfigurationServiceConfig{
		Defaults: models.FeatureFlags{OverridesEnabled: true, RedemptionEnabled: true},
	})

	flags, err := service.Flags(context.Background())
	require.NoError(t, err)
	assert.True(t, flags.OverridesEnabled)
	assert.False(t, flags.RedemptionEnabled)

	items, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, len(allowedConfigurationKeys))
	for _, item := range items {
		assert.NotEqual(t, "other_key", item.Key)
		assert.Equal(t, item.Key == FlagRedemptionEnabled, item.Overridden, item.Key)
	}
}
