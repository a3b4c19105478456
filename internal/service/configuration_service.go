package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

// Feature flag keys persisted in the configurations table.
const (
	FlagOverridesEnabled  = "overrides_enabled"
	FlagRedemptionEnabled = "redemption_enabled"
)

type configurationRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error)
	Get(ctx context.Context, key string) (*models.Configuration, error)
	Upsert(ctx context.Context, cfg *models.Configuration) error
}

type allowedConfiguration struct {
	Key         string
	Type        models.ConfigurationType
	Description string
}

var allowedConfigurationKeys = []string{
	FlagOverridesEnabled,
	FlagRedemptionEnabled,
}

var allowedConfigurations = map[string]allowedConfiguration{
	FlagOverridesEnabled: {
		Key:         FlagOverridesEnabled,
		Type:        models.ConfigurationTypeBoolean,
		Description: "Accept override_request submissions",
	},
	FlagRedemptionEnabled: {
		Key:         FlagRedemptionEnabled,
		Type:        models.ConfigurationTypeBoolean,
		Description: "Accept assignment and quiz replacement submissions",
	},
}

// ConfigurationServiceConfig carries the environment defaults for each flag.
type ConfigurationServiceConfig struct {
	Defaults models.FeatureFlags
}

// ConfigurationService manages runtime feature flags. Persisted values win over
// the environment defaults.
type ConfigurationService struct {
	repo     configurationRepository
	audit    auditLogger
	logger   *zap.Logger
	defaults map[string]string
}

// NewConfigurationService constructs a ConfigurationService.
func NewConfigurationService(repo configurationRepository, audit auditLogger, logger *zap.Logger, cfg ConfigurationServiceConfig) *ConfigurationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigurationService{
		repo:   repo,
		audit:  audit,
		logger: logger,
		defaults: map[string]string{
			FlagOverridesEnabled:  strconv.FormatBool(cfg.Defaults.OverridesEnabled),
			FlagRedemptionEnabled: strconv.FormatBool(cfg.Defaults.RedemptionEnabled),
		},
	}
}

// List returns every flag with its effective value.
func (s *ConfigurationService) List(ctx context.Context) ([]dto.ConfigurationItem, error) {
	keys := allowedKeys()
	rows, err := s.repo.ListByKeys(ctx, keys)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list configurations")
	}
	existing := make(map[string]models.Configuration, len(rows))
	for _, row := range rows {
		existing[row.Key] = row
	}

	items := make([]dto.ConfigurationItem, 0, len(keys))
	for _, key := range keys {
		meta := allowedConfigurations[key]
		item := dto.ConfigurationItem{
			Key:         key,
			Type:        string(meta.Type),
			Description: meta.Description,
			Value:       s.defaults[key],
		}
		if row, ok := existing[key]; ok {
			item.Value = row.Value
			item.Overridden = true
		}
		items = append(items, item)
	}
	return items, nil
}

// Flags resolves the effective feature flags. The result is handed to the
// request workflow on every submission.
func (s *ConfigurationService) Flags(ctx context.Context) (models.FeatureFlags, error) {
	items, err := s.List(ctx)
	if err != nil {
		return models.FeatureFlags{}, err
	}
	var flags models.FeatureFlags
	for _, item := range items {
		enabled := item.Value == "true"
		switch item.Key {
		case FlagOverridesEnabled:
			flags.OverridesEnabled = enabled
		case FlagRedemptionEnabled:
			flags.RedemptionEnabled = enabled
		}
	}
	return flags, nil
}

// Update upserts a flag value.
func (s *ConfigurationService) Update(ctx context.Context, key string, value string, actor *models.JWTClaims) (*dto.ConfigurationItem, error) {
	meta, err := s.requireAllowedKey(key)
	if err != nil {
		return nil, err
	}
	value, err = s.validateValue(meta, value)
	if err != nil {
		return nil, err
	}

	prev, err := s.repo.Get(ctx, key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Store(err, "failed to fetch configuration")
	}
	if prev != nil && prev.Type != meta.Type {
		return nil, appErrors.Clone(appErrors.ErrValidation, "configuration type mismatch")
	}

	description := meta.Description
	cfg := &models.Configuration{
		Key:         key,
		Value:       value,
		Type:        meta.Type,
		Description: &description,
		UpdatedBy:   userIDPtr(actor),
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, appErrors.Store(err, "failed to update configuration")
	}

	oldValue := s.defaults[key]
	if prev != nil {
		oldValue = prev.Value
	}
	s.emitAudit(ctx, actor, key, oldValue, value)
	s.logger.Info("feature flag updated", zap.String("key", key), zap.String("value", value))

	return &dto.ConfigurationItem{
		Key:         key,
		Value:       value,
		Type:        string(meta.Type),
		Description: meta.Description,
		Overridden:  true,
	}, nil
}

func (s *ConfigurationService) requireAllowedKey(key string) (allowedConfiguration, error) {
	meta, ok := allowedConfigurations[key]
	if !ok {
		return allowedConfiguration{}, appErrors.Clone(appErrors.ErrValidation, "unsupported configuration key")
	}
	return meta, nil
}

func (s *ConfigurationService) validateValue(meta allowedConfiguration, value string) (string, error) {
	switch meta.Type {
	case models.ConfigurationTypeBoolean:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true":
			return "true", nil
		case "false":
			return "false", nil
		default:
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s expects boolean value", meta.Key))
		}
	case models.ConfigurationTypeString:
		return strings.TrimSpace(value), nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported configuration type")
	}
}

func (s *ConfigurationService) emitAudit(ctx context.Context, actor *models.JWTClaims, key, oldValue, newValue string) {
	if s.audit == nil {
		return
	}
	oldBytes, _ := json.Marshal(map[string]string{"key": key, "value": oldValue})
	newBytes, _ := json.Marshal(map[string]string{"key": key, "value": newValue})
	log := &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     models.AuditActionConfigUpdate,
		Resource:   "configuration",
		ResourceID: &key,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "configuration-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record configuration audit", zap.Error(err))
	}
}

func allowedKeys() []string {
	keys := make([]string, len(allowedConfigurationKeys))
	copy(keys, allowedConfigurationKeys)
	return keys
}

func userIDPtr(actor *models.JWTClaims) *string {
	if actor == nil || actor.UserID == "" {
		return nil
	}
	return &actor.UserID
}
