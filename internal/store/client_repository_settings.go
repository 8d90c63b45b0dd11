package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/models"
)

// Settings store keys.
const (
	settingSyncSettings    = "sync_settings"
	settingCleanupSettings = "cleanup_settings"
	settingDeviceID        = "device_id"
)

type settingsRepository struct {
	*DB
	logger *logger.Logger
}

// NewSettingsRepository constructs the key/value settings store. Values are
// stored as JSON blobs keyed by setting name.
func NewSettingsRepository(db *DB, log *logger.Logger) SettingsRepository {
	return &settingsRepository{DB: db, logger: log}
}

func (s *settingsRepository) LoadSyncSettings(ctx context.Context) (models.SyncSettings, bool, error) {
	var settings models.SyncSettings
	found, err := s.load(ctx, settingSyncSettings, &settings)
	return settings, found, err
}

func (s *settingsRepository) SaveSyncSettings(ctx context.Context, settings models.SyncSettings) error {
	return s.save(ctx, settingSyncSettings, settings)
}

func (s *settingsRepository) LoadCleanupSettings(ctx context.Context) (models.CleanupSettings, bool, error) {
	var settings models.CleanupSettings
	found, err := s.load(ctx, settingCleanupSettings, &settings)
	return settings, found, err
}

func (s *settingsRepository) SaveCleanupSettings(ctx context.Context, settings models.CleanupSettings) error {
	return s.save(ctx, settingCleanupSettings, settings)
}

func (s *settingsRepository) DeviceID(ctx context.Context) (string, error) {
	var id string
	found, err := s.load(ctx, settingDeviceID, &id)
	if err != nil {
		return "", err
	}
	if found {
		return id, nil
	}

	id = uuid.NewString()
	if err = s.save(ctx, settingDeviceID, id); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}
	s.logger.Info().
		Str("func", "settingsRepository.DeviceID").
		Str("device_id", id).
		Msg("generated new device id")

	return id, nil
}

func (s *settingsRepository) load(ctx context.Context, key string, dest any) (bool, error) {
	var raw []byte
	err := s.DB.QueryRowContext(ctx, getSetting, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load setting %q: %w", key, err)
	}

	if err = json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode setting %q: %w", key, err)
	}

	return true, nil
}

func (s *settingsRepository) save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %q: %w", key, err)
	}

	if _, err = s.DB.ExecContext(ctx, upsertSetting, key, raw); err != nil {
		return fmt.Errorf("failed to save setting %q: %w", key, err)
	}

	return nil
}
