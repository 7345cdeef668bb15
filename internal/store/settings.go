package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"calibration-qa-backend/internal/model"
)

// GetSettings returns the stored settings, or the defaults when none were saved.
func (s *gormStore) GetSettings(ctx context.Context) (*model.Settings, error) {
	var settings model.Settings
	err := s.db.WithContext(ctx).First(&settings, model.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := model.DefaultSettings()
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &settings, nil
}

// UpdateSettings saves the singleton settings row.
func (s *gormStore) UpdateSettings(ctx context.Context, settings *model.Settings, actor string) error {
	settings.ID = model.SettingsID
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(settings).Error; err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		details := fmt.Sprintf("Memperbarui pengaturan sistem (interval %d bulan, toleransi %.2f%%)",
			settings.DefaultIntervalMonths, settings.QATolerancePercent)
		return s.appendAudit(tx, actor, model.ActionSettings, details, "settings", "1")
	})
}
