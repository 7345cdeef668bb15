package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"calibration-qa-backend/internal/model"
)

// SaveSubscription creates or replaces a push subscription and the set of
// instruments it follows.
func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription, instrumentIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_name"}),
		}).Omit("Instruments").Create(sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		instruments := make([]*model.Instrument, 0, len(instrumentIDs))
		if len(instrumentIDs) > 0 {
			if err := tx.Where("id IN ?", instrumentIDs).Find(&instruments).Error; err != nil {
				return fmt.Errorf("failed to resolve instruments: %w", err)
			}
		}
		if err := tx.Model(sub).Association("Instruments").Replace(instruments); err != nil {
			return fmt.Errorf("failed to replace subscribed instruments: %w", err)
		}
		return nil
	})
}

// GetSubscription loads a subscription with its instruments.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).Preload("Instruments").First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

// DeleteSubscription removes a subscription and its instrument links.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := model.PushSubscription{Endpoint: endpoint}
		if err := tx.Model(&sub).Association("Instruments").Clear(); err != nil {
			return fmt.Errorf("failed to clear subscribed instruments: %w", err)
		}
		if err := tx.Delete(&sub).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}
