package store

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gorm.io/gorm"

	"calibration-qa-backend/internal/model"
)

// ListProtocols returns the protocol items of stage, or of every stage
// when stage is empty.
func (s *gormStore) ListProtocols(ctx context.Context, stage model.QualificationStage) ([]model.ProtocolItem, error) {
	query := s.db.WithContext(ctx).Model(&model.ProtocolItem{})
	if stage != "" {
		query = query.Where("stage = ?", stage)
	}
	var items []model.ProtocolItem
	if err := query.Order("stage, id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list protocols: %w", err)
	}
	return items, nil
}

// GetProtocol fetches one protocol item.
func (s *gormStore) GetProtocol(ctx context.Context, id string) (*model.ProtocolItem, error) {
	var p model.ProtocolItem
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// CreateProtocol stores p under a fresh <STAGE>-nnn id.
func (s *gormStore) CreateProtocol(ctx context.Context, p *model.ProtocolItem, actor string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.ID == "" {
			id, err := freeID(tx, &model.ProtocolItem{}, func() string {
				return fmt.Sprintf("%s-%d", p.Stage, 100+rand.IntN(900))
			})
			if err != nil {
				return err
			}
			p.ID = id
		}
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("failed to create protocol: %w", err)
		}
		details := fmt.Sprintf("Menambahkan protokol %s %s: %s", p.Stage, p.ID, p.Title)
		return s.appendAudit(tx, actor, model.ActionProtocol, details, "protocol", p.ID)
	})
}

// UpdateProtocol replaces an existing protocol item.
func (s *gormStore) UpdateProtocol(ctx context.Context, p *model.ProtocolItem, actor string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ProtocolItem
		if err := tx.First(&existing, "id = ?", p.ID).Error; err != nil {
			return notFound(err)
		}
		p.Stage = existing.Stage
		p.CreatedAt = existing.CreatedAt
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("failed to update protocol %s: %w", p.ID, err)
		}
		details := fmt.Sprintf("Memperbarui protokol %s menjadi %s", p.ID, p.Status)
		return s.appendAudit(tx, actor, model.ActionProtocol, details, "protocol", p.ID)
	})
}

// DeleteProtocol removes a protocol item.
func (s *gormStore) DeleteProtocol(ctx context.Context, id, actor string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.ProtocolItem{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete protocol %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.appendAudit(tx, actor, model.ActionProtocol, "Menghapus protokol "+id, "protocol", id)
	})
}
