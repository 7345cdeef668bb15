package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"gorm.io/gorm"

	"calibration-qa-backend/internal/model"
)

const maxIDAttempts = 20

// ListInstruments returns a page of instruments and the total match count.
func (s *gormStore) ListInstruments(ctx context.Context, f InstrumentFilter) ([]model.Instrument, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Instrument{})
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		like := "%" + term + "%"
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	if !isAll(string(f.Status)) {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count instruments: %w", err)
	}

	query = query.Order("code")
	if f.PageSize > 0 {
		query = query.Offset(offset(f.Page, f.PageSize)).Limit(f.PageSize)
	}
	var items []model.Instrument
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list instruments: %w", err)
	}
	return items, total, nil
}

// AllInstruments returns the whole registry ordered by code.
func (s *gormStore) AllInstruments(ctx context.Context) ([]model.Instrument, error) {
	var items []model.Instrument
	if err := s.db.WithContext(ctx).Order("code").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load instruments: %w", err)
	}
	return items, nil
}

// GetInstrument fetches one instrument by id.
func (s *gormStore) GetInstrument(ctx context.Context, id string) (*model.Instrument, error) {
	var inst model.Instrument
	if err := s.db.WithContext(ctx).First(&inst, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &inst, nil
}

// InstrumentsByCode indexes the registry by instrument code.
func (s *gormStore) InstrumentsByCode(ctx context.Context) (map[string]model.Instrument, error) {
	items, err := s.AllInstruments(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]model.Instrument, len(items))
	for _, inst := range items {
		byCode[inst.Code] = inst
	}
	return byCode, nil
}

// CreateInstrument registers inst under a fresh INS-nnnn id.
func (s *gormStore) CreateInstrument(ctx context.Context, inst *model.Instrument, actor string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := codeAvailable(tx, inst.Code, ""); err != nil {
			return err
		}
		if inst.ID == "" {
			id, err := freeID(tx, &model.Instrument{}, func() string {
				return fmt.Sprintf("INS-%d", 1000+rand.IntN(9000))
			})
			if err != nil {
				return err
			}
			inst.ID = id
		}
		if err := tx.Create(inst).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateCode
			}
			return fmt.Errorf("failed to create instrument %s: %w", inst.Code, err)
		}
		details := fmt.Sprintf("Menambahkan alat %s (%s)", inst.Code, inst.Name)
		return s.appendAudit(tx, actor, model.ActionAddInstrument, details, "instrument", inst.ID)
	})
}

// UpdateInstrument replaces the editable fields of an existing instrument.
func (s *gormStore) UpdateInstrument(ctx context.Context, inst *model.Instrument, actor string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Instrument
		if err := tx.First(&existing, "id = ?", inst.ID).Error; err != nil {
			return notFound(err)
		}
		if err := codeAvailable(tx, inst.Code, inst.ID); err != nil {
			return err
		}
		inst.CreatedAt = existing.CreatedAt
		if err := tx.Save(inst).Error; err != nil {
			return fmt.Errorf("failed to update instrument %s: %w", inst.ID, err)
		}

		details := fmt.Sprintf("Mengubah data alat %s", inst.Code)
		if existing.Status != inst.Status {
			details = fmt.Sprintf("Mengubah status %s menjadi %s", inst.Code, strings.ToUpper(inst.Status.Label()))
		}
		return s.appendAudit(tx, actor, model.ActionUpdateInstrument, details, "instrument", inst.ID)
	})
}

// DeleteInstrument removes an instrument. Its calibration records stay.
func (s *gormStore) DeleteInstrument(ctx context.Context, id, actor string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Instrument
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("instrument_id = ? AND status <> ?", id, model.JobCompleted).
			Delete(&model.CalibrationJob{}).Error; err != nil {
			return fmt.Errorf("failed to drop open jobs of %s: %w", id, err)
		}
		if err := tx.Exec("DELETE FROM subscription_instruments WHERE instrument_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to drop subscriptions of %s: %w", id, err)
		}
		if err := tx.Delete(&model.Instrument{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete instrument %s: %w", id, err)
		}
		details := fmt.Sprintf("Menghapus alat %s (%s)", existing.Code, existing.Name)
		return s.appendAudit(tx, actor, model.ActionDeleteInstrument, details, "instrument", id)
	})
}

// ScheduleInstruments sets the next calibration date of every id.
func (s *gormStore) ScheduleInstruments(ctx context.Context, ids []string, date model.Date, actor string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var codes []string
		if err := tx.Model(&model.Instrument{}).Where("id IN ?", ids).Order("code").Pluck("code", &codes).Error; err != nil {
			return fmt.Errorf("failed to resolve instruments: %w", err)
		}
		res := tx.Model(&model.Instrument{}).Where("id IN ?", ids).Update("next_calibration", date)
		if res.Error != nil {
			return fmt.Errorf("failed to schedule instruments: %w", res.Error)
		}
		affected = res.RowsAffected
		if affected == 0 {
			return ErrNotFound
		}
		details := fmt.Sprintf("Menetapkan jadwal kalibrasi %s untuk %s", date, strings.Join(codes, ", "))
		return s.appendAudit(tx, actor, model.ActionSchedule, details, "instrument", "")
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// ApplySchedule applies imported next-calibration dates by instrument code.
// Codes that are not registered are skipped.
func (s *gormStore) ApplySchedule(ctx context.Context, updates []ScheduleUpdate, actor string) (int64, error) {
	if len(updates) == 0 {
		return 0, ErrEmptySelection
	}
	var applied int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			res := tx.Model(&model.Instrument{}).Where("code = ?", u.Code).Update("next_calibration", u.Date)
			if res.Error != nil {
				return fmt.Errorf("failed to apply schedule for %s: %w", u.Code, res.Error)
			}
			applied += res.RowsAffected
		}
		if applied == 0 {
			return ErrEmptySelection
		}
		details := fmt.Sprintf("Mengimpor jadwal kalibrasi untuk %d alat dari CSV", applied)
		return s.appendAudit(tx, actor, model.ActionImportSchedule, details, "instrument", "")
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// ListDueBetween returns instruments whose next calibration falls in [from, to].
func (s *gormStore) ListDueBetween(ctx context.Context, from, to model.Date) ([]model.Instrument, error) {
	var items []model.Instrument
	err := s.db.WithContext(ctx).
		Where("next_calibration >= ? AND next_calibration <= ?", from, to).
		Order("next_calibration, code").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due instruments: %w", err)
	}
	return items, nil
}

// MarkOverdue flips operational instruments past their due date to
// CALIBRATION_DUE and returns the ones it changed.
func (s *gormStore) MarkOverdue(ctx context.Context, today model.Date) ([]model.Instrument, error) {
	var changed []model.Instrument
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ? AND next_calibration < ?", model.StatusOperational, today).
			Order("code").Find(&changed).Error; err != nil {
			return fmt.Errorf("failed to find overdue instruments: %w", err)
		}
		for i := range changed {
			inst := &changed[i]
			if err := tx.Model(inst).Update("status", model.StatusCalibrationDue).Error; err != nil {
				return fmt.Errorf("failed to mark %s overdue: %w", inst.Code, err)
			}
			inst.Status = model.StatusCalibrationDue
			details := fmt.Sprintf("Status %s diubah menjadi JATUH TEMPO (jatuh tempo %s)", inst.Code, inst.NextCalibration)
			if err := s.appendAudit(tx, model.SystemUser, model.ActionAutoStatus, details, "instrument", inst.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

func codeAvailable(tx *gorm.DB, code, selfID string) error {
	query := tx.Model(&model.Instrument{}).Where("code = ?", code)
	if selfID != "" {
		query = query.Where("id <> ?", selfID)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check code %s: %w", code, err)
	}
	if n > 0 {
		return ErrDuplicateCode
	}
	return nil
}

// freeID draws ids from gen until one is unused in the table of dst.
func freeID(tx *gorm.DB, dst any, gen func() string) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := gen()
		var n int64
		if err := tx.Model(dst).Where("id = ?", id).Count(&n).Error; err != nil {
			return "", fmt.Errorf("failed to check id %s: %w", id, err)
		}
		if n == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free id after %d attempts", maxIDAttempts)
}
