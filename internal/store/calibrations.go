package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/model"
)

// ListCalibrations returns calibration records, newest first.
func (s *gormStore) ListCalibrations(ctx context.Context, f CalibrationFilter) ([]model.CalibrationRecord, error) {
	query := s.db.WithContext(ctx).Model(&model.CalibrationRecord{})
	if f.Year != 0 && f.Month != 0 {
		from, to := calib.MonthBounds(f.Year, f.Month)
		query = query.Where("calibrated_on >= ? AND calibrated_on < ?", from, to)
	} else if f.Year != 0 {
		from := model.NewDate(f.Year, 1, 1)
		query = query.Where("calibrated_on >= ? AND calibrated_on < ?", from, from.AddMonths(12))
	}
	if !isAll(f.Parameter) {
		query = query.Where("parameter = ?", f.Parameter)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		like := "%" + term + "%"
		query = query.Where("LOWER(instrument_code) LIKE ? OR LOWER(instrument_name) LIKE ?", like, like)
	}
	if f.InstrumentID != "" {
		query = query.Where("instrument_id = ?", f.InstrumentID)
	}

	var items []model.CalibrationRecord
	if err := query.Order("calibrated_on DESC, id DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list calibrations: %w", err)
	}
	// A month without a year matches that month of every year. DATE columns
	// differ between postgres and sqlite, so this one is applied here.
	if f.Year == 0 && f.Month != 0 {
		kept := items[:0]
		for _, rec := range items {
			if rec.Date.Month() == f.Month {
				kept = append(kept, rec)
			}
		}
		items = kept
	}
	return items, nil
}

// RecentCalibrations returns the latest limit records of an instrument.
func (s *gormStore) RecentCalibrations(ctx context.Context, instrumentID string, limit int) ([]model.CalibrationRecord, error) {
	var items []model.CalibrationRecord
	err := s.db.WithContext(ctx).
		Where("instrument_id = ?", instrumentID).
		Order("calibrated_on DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history of %s: %w", instrumentID, err)
	}
	return items, nil
}

// GetCalibration fetches one record by id.
func (s *gormStore) GetCalibration(ctx context.Context, id string) (*model.CalibrationRecord, error) {
	var rec model.CalibrationRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// CompleteCalibration stores the record, rolls the instrument's dates
// forward, closes the job and appends BUAT_REKAMAN in one transaction.
func (s *gormStore) CompleteCalibration(ctx context.Context, c Completion) (*model.CalibrationRecord, error) {
	rec := c.Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inst model.Instrument
		if err := tx.First(&inst, "id = ?", c.InstrumentID).Error; err != nil {
			return notFound(err)
		}

		var count int64
		if err := tx.Model(&model.CalibrationRecord{}).Where("instrument_code = ?", inst.Code).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count records of %s: %w", inst.Code, err)
		}
		seq := int(count) + 1
		for {
			var n int64
			if err := tx.Model(&model.CalibrationRecord{}).Where("id = ?", model.RecordID(inst.Code, seq)).Count(&n).Error; err != nil {
				return fmt.Errorf("failed to check record id: %w", err)
			}
			if n == 0 {
				break
			}
			seq++
		}

		rec.ID = model.RecordID(inst.Code, seq)
		rec.CertificateNo = model.CertificateNo(rec.Date, inst.Code, seq)
		rec.InstrumentID = inst.ID
		rec.InstrumentCode = inst.Code
		rec.InstrumentName = inst.Name
		rec.Parameter = inst.Parameter
		rec.Status = model.JobCompleted
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to create calibration record: %w", err)
		}

		updates := map[string]any{
			"last_calibration": rec.Date,
			"next_calibration": rec.NextDue,
		}
		if c.Status != "" {
			updates["status"] = c.Status
		}
		if err := tx.Model(&inst).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to roll instrument %s forward: %w", inst.Code, err)
		}

		if c.Job != nil {
			c.Job.Status = model.JobCompleted
			c.Job.RecordID = rec.ID
			if err := tx.Save(c.Job).Error; err != nil {
				return fmt.Errorf("failed to close job %s: %w", c.Job.ID, err)
			}
		}

		details := fmt.Sprintf("Menambahkan rekaman kalibrasi untuk %s", inst.Code)
		return s.appendAudit(tx, c.Actor, model.ActionCreateRecord, details, "calibration", rec.ID)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ApproveCalibration signs off a record and appends SETUJUI_KERJA.
func (s *gormStore) ApproveCalibration(ctx context.Context, id, approver string) (*model.CalibrationRecord, error) {
	var rec model.CalibrationRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if rec.ApprovedAt != nil {
			return ErrAlreadyApproved
		}
		now := s.now().UTC()
		if err := tx.Model(&rec).Updates(map[string]any{"approved_by": approver, "approved_at": now}).Error; err != nil {
			return fmt.Errorf("failed to approve %s: %w", id, err)
		}
		rec.ApprovedBy = approver
		rec.ApprovedAt = &now
		details := fmt.Sprintf("Menyetujui pekerjaan kalibrasi #%s", rec.ID)
		return s.appendAudit(tx, approver, model.ActionApproveJob, details, "calibration", rec.ID)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
