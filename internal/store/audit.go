package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"calibration-qa-backend/internal/model"
)

// ListAudit returns audit entries newest first, with the total match count.
func (s *gormStore) ListAudit(ctx context.Context, f AuditFilter) ([]model.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.AuditLog{})
	if f.User != "" {
		query = query.Where("actor = ?", f.User)
	}
	if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query = query.Order("logged_at DESC")
	if f.PageSize > 0 {
		query = query.Offset(offset(f.Page, f.PageSize)).Limit(f.PageSize)
	}
	var items []model.AuditLog
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return items, total, nil
}

// AppendAudit stores a standalone entry, such as a manual note.
func (s *gormStore) AppendAudit(ctx context.Context, entry *model.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}
	if entry.User == "" {
		entry.User = model.SystemUser
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}
