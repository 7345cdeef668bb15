package store

import (
	"context"
	"fmt"

	"calibration-qa-backend/internal/model"
)

// CreateJob inserts a new work order.
func (s *gormStore) CreateJob(ctx context.Context, job *model.CalibrationJob) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJob fetches a work order by id.
func (s *gormStore) GetJob(ctx context.Context, id string) (*model.CalibrationJob, error) {
	var job model.CalibrationJob
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &job, nil
}

// OpenJobFor returns the unfinished job of an instrument, if any.
func (s *gormStore) OpenJobFor(ctx context.Context, instrumentID string) (*model.CalibrationJob, error) {
	var job model.CalibrationJob
	err := s.db.WithContext(ctx).
		Where("instrument_id = ? AND status <> ?", instrumentID, model.JobCompleted).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &job, nil
}

// SaveJob persists every field of job.
func (s *gormStore) SaveJob(ctx context.Context, job *model.CalibrationJob) error {
	if err := s.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// ListOpenJobs returns unfinished jobs, oldest first.
func (s *gormStore) ListOpenJobs(ctx context.Context) ([]model.CalibrationJob, error) {
	var jobs []model.CalibrationJob
	if err := s.db.WithContext(ctx).Where("status <> ?", model.JobCompleted).Order("created_at").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list open jobs: %w", err)
	}
	return jobs, nil
}

// CountOpenJobs counts unfinished jobs for the dashboard.
func (s *gormStore) CountOpenJobs(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.CalibrationJob{}).Where("status <> ?", model.JobCompleted).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count open jobs: %w", err)
	}
	return n, nil
}
