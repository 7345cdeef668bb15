package certificate

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/store"
)

// Store is the persistence the certificate service reads.
type Store interface {
	ListCalibrations(ctx context.Context, f store.CalibrationFilter) ([]model.CalibrationRecord, error)
	GetCalibration(ctx context.Context, id string) (*model.CalibrationRecord, error)
	ApproveCalibration(ctx context.Context, id, approver string) (*model.CalibrationRecord, error)
	GetInstrument(ctx context.Context, id string) (*model.Instrument, error)
	GetSettings(ctx context.Context) (*model.Settings, error)
}

// Service serves certificate listings and documents.
type Service struct {
	store Store
	log   *zap.Logger
}

// NewService creates a certificate service.
func NewService(s Store, log *zap.Logger) *Service {
	return &Service{store: s, log: log}
}

// List returns the matching records and their stats.
func (s *Service) List(ctx context.Context, f store.CalibrationFilter) ([]model.CalibrationRecord, Stats, error) {
	records, err := s.store.ListCalibrations(ctx, f)
	if err != nil {
		return nil, Stats{}, err
	}
	return records, Summarize(records), nil
}

// Document renders the certificate of record id.
func (s *Service) Document(ctx context.Context, id string) (*Document, error) {
	rec, err := s.store.GetCalibration(ctx, id)
	if err != nil {
		return nil, err
	}
	inst, err := s.store.GetInstrument(ctx, rec.InstrumentID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	doc := Build(rec, inst, settings)
	return &doc, nil
}

// Verify checks a digest against the stored record.
func (s *Service) Verify(ctx context.Context, id, digest string) (bool, error) {
	rec, err := s.store.GetCalibration(ctx, id)
	if err != nil {
		return false, err
	}
	ok := Verify(rec, digest)
	if !ok {
		s.log.Warn("Certificate digest mismatch", zap.String("record", id))
	}
	return ok, nil
}

// Approve signs off a certificate.
func (s *Service) Approve(ctx context.Context, id, approver string) (*model.CalibrationRecord, error) {
	rec, err := s.store.ApproveCalibration(ctx, id, approver)
	if err != nil {
		return nil, err
	}
	s.log.Info("Certificate approved", zap.String("record", id), zap.String("approver", approver))
	return rec, nil
}
