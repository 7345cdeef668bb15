package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/store"
)

// Store is the persistence the workflow needs.
type Store interface {
	GetInstrument(ctx context.Context, id string) (*model.Instrument, error)
	GetSettings(ctx context.Context) (*model.Settings, error)
	CreateJob(ctx context.Context, job *model.CalibrationJob) error
	GetJob(ctx context.Context, id string) (*model.CalibrationJob, error)
	OpenJobFor(ctx context.Context, instrumentID string) (*model.CalibrationJob, error)
	SaveJob(ctx context.Context, job *model.CalibrationJob) error
	CompleteCalibration(ctx context.Context, c store.Completion) (*model.CalibrationRecord, error)
}

// Service runs calibration jobs.
type Service struct {
	store Store
	loc   *time.Location
	log   *zap.Logger
}

// NewService creates a workflow service. Dates default to loc.
func NewService(s Store, loc *time.Location, log *zap.Logger) *Service {
	return &Service{store: s, loc: loc, log: log}
}

// Start opens a job for an instrument, or returns the one already open.
func (s *Service) Start(ctx context.Context, instrumentID, officer string) (*model.CalibrationJob, error) {
	if _, err := s.store.GetInstrument(ctx, instrumentID); err != nil {
		return nil, err
	}
	open, err := s.store.OpenJobFor(ctx, instrumentID)
	if err == nil {
		return open, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	job := &model.CalibrationJob{
		ID:           uuid.NewString(),
		InstrumentID: instrumentID,
		Step:         model.StepCondition,
		Status:       model.JobOngoing,
		CalDate:      calib.Today(s.loc),
		Officer:      officer,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	s.log.Info("Calibration job started", zap.String("job", job.ID), zap.String("instrument", instrumentID), zap.String("officer", officer))
	return job, nil
}

// Get returns a job.
func (s *Service) Get(ctx context.Context, jobID string) (*model.CalibrationJob, error) {
	return s.store.GetJob(ctx, jobID)
}

// Condition submits step 1.
func (s *Service) Condition(ctx context.Context, jobID string, in ConditionInput) (*model.CalibrationJob, error) {
	return s.mutate(ctx, jobID, func(job *model.CalibrationJob) error {
		return SubmitCondition(job, in)
	})
}

// Testing submits step 2.
func (s *Service) Testing(ctx context.Context, jobID string, readings []model.Reading) (*model.CalibrationJob, error) {
	return s.mutate(ctx, jobID, func(job *model.CalibrationJob) error {
		inst, err := s.store.GetInstrument(ctx, job.InstrumentID)
		if err != nil {
			return err
		}
		spec, err := calib.SpecFor(inst)
		if err != nil {
			return calib.ValidationErrors{"tolerance": err.Error()}
		}
		return SubmitReadings(job, readings, spec)
	})
}

// Back steps the job back once.
func (s *Service) Back(ctx context.Context, jobID string) (*model.CalibrationJob, error) {
	return s.mutate(ctx, jobID, Back)
}

func (s *Service) mutate(ctx context.Context, jobID string, fn func(*model.CalibrationJob) error) (*model.CalibrationJob, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := fn(job); err != nil {
		return nil, err
	}
	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Complete verifies step 3 and persists the calibration record.
func (s *Service) Complete(ctx context.Context, jobID string, in VerifyInput, actor string) (*model.CalibrationRecord, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := Verify(job, in); err != nil {
		return nil, err
	}

	months, err := s.intervalMonths(ctx)
	if err != nil {
		return nil, err
	}

	summary := calib.Summarize(job.Readings)
	result, status := Outcome(job.Conclusion, job.Readings)
	rec := model.CalibrationRecord{
		Date:       job.CalDate,
		NextDue:    calib.NextDue(job.CalDate, months),
		Engineer:   job.Officer,
		AsFound:    summary.AsFound,
		AsLeft:     summary.AsLeft,
		Deviation:  summary.Deviation,
		Result:     result,
		Conclusion: job.Conclusion,
		Readings:   job.Readings,
		Notes:      job.Notes,
	}
	if job.EnvTemp != nil {
		rec.EnvTemp = *job.EnvTemp
	}
	if job.EnvRH != nil {
		rec.EnvRH = *job.EnvRH
	}

	saved, err := s.store.CompleteCalibration(ctx, store.Completion{
		InstrumentID: job.InstrumentID,
		Record:       rec,
		Status:       status,
		Job:          job,
		Actor:        actor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	s.log.Info("Calibration completed",
		zap.String("job", jobID),
		zap.String("record", saved.ID),
		zap.String("conclusion", string(saved.Conclusion)),
		zap.String("next_due", saved.NextDue.String()))
	return saved, nil
}

// QuickSubmit records a calibration on date without the step-by-step
// wizard: the instrument becomes operational and its next date rolls
// forward by the configured interval.
func (s *Service) QuickSubmit(ctx context.Context, instrumentID string, date model.Date, actor string) (*model.CalibrationRecord, error) {
	if date.IsZero() {
		return nil, calib.ValidationErrors{"calDate": "Tanggal kalibrasi wajib diisi"}
	}
	months, err := s.intervalMonths(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.CompleteCalibration(ctx, store.Completion{
		InstrumentID: instrumentID,
		Record: model.CalibrationRecord{
			Date:       date,
			NextDue:    calib.NextDue(date, months),
			Engineer:   actor,
			Result:     model.ResultPass,
			Conclusion: model.ConclusionMS,
		},
		Status: model.StatusOperational,
		Actor:  actor,
	})
}

func (s *Service) intervalMonths(ctx context.Context) (int, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.DefaultIntervalMonths, nil
}
