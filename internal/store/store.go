package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"calibration-qa-backend/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateCode is returned when an instrument code is already registered.
	ErrDuplicateCode = errors.New("instrument code already registered")
	// ErrAlreadyApproved is returned when approving an approved certificate.
	ErrAlreadyApproved = errors.New("calibration already approved")
	// ErrEmptySelection is returned by bulk operations given nothing to do.
	ErrEmptySelection = errors.New("empty selection")
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	ListInstruments(ctx context.Context, f InstrumentFilter) ([]model.Instrument, int64, error)
	AllInstruments(ctx context.Context) ([]model.Instrument, error)
	GetInstrument(ctx context.Context, id string) (*model.Instrument, error)
	InstrumentsByCode(ctx context.Context) (map[string]model.Instrument, error)
	CreateInstrument(ctx context.Context, inst *model.Instrument, actor string) error
	UpdateInstrument(ctx context.Context, inst *model.Instrument, actor string) error
	DeleteInstrument(ctx context.Context, id, actor string) error
	ScheduleInstruments(ctx context.Context, ids []string, date model.Date, actor string) (int64, error)
	ApplySchedule(ctx context.Context, updates []ScheduleUpdate, actor string) (int64, error)
	ListDueBetween(ctx context.Context, from, to model.Date) ([]model.Instrument, error)
	MarkOverdue(ctx context.Context, today model.Date) ([]model.Instrument, error)

	ListCalibrations(ctx context.Context, f CalibrationFilter) ([]model.CalibrationRecord, error)
	RecentCalibrations(ctx context.Context, instrumentID string, limit int) ([]model.CalibrationRecord, error)
	GetCalibration(ctx context.Context, id string) (*model.CalibrationRecord, error)
	CompleteCalibration(ctx context.Context, c Completion) (*model.CalibrationRecord, error)
	ApproveCalibration(ctx context.Context, id, approver string) (*model.CalibrationRecord, error)

	CreateJob(ctx context.Context, job *model.CalibrationJob) error
	GetJob(ctx context.Context, id string) (*model.CalibrationJob, error)
	OpenJobFor(ctx context.Context, instrumentID string) (*model.CalibrationJob, error)
	SaveJob(ctx context.Context, job *model.CalibrationJob) error
	ListOpenJobs(ctx context.Context) ([]model.CalibrationJob, error)
	CountOpenJobs(ctx context.Context) (int64, error)

	ListAudit(ctx context.Context, f AuditFilter) ([]model.AuditLog, int64, error)
	AppendAudit(ctx context.Context, entry *model.AuditLog) error

	ListProtocols(ctx context.Context, stage model.QualificationStage) ([]model.ProtocolItem, error)
	GetProtocol(ctx context.Context, id string) (*model.ProtocolItem, error)
	CreateProtocol(ctx context.Context, p *model.ProtocolItem, actor string) error
	UpdateProtocol(ctx context.Context, p *model.ProtocolItem, actor string) error
	DeleteProtocol(ctx context.Context, id, actor string) error

	GetSettings(ctx context.Context) (*model.Settings, error)
	UpdateSettings(ctx context.Context, s *model.Settings, actor string) error

	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)

	SaveSubscription(ctx context.Context, sub *model.PushSubscription, instrumentIDs []string) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: time.Now}
}

// DB exposes the handle for components that query directly.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// appendAudit writes an audit entry on tx so it commits or rolls back with
// the change it describes.
func (s *gormStore) appendAudit(tx *gorm.DB, actor string, action model.AuditAction, details, entityType, entityID string) error {
	if actor == "" {
		actor = model.SystemUser
	}
	entry := model.AuditLog{
		ID:         uuid.NewString(),
		Timestamp:  s.now().UTC(),
		User:       actor,
		Action:     action,
		Details:    details,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry %s: %w", action, err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
