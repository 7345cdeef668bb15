package store

import (
	"time"

	"calibration-qa-backend/internal/model"
)

// InstrumentFilter selects instruments for the asset list.
type InstrumentFilter struct {
	Search   string
	Status   model.AssetStatus // empty or "ALL" for any
	Page     int
	PageSize int // zero returns every match
}

// CalibrationFilter selects calibration records for the certificate list.
type CalibrationFilter struct {
	Year         int
	Month        time.Month
	Parameter    string // empty or "ALL" for any
	Search       string
	InstrumentID string
}

// AuditFilter selects audit entries.
type AuditFilter struct {
	User     string
	Action   model.AuditAction
	Page     int
	PageSize int // zero returns every match
}

// ScheduleUpdate moves the next calibration date of the instrument with Code.
type ScheduleUpdate struct {
	Code string
	Date model.Date
}

// Completion describes a finished calibration to persist atomically.
type Completion struct {
	InstrumentID string
	// Record carries the measured outcome. Identity and instrument snapshot
	// fields are filled in by the store.
	Record model.CalibrationRecord
	// Status is the instrument status after the calibration.
	Status model.AssetStatus
	// Job, when set, is closed and linked to the new record.
	Job   *model.CalibrationJob
	Actor string
}

func isAll(v string) bool {
	return v == "" || v == "ALL"
}
