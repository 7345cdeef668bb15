package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// JobStatus tracks a calibration work order.
type JobStatus string

const (
	JobPlanned   JobStatus = "PLANNED"
	JobOngoing   JobStatus = "ONGOING"
	JobCompleted JobStatus = "COMPLETED"
	JobOverdue   JobStatus = "OVERDUE"
)

// Result is the pass/fail outcome of a calibration.
type Result string

const (
	ResultPass Result = "PASS"
	ResultFail Result = "FAIL"
)

// Conclusion is the verifier's statement of conformity.
type Conclusion string

const (
	// ConclusionMS is "Memenuhi Syarat", meets specification.
	ConclusionMS Conclusion = "MS"
	// ConclusionTMS is "Tidak Memenuhi Syarat", does not meet specification.
	ConclusionTMS Conclusion = "TMS"
)

// Valid reports whether c is MS or TMS.
func (c Conclusion) Valid() bool {
	return c == ConclusionMS || c == ConclusionTMS
}

// Reading is one test point of a calibration.
type Reading struct {
	TestPoint float64 `json:"testPoint"`
	AsFound   float64 `json:"asFound"`
	AsLeft    float64 `json:"asLeft"`
	Deviation float64 `json:"deviation"`
	Limit     float64 `json:"limit"`
	Pass      bool    `json:"pass"`
	// OutOfRange marks a test point outside the instrument's measuring range.
	OutOfRange bool `json:"outOfRange,omitempty"`
}

// CalibrationRecord is a completed calibration and the source of its certificate.
type CalibrationRecord struct {
	ID             string                       `gorm:"primaryKey;size:96" json:"id"`
	InstrumentID   string                       `gorm:"index;size:16;not null" json:"instrumentId"`
	InstrumentCode string                       `gorm:"index;size:64;not null" json:"instrumentCode"`
	InstrumentName string                       `gorm:"size:256" json:"instrumentName"`
	Parameter      string                       `gorm:"size:64;index" json:"parameter"`
	Date           Date                         `gorm:"column:calibrated_on;index;not null" json:"date"`
	NextDue        Date                         `json:"nextDue"`
	Engineer       string                       `gorm:"size:128" json:"engineerId"`
	AsFound        float64                      `json:"asFound"`
	AsLeft         float64                      `json:"asLeft"`
	Deviation      float64                      `json:"deviation"`
	Result         Result                       `gorm:"size:8;not null" json:"result"`
	Status         JobStatus                    `gorm:"size:16;not null" json:"status"`
	Conclusion     Conclusion                   `gorm:"size:8" json:"conclusion"`
	EnvTemp        float64                      `json:"envTemp"`
	EnvRH          float64                      `json:"envRH"`
	Readings       datatypes.JSONSlice[Reading] `json:"readings"`
	Notes          string                       `gorm:"size:1024" json:"notes"`
	CertificateNo  string                       `gorm:"uniqueIndex;size:128" json:"certificateNo"`
	ApprovedBy     string                       `gorm:"size:128" json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time                   `json:"approvedAt,omitempty"`
	CreatedAt      time.Time                    `json:"createdAt"`
}

// WorkflowStep is a position in the three-step calibration wizard.
type WorkflowStep int

const (
	StepCondition    WorkflowStep = 1
	StepTesting      WorkflowStep = 2
	StepVerification WorkflowStep = 3
)

// Label returns the Indonesian step label.
func (s WorkflowStep) Label() string {
	switch s {
	case StepCondition:
		return "Kondisi"
	case StepTesting:
		return "Pengujian"
	case StepVerification:
		return "Verifikasi"
	}
	return "?"
}

// CalibrationJob is an in-progress calibration work order.
type CalibrationJob struct {
	ID           string                       `gorm:"primaryKey;size:36" json:"id"`
	InstrumentID string                       `gorm:"index;size:16;not null" json:"instrumentId"`
	Step         WorkflowStep                 `gorm:"not null" json:"step"`
	Status       JobStatus                    `gorm:"size:16;not null;index" json:"status"`
	CalDate      Date                         `json:"calDate"`
	EnvTemp      *float64                     `json:"envTemp"`
	EnvRH        *float64                     `json:"envRH"`
	Officer      string                       `gorm:"size:128" json:"officer"`
	Readings     datatypes.JSONSlice[Reading] `json:"readings"`
	Conclusion   Conclusion                   `gorm:"size:8" json:"conclusion,omitempty"`
	Notes        string                       `gorm:"size:1024" json:"notes"`
	RecordID     string                       `gorm:"size:96" json:"recordId,omitempty"`
	CreatedAt    time.Time                    `json:"createdAt"`
	UpdatedAt    time.Time                    `json:"updatedAt"`
}

// RecordID formats the id of the seq-th calibration of an instrument code.
func RecordID(code string, seq int) string {
	return fmt.Sprintf("CAL-%s-%02d", code, seq)
}

// CertificateNo formats a certificate number, e.g. CERT/2024/03/TEMP-01-04.
func CertificateNo(date Date, code string, seq int) string {
	return fmt.Sprintf("CERT/%04d/%02d/%s-%02d", date.Year(), int(date.Month()), code, seq)
}
