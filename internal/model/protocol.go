package model

import "time"

// QualificationStage is one of the GxP qualification stages.
type QualificationStage string

const (
	StageDQ QualificationStage = "DQ"
	StageIQ QualificationStage = "IQ"
	StageOQ QualificationStage = "OQ"
	StagePQ QualificationStage = "PQ"
)

// Stages lists the stages in lifecycle order.
var Stages = []QualificationStage{StageDQ, StageIQ, StageOQ, StagePQ}

// Valid reports whether s is a known stage.
func (s QualificationStage) Valid() bool {
	switch s {
	case StageDQ, StageIQ, StageOQ, StagePQ:
		return true
	}
	return false
}

// Label returns the long stage name.
func (s QualificationStage) Label() string {
	switch s {
	case StageDQ:
		return "Design Qualification"
	case StageIQ:
		return "Installation Qualification"
	case StageOQ:
		return "Operational Qualification"
	case StagePQ:
		return "Performance Qualification"
	}
	return string(s)
}

// ProtocolStatus is the execution state of a protocol item.
type ProtocolStatus string

const (
	ProtocolCompleted  ProtocolStatus = "COMPLETED"
	ProtocolInProgress ProtocolStatus = "IN_PROGRESS"
	ProtocolPending    ProtocolStatus = "PENDING"
	ProtocolFailed     ProtocolStatus = "FAILED"
)

// Valid reports whether s is a known protocol status.
func (s ProtocolStatus) Valid() bool {
	switch s {
	case ProtocolCompleted, ProtocolInProgress, ProtocolPending, ProtocolFailed:
		return true
	}
	return false
}

// ProtocolItem is a single qualification test with its acceptance criteria.
type ProtocolItem struct {
	ID                 string             `gorm:"primaryKey;size:16" json:"id"`
	Stage              QualificationStage `gorm:"size:4;index;not null" json:"stage"`
	Title              string             `gorm:"size:256;not null" json:"title"`
	Status             ProtocolStatus     `gorm:"size:16;not null" json:"status"`
	Date               Date               `json:"date"`
	Procedure          string             `gorm:"type:text" json:"procedure"`
	AcceptanceCriteria string             `gorm:"type:text" json:"acceptanceCriteria"`
	Tester             string             `gorm:"size:128" json:"tester"`
	Results            string             `gorm:"type:text" json:"results,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}
