package model

import "time"

// AssetStatus is the lifecycle state of an instrument.
type AssetStatus string

const (
	StatusOperational    AssetStatus = "OPERATIONAL"
	StatusCalibrationDue AssetStatus = "CALIBRATION_DUE"
	StatusMaintenance    AssetStatus = "MAINTENANCE"
	StatusOutOfService   AssetStatus = "OUT_OF_SERVICE"
)

// Valid reports whether s is one of the known statuses.
func (s AssetStatus) Valid() bool {
	switch s {
	case StatusOperational, StatusCalibrationDue, StatusMaintenance, StatusOutOfService:
		return true
	}
	return false
}

// Label returns the Indonesian display label.
func (s AssetStatus) Label() string {
	switch s {
	case StatusOperational:
		return "Operasional"
	case StatusCalibrationDue:
		return "Jatuh Tempo"
	case StatusMaintenance:
		return "Perbaikan"
	case StatusOutOfService:
		return "Rusak"
	}
	return string(s)
}

// CalibrationType says who performs the calibration.
type CalibrationType string

const (
	CalibrationInternal CalibrationType = "INTERNAL"
	CalibrationExternal CalibrationType = "EXTERNAL"
)

// Valid reports whether t is INTERNAL or EXTERNAL.
func (t CalibrationType) Valid() bool {
	return t == CalibrationInternal || t == CalibrationExternal
}

// Instrument is a registered measuring asset.
type Instrument struct {
	ID              string          `gorm:"primaryKey;size:16" json:"id"`
	Code            string          `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Name            string          `gorm:"size:256;not null" json:"name"`
	Location        string          `gorm:"size:256;not null" json:"location"`
	Department      string          `gorm:"size:128;not null" json:"department"`
	Specs           string          `gorm:"size:256" json:"specs"`
	Range           string          `gorm:"column:measuring_range;size:128" json:"range"`
	Tolerance       string          `gorm:"size:64" json:"tolerance"`
	Status          AssetStatus     `gorm:"size:32;not null;index" json:"status"`
	LastCalibration Date            `json:"lastCalibration"`
	NextCalibration Date            `gorm:"index" json:"nextCalibration"`
	Parameter       string          `gorm:"size:64;index" json:"parameter"`
	Brand           string          `gorm:"size:128" json:"brand"`
	SerialNumber    string          `gorm:"size:128" json:"serialNumber"`
	Capacity        string          `gorm:"size:64" json:"capacity"`
	CalibrationType CalibrationType `gorm:"size:16" json:"calibrationType"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
