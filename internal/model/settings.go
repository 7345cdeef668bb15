package model

import "time"

// SettingsID is the primary key of the single settings row.
const SettingsID = 1

// Settings holds the institution profile and GxP defaults.
type Settings struct {
	ID                    uint      `gorm:"primaryKey" json:"-"`
	InstitutionName       string    `gorm:"size:256" json:"institutionName"`
	RegistrationNo        string    `gorm:"size:128" json:"registrationNo"`
	Address               string    `gorm:"size:512" json:"address"`
	Website               string    `gorm:"size:256" json:"website"`
	DefaultIntervalMonths int       `gorm:"not null" json:"defaultIntervalMonths"`
	QATolerancePercent    float64   `json:"qaTolerancePercent"`
	DueSoonDays           int       `gorm:"not null" json:"dueSoonDays"`
	AuditRetentionYears   int       `json:"auditRetentionYears"`
	TwoFactor             bool      `json:"twoFactor"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// DefaultSettings mirrors the values shown on a fresh installation.
func DefaultSettings() Settings {
	return Settings{
		ID:                    SettingsID,
		InstitutionName:       "Laboratorium QA Pharma Central",
		RegistrationNo:        "ISO-17025-2024-QC",
		Address:               "Kawasan Industri Jababeka, Jl. Pharma Jaya No. 12, Bekasi, Indonesia",
		Website:               "https://qa.pharma-central.id",
		DefaultIntervalMonths: 6,
		QATolerancePercent:    0.5,
		DueSoonDays:           7,
		AuditRetentionYears:   5,
	}
}
