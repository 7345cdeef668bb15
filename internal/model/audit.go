package model

import "time"

// AuditAction codes keep the Indonesian identifiers used on the audit screen.
type AuditAction string

const (
	ActionCreateRecord     AuditAction = "BUAT_REKAMAN"
	ActionApproveJob       AuditAction = "SETUJUI_KERJA"
	ActionUpdateInstrument AuditAction = "UPDATE_ALAT"
	ActionSchedule         AuditAction = "JADWAL_KALIBRASI"
	ActionManualNote       AuditAction = "CATATAN_MANUAL"
	ActionAddInstrument    AuditAction = "TAMBAH_ALAT"
	ActionDeleteInstrument AuditAction = "HAPUS_ALAT"
	ActionImportSchedule   AuditAction = "IMPOR_JADWAL"
	ActionProtocol         AuditAction = "PROTOKOL_KUALIFIKASI"
	ActionSettings         AuditAction = "UBAH_PENGATURAN"
	ActionAutoStatus       AuditAction = "STATUS_OTOMATIS"
)

// SystemUser is the actor recorded for background changes.
const SystemUser = "system"

// AuditLog is an append-only compliance trail entry.
type AuditLog struct {
	ID         string      `gorm:"primaryKey;size:36" json:"id"`
	Timestamp  time.Time   `gorm:"column:logged_at;index;not null" json:"timestamp"`
	User       string      `gorm:"column:actor;size:128;index;not null" json:"user"`
	Action     AuditAction `gorm:"size:64;index;not null" json:"action"`
	Details    string      `gorm:"size:1024" json:"details"`
	IsManual   bool        `json:"isManual"`
	EntityType string      `gorm:"size:32" json:"entityType,omitempty"`
	EntityID   string      `gorm:"size:96;index" json:"entityId,omitempty"`
}
