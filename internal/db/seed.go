package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"calibration-qa-backend/internal/model"
)

// SeedUsers are the operators available on the login screen.
var SeedUsers = []model.User{
	{ID: "1", Name: "Juan", Role: model.RoleEngineer},
	{ID: "2", Name: "Naila", Role: model.RoleEngineer},
	{ID: "3", Name: "Ade", Role: model.RoleCoordinator},
	{ID: "4", Name: "Samsul", Role: model.RoleSupervisor},
	{ID: "5", Name: "QA Admin", Role: model.RoleQA},
	{ID: "6", Name: "System Admin", Role: model.RoleAdmin},
}

// SeedInstruments is the demo asset registry.
var SeedInstruments = []model.Instrument{
	{
		ID: "INS-001", Code: "TEMP-01", Name: "Digital Thermometer",
		Location: "Lab Mikrobiologi", Department: "Manufacturing",
		Specs: "0-100°C High Precision", Range: "0 - 100°C", Tolerance: "±0.5°C",
		Status:          model.StatusOperational,
		LastCalibration: model.MustDate("2023-10-15"), NextCalibration: model.MustDate("2024-04-15"),
		Parameter: "Suhu", Brand: "Fluke", SerialNumber: "SN-788221", Capacity: "100°C",
		CalibrationType: model.CalibrationExternal,
	},
	{
		ID: "INS-002", Code: "PRES-05", Name: "Pressure Gauge",
		Location: "Area Boiler 1", Department: "Utility",
		Specs: "0-500 PSI Industrial", Range: "0 - 500 PSI", Tolerance: "±1%",
		Status:          model.StatusCalibrationDue,
		LastCalibration: model.MustDate("2023-08-20"), NextCalibration: model.MustDate("2024-02-20"),
		Parameter: "Tekanan", Brand: "Wika", SerialNumber: "WK-99011", Capacity: "500 PSI",
		CalibrationType: model.CalibrationInternal,
	},
	{
		ID: "INS-003", Code: "WGH-12", Name: "Analytical Balance",
		Location: "Lab Kimia", Department: "QC",
		Specs: "Max 220g / 0.1mg", Range: "0 - 220g", Tolerance: "±0.001g",
		Status:          model.StatusOperational,
		LastCalibration: model.MustDate("2023-12-01"), NextCalibration: model.MustDate("2024-06-01"),
		Parameter: "Massa", Brand: "Mettler Toledo", SerialNumber: "MT-55432", Capacity: "220g",
		CalibrationType: model.CalibrationExternal,
	},
}

// SeedProtocols are the completed IQ checks shipped with the demo.
var SeedProtocols = []model.ProtocolItem{
	{
		ID: "IQ-001", Stage: model.StageIQ, Title: "Verifikasi Komponen Utama",
		Status: model.ProtocolCompleted, Date: model.MustDate("2024-03-20"),
		Procedure:          "Memeriksa kesesuaian serial number komponen kritis (Motor, Sensor, PLC) dengan daftar material pada manual book.",
		AcceptanceCriteria: "Semua serial number harus cocok 100% dengan dokumen teknis pabrikan.",
		Tester:             "Juan (Engineer)",
		Results:            "Ditemukan kesesuaian pada 15 titik pemeriksaan. Tidak ada deviasi.",
	},
	{
		ID: "IQ-002", Stage: model.StageIQ, Title: "Cek Utilitas (Listrik/Udara)",
		Status: model.ProtocolCompleted, Date: model.MustDate("2024-03-19"),
		Procedure:          "Mengukur voltase input dan tekanan udara kompresi yang masuk ke sistem menggunakan multimeter dan manometer terkalibrasi.",
		AcceptanceCriteria: "Voltase: 220V ± 10%, Tekanan Udara: 6-8 Bar.",
		Tester:             "Ade (Coordinator)",
		Results:            "Voltase stabil di 222V, Tekanan udara konstan di 7.2 Bar.",
	},
}

type seedAudit struct {
	at      string
	user    string
	action  model.AuditAction
	details string
}

var seedAuditLogs = []seedAudit{
	{"2024-03-20 09:15:00", "Juan", model.ActionCreateRecord, "Menambahkan rekaman kalibrasi untuk TEMP-01"},
	{"2024-03-20 10:30:22", "Samsul", model.ActionApproveJob, "Menyetujui pekerjaan kalibrasi #CAL-104"},
	{"2024-03-20 14:12:05", "Naila", model.ActionUpdateInstrument, "Mengubah status PRES-05 menjadi OPERASIONAL"},
	{"2024-03-19 16:45:00", "Ade", model.ActionSchedule, "Menetapkan jadwal re-kalibrasi untuk VLV-02"},
}

type seedHistory struct {
	seq        int
	date       string
	engineer   string
	asFound    float64
	asLeft     float64
	result     model.Result
	conclusion model.Conclusion
	notes      string
}

var seedHistories = []seedHistory{
	{3, "2023-10-15", "Juan", 10.2, 10.0, model.ResultPass, model.ConclusionMS, "Kondisi alat stabil."},
	{2, "2023-04-10", "Naila", 10.5, 10.1, model.ResultPass, model.ConclusionMS, "Dilakukan penyetelan offset."},
	{1, "2022-10-05", "Ade", 11.2, 10.2, model.ResultFail, model.ConclusionTMS, "Alat di luar toleransi sebelum adjustment."},
}

// Seed loads the demo data. Existing rows are left untouched, so running it
// twice is harmless.
func Seed(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make([]model.User, len(SeedUsers))
		copy(users, SeedUsers)
		if err := insertIgnore(tx, &users); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}

		instruments := make([]model.Instrument, len(SeedInstruments))
		copy(instruments, SeedInstruments)
		if err := insertIgnore(tx, &instruments); err != nil {
			return fmt.Errorf("failed to seed instruments: %w", err)
		}

		records := make([]model.CalibrationRecord, 0, len(SeedInstruments)*len(seedHistories))
		for _, inst := range SeedInstruments {
			for _, h := range seedHistories {
				date := model.MustDate(h.date)
				records = append(records, model.CalibrationRecord{
					ID:             model.RecordID(inst.Code, h.seq),
					InstrumentID:   inst.ID,
					InstrumentCode: inst.Code,
					InstrumentName: inst.Name,
					Parameter:      inst.Parameter,
					Date:           date,
					NextDue:        date.AddMonths(6),
					Engineer:       h.engineer,
					AsFound:        h.asFound,
					AsLeft:         h.asLeft,
					Deviation:      roundTenth(h.asFound - h.asLeft),
					Result:         h.result,
					Status:         model.JobCompleted,
					Conclusion:     h.conclusion,
					Readings:       datatypes.JSONSlice[model.Reading]{},
					Notes:          h.notes,
					CertificateNo:  model.CertificateNo(date, inst.Code, h.seq),
				})
			}
		}
		if err := insertIgnore(tx, &records); err != nil {
			return fmt.Errorf("failed to seed calibration history: %w", err)
		}

		protocols := make([]model.ProtocolItem, len(SeedProtocols))
		copy(protocols, SeedProtocols)
		if err := insertIgnore(tx, &protocols); err != nil {
			return fmt.Errorf("failed to seed protocols: %w", err)
		}

		settings := model.DefaultSettings()
		if err := insertIgnore(tx, &settings); err != nil {
			return fmt.Errorf("failed to seed settings: %w", err)
		}

		var auditCount int64
		if err := tx.Model(&model.AuditLog{}).Count(&auditCount).Error; err != nil {
			return fmt.Errorf("failed to count audit entries: %w", err)
		}
		if auditCount == 0 {
			loc, _ := time.LoadLocation("Asia/Jakarta")
			if loc == nil {
				loc = time.UTC
			}
			entries := make([]model.AuditLog, 0, len(seedAuditLogs))
			for _, a := range seedAuditLogs {
				at, err := time.ParseInLocation("2006-01-02 15:04:05", a.at, loc)
				if err != nil {
					return fmt.Errorf("bad seed timestamp %q: %w", a.at, err)
				}
				entries = append(entries, model.AuditLog{
					ID:        uuid.NewString(),
					Timestamp: at.UTC(),
					User:      a.user,
					Action:    a.action,
					Details:   a.details,
				})
			}
			if err := tx.Create(&entries).Error; err != nil {
				return fmt.Errorf("failed to seed audit log: %w", err)
			}
		}

		log.Info("Seed data loaded",
			zap.Int("users", len(SeedUsers)),
			zap.Int("instruments", len(SeedInstruments)),
			zap.Int("records", len(records)),
			zap.Int("protocols", len(SeedProtocols)))
		return nil
	})
}

func insertIgnore(tx *gorm.DB, rows any) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error
}

func roundTenth(v float64) float64 {
	if v < 0 {
		v = -v
	}
	return float64(int64(v*10+0.5)) / 10
}
