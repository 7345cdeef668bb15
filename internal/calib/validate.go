package calib

import (
	"sort"
	"strings"
	"time"

	"calibration-qa-backend/internal/model"
)

// Form validation messages.
const (
	MsgCodeRequired       = "ID / Kode Alat wajib diisi"
	MsgNameRequired       = "Nama instrumen wajib diisi"
	MsgLocationRequired   = "Lokasi wajib diisi"
	MsgDepartmentRequired = "Departemen wajib diisi"
	MsgNextRequired       = "Tanggal jatuh tempo wajib ditentukan"
	MsgNextNotAfterLast   = "Jatuh tempo harus setelah tanggal kalibrasi terakhir"
	MsgCodeTaken          = "Kode alat sudah terdaftar"
	MsgInvalidStatus      = "Status tidak dikenal"
	MsgInvalidType        = "Tipe kalibrasi tidak dikenal"
)

// Defaults applied to a newly registered instrument.
const (
	DefaultParameter = "Suhu"
	DefaultTolerance = "±0.5"
)

// ValidationErrors maps a field name to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// OrNil returns nil when there are no errors.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ValidateInstrument checks the asset form fields.
func ValidateInstrument(inst *model.Instrument) error {
	errs := ValidationErrors{}
	if strings.TrimSpace(inst.Code) == "" {
		errs["code"] = MsgCodeRequired
	}
	if strings.TrimSpace(inst.Name) == "" {
		errs["name"] = MsgNameRequired
	}
	if strings.TrimSpace(inst.Location) == "" {
		errs["location"] = MsgLocationRequired
	}
	if strings.TrimSpace(inst.Department) == "" {
		errs["department"] = MsgDepartmentRequired
	}
	switch {
	case inst.NextCalibration.IsZero():
		errs["nextCalibration"] = MsgNextRequired
	case !inst.LastCalibration.IsZero() && !inst.NextCalibration.After(inst.LastCalibration):
		errs["nextCalibration"] = MsgNextNotAfterLast
	}
	if inst.Status != "" && !inst.Status.Valid() {
		errs["status"] = MsgInvalidStatus
	}
	if inst.CalibrationType != "" && !inst.CalibrationType.Valid() {
		errs["calibrationType"] = MsgInvalidType
	}
	return errs.OrNil()
}

// ApplyDefaults fills the fields a new instrument may omit.
func ApplyDefaults(inst *model.Instrument, today model.Date) {
	inst.Code = strings.TrimSpace(inst.Code)
	if inst.Status == "" {
		inst.Status = model.StatusOperational
	}
	if inst.LastCalibration.IsZero() {
		inst.LastCalibration = today
	}
	if inst.Parameter == "" {
		inst.Parameter = DefaultParameter
	}
	if inst.Tolerance == "" {
		inst.Tolerance = DefaultTolerance
	}
	if inst.CalibrationType == "" {
		inst.CalibrationType = model.CalibrationInternal
	}
}

// ValidateInterval checks a settings interval against AllowedIntervals.
func ValidateInterval(months int) bool {
	for _, m := range AllowedIntervals {
		if m == months {
			return true
		}
	}
	return false
}

// ValidateSettings checks the editable settings fields.
func ValidateSettings(s *model.Settings) error {
	errs := ValidationErrors{}
	if strings.TrimSpace(s.InstitutionName) == "" {
		errs["institutionName"] = "Nama institusi wajib diisi"
	}
	if !ValidateInterval(s.DefaultIntervalMonths) {
		errs["defaultIntervalMonths"] = "Interval harus 6, 12 atau 24 bulan"
	}
	if s.DueSoonDays <= 0 {
		errs["dueSoonDays"] = "Jendela jatuh tempo harus lebih dari 0 hari"
	}
	if s.QATolerancePercent < 0 {
		errs["qaTolerancePercent"] = "Toleransi tidak boleh negatif"
	}
	if s.AuditRetentionYears < 0 {
		errs["auditRetentionYears"] = "Retensi tidak boleh negatif"
	}
	return errs.OrNil()
}

// ToMonth converts 1..12 to a time.Month; anything else yields 0.
func ToMonth(n int) time.Month {
	if n < 1 || n > 12 {
		return 0
	}
	return time.Month(n)
}
