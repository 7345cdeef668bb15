// Package certificate renders calibration records as certificates and
// guards their content with a digest.
package certificate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/parse"
)

const (
	StatementFit   = "LAIK UNTUK DIGUNAKAN"
	StatementUnfit = "TIDAK LAIK UNTUK DIGUNAKAN"
)

// Institution is the issuing laboratory block.
type Institution struct {
	Name           string `json:"name"`
	RegistrationNo string `json:"registrationNo"`
	Address        string `json:"address"`
	Website        string `json:"website"`
}

// InstrumentBlock describes the calibrated unit.
type InstrumentBlock struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Brand        string `json:"brand,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	Range        string `json:"range,omitempty"`
	Capacity     string `json:"capacity,omitempty"`
	Tolerance    string `json:"tolerance,omitempty"`
	Location     string `json:"location,omitempty"`
	Parameter    string `json:"parameter,omitempty"`
}

// Document is a rendered calibration certificate.
type Document struct {
	Number          string           `json:"number"`
	RecordID        string           `json:"recordId"`
	Institution     Institution      `json:"institution"`
	Instrument      InstrumentBlock  `json:"instrument"`
	CalibrationDate model.Date       `json:"calibrationDate"`
	NextDue         model.Date       `json:"nextDue"`
	Engineer        string           `json:"engineer"`
	EnvTemp         float64          `json:"envTemp"`
	EnvRH           float64          `json:"envRH"`
	Readings        []model.Reading  `json:"readings"`
	AsFound         float64          `json:"asFound"`
	AsLeft          float64          `json:"asLeft"`
	Deviation       float64          `json:"deviation"`
	Result          model.Result     `json:"result"`
	Conclusion      model.Conclusion `json:"conclusion"`
	Statement       string           `json:"statement"`
	Notes           string           `json:"notes,omitempty"`
	ApprovedBy      string           `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time       `json:"approvedAt,omitempty"`
	Digest          string           `json:"digest"`
}

// Statement is the conformity sentence printed for a conclusion.
func Statement(c model.Conclusion) string {
	if c == model.ConclusionMS {
		return StatementFit
	}
	return StatementUnfit
}

// Build renders rec. inst may be nil when the instrument has since been
// deleted; the record's snapshot is used instead.
func Build(rec *model.CalibrationRecord, inst *model.Instrument, settings *model.Settings) Document {
	doc := Document{
		Number:          rec.CertificateNo,
		RecordID:        rec.ID,
		CalibrationDate: rec.Date,
		NextDue:         rec.NextDue,
		Engineer:        rec.Engineer,
		EnvTemp:         rec.EnvTemp,
		EnvRH:           rec.EnvRH,
		Readings:        rec.Readings,
		AsFound:         rec.AsFound,
		AsLeft:          rec.AsLeft,
		Deviation:       rec.Deviation,
		Result:          rec.Result,
		Conclusion:      rec.Conclusion,
		Statement:       Statement(rec.Conclusion),
		Notes:           rec.Notes,
		ApprovedBy:      rec.ApprovedBy,
		ApprovedAt:      rec.ApprovedAt,
		Instrument: InstrumentBlock{
			ID:        rec.InstrumentID,
			Code:      rec.InstrumentCode,
			Name:      rec.InstrumentName,
			Parameter: rec.Parameter,
		},
	}
	if doc.Readings == nil {
		doc.Readings = []model.Reading{}
	}
	if inst != nil {
		doc.Instrument.Brand = inst.Brand
		doc.Instrument.SerialNumber = inst.SerialNumber
		doc.Instrument.Range = inst.Range
		doc.Instrument.Capacity = inst.Capacity
		doc.Instrument.Tolerance = inst.Tolerance
		if tol, err := parse.ParseTolerance(inst.Tolerance); err == nil {
			doc.Instrument.Tolerance = tol.String()
		}
		doc.Instrument.Location = inst.Location
	}
	if settings != nil {
		doc.Institution = Institution{
			Name:           settings.InstitutionName,
			RegistrationNo: settings.RegistrationNo,
			Address:        settings.Address,
			Website:        settings.Website,
		}
	}
	doc.Digest = Digest(rec)
	return doc
}

// signedContent is the part of a record a certificate vouches for. Approval
// and institution details are left out since they change after issue.
type signedContent struct {
	Number     string           `json:"number"`
	RecordID   string           `json:"recordId"`
	Instrument string           `json:"instrument"`
	Date       string           `json:"date"`
	NextDue    string           `json:"nextDue"`
	Engineer   string           `json:"engineer"`
	EnvTemp    float64          `json:"envTemp"`
	EnvRH      float64          `json:"envRH"`
	Readings   []model.Reading  `json:"readings"`
	AsFound    float64          `json:"asFound"`
	AsLeft     float64          `json:"asLeft"`
	Deviation  float64          `json:"deviation"`
	Result     model.Result     `json:"result"`
	Conclusion model.Conclusion `json:"conclusion"`
}

// Digest is the hex sha256 of the record's certified content.
func Digest(rec *model.CalibrationRecord) string {
	readings := []model.Reading(rec.Readings)
	if readings == nil {
		readings = []model.Reading{}
	}
	content := signedContent{
		Number:     rec.CertificateNo,
		RecordID:   rec.ID,
		Instrument: rec.InstrumentCode,
		Date:       rec.Date.String(),
		NextDue:    rec.NextDue.String(),
		Engineer:   rec.Engineer,
		EnvTemp:    rec.EnvTemp,
		EnvRH:      rec.EnvRH,
		Readings:   readings,
		AsFound:    rec.AsFound,
		AsLeft:     rec.AsLeft,
		Deviation:  rec.Deviation,
		Result:     rec.Result,
		Conclusion: rec.Conclusion,
	}
	// Marshalling a struct is deterministic, so the bytes are canonical.
	data, _ := json.Marshal(content)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify reports whether digest matches rec's current content.
func Verify(rec *model.CalibrationRecord, digest string) bool {
	return digest != "" && Digest(rec) == digest
}

// Stats summarizes a certificate list.
type Stats struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Pending int `json:"pending"`
}

// Summarize counts passed and unapproved records.
func Summarize(records []model.CalibrationRecord) Stats {
	s := Stats{Total: len(records)}
	for _, r := range records {
		if r.Result == model.ResultPass {
			s.Passed++
		}
		if r.ApprovedAt == nil {
			s.Pending++
		}
	}
	return s
}
