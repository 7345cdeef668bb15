// Package csvio reads and writes the schedule and audit spreadsheets.
package csvio

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/store"
)

const (
	// ScheduleHeader is the first line of an import file.
	ScheduleHeader = "Kode_Alat,Tanggal_Next_Kalibrasi"
	// DefaultImportDate stands in for an empty date cell.
	DefaultImportDate = "2024-01-01"
	// TemplateFilename is the download name of the import template.
	TemplateFilename = "template_jadwal_qa.csv"

	msgUnknownCode = "Kode alat tidak terdaftar"
	msgBadDate     = "Format tanggal tidak valid"
	nameNotFound   = "Alat Tidak Ditemukan"
)

// ErrNoValidRows is returned when committing a preview without valid rows.
var ErrNoValidRows = errors.New("no valid rows to import")

var dateLayouts = []string{
	model.DateLayout,
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// Row is one parsed line of an import file.
type Row struct {
	Line         int        `json:"line"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	InstrumentID string     `json:"instrumentId,omitempty"`
	RawDate      string     `json:"rawDate"`
	Date         model.Date `json:"date"`
	Valid        bool       `json:"isValid"`
	Error        string     `json:"error,omitempty"`
}

// Preview is the dry-run result shown before an import is committed.
type Preview struct {
	Rows    []Row `json:"rows"`
	Valid   int   `json:"valid"`
	Invalid int   `json:"invalid"`
}

// Updates returns the schedule changes of the valid rows.
func (p *Preview) Updates() []store.ScheduleUpdate {
	out := make([]store.ScheduleUpdate, 0, p.Valid)
	for _, r := range p.Rows {
		if r.Valid {
			out = append(out, store.ScheduleUpdate{Code: r.Code, Date: r.Date})
		}
	}
	return out
}

// ParseSchedule reads a Kode_Alat,Tanggal_Next_Kalibrasi file. The first line
// is a header and blank lines are skipped. Fields are split on commas with no
// quoting, matching the files the template produces.
func ParseSchedule(r io.Reader, known map[string]model.Instrument) (*Preview, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	lines := strings.Split(string(data), "\n")

	records := make([][]string, 0, len(lines))
	for i := 1; i < len(lines); i++ {
		records = append(records, strings.Split(lines[i], ","))
	}
	return buildPreview(records, 2, known), nil
}

// buildPreview validates data rows. firstLine is the 1-based line number of
// records[0].
func buildPreview(records [][]string, firstLine int, known map[string]model.Instrument) *Preview {
	p := &Preview{Rows: make([]Row, 0, len(records))}
	for i, fields := range records {
		if isBlank(fields) {
			continue
		}
		code := strings.TrimSpace(fields[0])
		raw := ""
		if len(fields) > 1 {
			raw = strings.TrimSpace(fields[1])
		}

		row := Row{Line: firstLine + i, Code: code, RawDate: raw}
		date, dateErr := ParseImportDate(raw)
		row.Date = date

		inst, ok := known[code]
		switch {
		case !ok:
			row.Name = nameNotFound
			row.Error = msgUnknownCode
		case dateErr != nil:
			row.Name = inst.Name
			row.InstrumentID = inst.ID
			row.Error = msgBadDate
		default:
			row.Name = inst.Name
			row.InstrumentID = inst.ID
			row.Valid = true
		}

		if row.Valid {
			p.Valid++
		} else {
			p.Invalid++
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ParseImportDate accepts YYYY-MM-DD and the common day-first forms. An
// empty value yields DefaultImportDate.
func ParseImportDate(raw string) (model.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultImportDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return model.DateOf(t), nil
		}
	}
	return model.Date{}, fmt.Errorf("unrecognized date %q", raw)
}

// Template returns the downloadable import template.
func Template() []byte {
	return []byte(ScheduleHeader + "\nTEMP-01,2024-12-25\nPRES-05,2024-11-20")
}
