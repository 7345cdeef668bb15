package csvio

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"calibration-qa-backend/internal/calib"
	"calibration-qa-backend/internal/model"
)

const scheduleSheet = "Jadwal Kalibrasi"

var scheduleColumns = []struct {
	title string
	width float64
}{
	{"Kode Alat", 14},
	{"Nama Instrumen", 28},
	{"Lokasi", 22},
	{"Departemen", 16},
	{"Parameter", 12},
	{"Toleransi", 12},
	{"Kalibrasi Terakhir", 18},
	{"Jatuh Tempo", 14},
	{"Sisa Hari", 10},
	{"Status", 14},
	{"Tipe", 10},
}

// ScheduleFilename names an export for the given month.
func ScheduleFilename(year, month int) string {
	return fmt.Sprintf("jadwal_kalibrasi_%04d_%02d.xlsx", year, month)
}

// ScheduleWorkbook renders the schedule as a single-sheet workbook.
func ScheduleWorkbook(instruments []model.Instrument, today model.Date) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#CCFBF1"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#0F766E", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range scheduleColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s1", name)
		f.SetCellValue(scheduleSheet, cell, col.title)
		f.SetCellStyle(scheduleSheet, cell, cell, boldStyle)
		f.SetColWidth(scheduleSheet, name, name, col.width)
	}

	for i, inst := range instruments {
		row := i + 2
		values := []any{
			inst.Code,
			inst.Name,
			inst.Location,
			inst.Department,
			inst.Parameter,
			inst.Tolerance,
			inst.LastCalibration.String(),
			inst.NextCalibration.String(),
			calib.DaysLeft(today, inst.NextCalibration),
			inst.Status.Label(),
			string(inst.CalibrationType),
		}
		for j, v := range values {
			name, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(scheduleSheet, fmt.Sprintf("%s%d", name, row), v)
		}
	}

	if err := f.SetPanes(scheduleSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}
	return f, nil
}

// ParseScheduleXLSX reads the first sheet of a workbook laid out like the
// CSV template: a header row, then code and date columns.
func ParseScheduleXLSX(r io.Reader, known map[string]model.Instrument) (*Preview, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook rows: %w", err)
	}
	if len(rows) <= 1 {
		return &Preview{Rows: []Row{}}, nil
	}
	return buildPreview(rows[1:], 2, known), nil
}
