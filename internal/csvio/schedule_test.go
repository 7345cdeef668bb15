package csvio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/store"
)

var known = map[string]model.Instrument{
	"TEMP-01": {ID: "INS-001", Code: "TEMP-01", Name: "Digital Thermometer"},
	"PRES-05": {ID: "INS-002", Code: "PRES-05", Name: "Pressure Gauge"},
}

func TestParseSchedule(t *testing.T) {
	input := "Kode_Alat,Tanggal_Next_Kalibrasi\r\n" +
		"TEMP-01, 2024-12-25\r\n" +
		"\r\n" +
		"VLV-02,2024-11-01\n" +
		"PRES-05,\n" +
		"TEMP-01,31/12/2024\n" +
		"PRES-05,someday\n"

	p, err := ParseSchedule(strings.NewReader(input), known)
	require.NoError(t, err)

	require.Len(t, p.Rows, 5)
	assert.Equal(t, 3, p.Valid)
	assert.Equal(t, 2, p.Invalid)

	first := p.Rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "TEMP-01", first.Code)
	assert.Equal(t, "Digital Thermometer", first.Name)
	assert.Equal(t, "2024-12-25", first.Date.String())
	assert.True(t, first.Valid)

	unknown := p.Rows[1]
	assert.Equal(t, 4, unknown.Line)
	assert.False(t, unknown.Valid)
	assert.Equal(t, "Kode alat tidak terdaftar", unknown.Error)
	assert.Equal(t, "Alat Tidak Ditemukan", unknown.Name)

	emptyDate := p.Rows[2]
	assert.True(t, emptyDate.Valid)
	assert.Equal(t, DefaultImportDate, emptyDate.Date.String())

	dayFirst := p.Rows[3]
	assert.True(t, dayFirst.Valid)
	assert.Equal(t, "2024-12-31", dayFirst.Date.String())

	badDate := p.Rows[4]
	assert.False(t, badDate.Valid)
	assert.Equal(t, "Format tanggal tidak valid", badDate.Error)

	assert.Equal(t, []store.ScheduleUpdate{
		{Code: "TEMP-01", Date: model.MustDate("2024-12-25")},
		{Code: "PRES-05", Date: model.MustDate("2024-01-01")},
		{Code: "TEMP-01", Date: model.MustDate("2024-12-31")},
	}, p.Updates())
}

func TestParseSchedule_HeaderOnly(t *testing.T) {
	p, err := ParseSchedule(strings.NewReader(ScheduleHeader+"\n"), known)
	require.NoError(t, err)
	assert.Empty(t, p.Rows)
	assert.Empty(t, p.Updates())
}

func TestParseImportDate(t *testing.T) {
	testCases := []struct {
		raw       string
		expected  string
		expectErr bool
	}{
		{raw: "2024-06-15", expected: "2024-06-15"},
		{raw: "15/06/2024", expected: "2024-06-15"},
		{raw: "15-06-2024", expected: "2024-06-15"},
		{raw: "2024/06/15", expected: "2024-06-15"},
		{raw: "", expected: "2024-01-01"},
		{raw: "2024-13-01", expectErr: true},
		{raw: "June 15", expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseImportDate(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.String())
		})
	}
}

func TestTemplate_RoundTrips(t *testing.T) {
	p, err := ParseSchedule(bytes.NewReader(Template()), known)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Valid)
	assert.Equal(t, "2024-12-25", p.Rows[0].Date.String())
}
