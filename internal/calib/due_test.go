package calib

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"calibration-qa-backend/internal/model"
)

func TestNextDue(t *testing.T) {
	testCases := []struct {
		name     string
		date     string
		months   int
		expected string
	}{
		{name: "Plain six months", date: "2023-10-15", months: 6, expected: "2024-04-15"},
		{name: "Crosses year end", date: "2023-08-20", months: 6, expected: "2024-02-20"},
		{name: "Month overflow normalizes", date: "2024-08-31", months: 6, expected: "2025-03-03"},
		{name: "Zero interval uses default", date: "2024-01-10", months: 0, expected: "2024-07-10"},
		{name: "Yearly", date: "2024-02-29", months: 12, expected: "2025-03-01"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextDue(model.MustDate(tc.date), tc.months)
			assert.Equal(t, tc.expected, got.String())
		})
	}
}

func TestIsDueSoon(t *testing.T) {
	today := model.MustDate("2024-03-20")

	assert.True(t, IsDueSoon(model.MustDate("2024-03-20"), today, 7), "due today")
	assert.True(t, IsDueSoon(model.MustDate("2024-03-27"), today, 7), "last day of window")
	assert.False(t, IsDueSoon(model.MustDate("2024-03-28"), today, 7), "outside window")
	assert.False(t, IsDueSoon(model.MustDate("2024-03-19"), today, 7), "already overdue")
	assert.False(t, IsDueSoon(model.Date{}, today, 7), "no date")
}

func TestFilterDueSoon(t *testing.T) {
	today := model.MustDate("2024-03-20")
	instruments := []model.Instrument{
		{ID: "INS-1", NextCalibration: model.MustDate("2024-03-25")},
		{ID: "INS-2", NextCalibration: model.MustDate("2024-04-25")},
		{ID: "INS-3", NextCalibration: model.MustDate("2024-03-21")},
		{ID: "INS-4", NextCalibration: model.MustDate("2024-03-01")},
	}

	got := FilterDueSoon(instruments, today, 7)

	if assert.Len(t, got, 2) {
		assert.Equal(t, "INS-3", got[0].Instrument.ID)
		assert.Equal(t, 1, got[0].DaysLeft)
		assert.Equal(t, "INS-1", got[1].Instrument.ID)
		assert.Equal(t, 5, got[1].DaysLeft)
	}
}

func TestMatchesSchedule(t *testing.T) {
	inst := model.Instrument{Code: "TEMP-01", Name: "Digital Thermometer", NextCalibration: model.MustDate("2024-04-15")}

	assert.True(t, MatchesSchedule(inst, time.April, 2024, ""))
	assert.True(t, MatchesSchedule(inst, time.April, 2024, "thermo"))
	assert.True(t, MatchesSchedule(inst, time.April, 2024, "temp"))
	assert.False(t, MatchesSchedule(inst, time.May, 2024, ""))
	assert.False(t, MatchesSchedule(inst, time.April, 2025, ""))
	assert.False(t, MatchesSchedule(inst, time.April, 2024, "balance"))
	assert.True(t, MatchesSchedule(inst, 0, 0, ""))
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(2024, time.December)
	assert.Equal(t, "2024-12-01", start.String())
	assert.Equal(t, "2025-01-01", end.String())
}
