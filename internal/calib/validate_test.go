package calib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibration-qa-backend/internal/model"
)

func validInstrument() *model.Instrument {
	return &model.Instrument{
		Code:            "TEMP-09",
		Name:            "Data Logger",
		Location:        "Gudang",
		Department:      "Warehouse",
		LastCalibration: model.MustDate("2024-01-01"),
		NextCalibration: model.MustDate("2024-07-01"),
	}
}

func TestValidateInstrument(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(*model.Instrument)
		expected ValidationErrors
	}{
		{
			name:   "Valid",
			mutate: func(*model.Instrument) {},
		},
		{
			name: "All required fields missing",
			mutate: func(i *model.Instrument) {
				*i = model.Instrument{}
			},
			expected: ValidationErrors{
				"code":            MsgCodeRequired,
				"name":            MsgNameRequired,
				"location":        MsgLocationRequired,
				"department":      MsgDepartmentRequired,
				"nextCalibration": MsgNextRequired,
			},
		},
		{
			name: "Whitespace code",
			mutate: func(i *model.Instrument) {
				i.Code = "   "
			},
			expected: ValidationErrors{"code": MsgCodeRequired},
		},
		{
			name: "Next equals last",
			mutate: func(i *model.Instrument) {
				i.NextCalibration = i.LastCalibration
			},
			expected: ValidationErrors{"nextCalibration": MsgNextNotAfterLast},
		},
		{
			name: "Next before last",
			mutate: func(i *model.Instrument) {
				i.NextCalibration = model.MustDate("2023-12-31")
			},
			expected: ValidationErrors{"nextCalibration": MsgNextNotAfterLast},
		},
		{
			name: "No last date only needs next",
			mutate: func(i *model.Instrument) {
				i.LastCalibration = model.Date{}
			},
		},
		{
			name: "Unknown status",
			mutate: func(i *model.Instrument) {
				i.Status = "BROKEN"
			},
			expected: ValidationErrors{"status": MsgInvalidStatus},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inst := validInstrument()
			tc.mutate(inst)
			err := ValidateInstrument(inst)
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tc.expected, verrs)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	today := model.MustDate("2024-03-20")
	inst := &model.Instrument{Code: " NEW-01 "}

	ApplyDefaults(inst, today)

	assert.Equal(t, "NEW-01", inst.Code)
	assert.Equal(t, model.StatusOperational, inst.Status)
	assert.Equal(t, today, inst.LastCalibration)
	assert.Equal(t, "Suhu", inst.Parameter)
	assert.Equal(t, "±0.5", inst.Tolerance)
	assert.Equal(t, model.CalibrationInternal, inst.CalibrationType)

	kept := &model.Instrument{Parameter: "Massa", Status: model.StatusMaintenance, CalibrationType: model.CalibrationExternal}
	ApplyDefaults(kept, today)
	assert.Equal(t, "Massa", kept.Parameter)
	assert.Equal(t, model.StatusMaintenance, kept.Status)
	assert.Equal(t, model.CalibrationExternal, kept.CalibrationType)
}

func TestValidateSettings(t *testing.T) {
	s := model.DefaultSettings()
	assert.NoError(t, ValidateSettings(&s))

	s.DefaultIntervalMonths = 9
	s.DueSoonDays = 0
	err := ValidateSettings(&s)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "defaultIntervalMonths")
	assert.Contains(t, verrs, "dueSoonDays")
}

func TestValidationErrors_Error(t *testing.T) {
	err := ValidationErrors{"name": "b", "code": "a"}
	assert.Equal(t, "validation failed: code: a; name: b", err.Error())
}
