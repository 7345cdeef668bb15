package calib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibration-qa-backend/internal/model"
)

func TestEvaluateReadings(t *testing.T) {
	inst := &model.Instrument{Code: "PRES-05", Tolerance: "±1%", Range: "0 - 500 PSI"}
	spec, err := SpecFor(inst)
	require.NoError(t, err)

	readings := EvaluateReadings([]model.Reading{
		{TestPoint: 100, AsFound: 101.5, AsLeft: 100.8},
		{TestPoint: 250, AsFound: 254, AsLeft: 253},
		{TestPoint: 0, AsFound: 4, AsLeft: 4},
	}, spec)

	assert.InDelta(t, 0.8, readings[0].Deviation, 1e-9)
	assert.InDelta(t, 1.0, readings[0].Limit, 1e-9)
	assert.True(t, readings[0].Pass)

	assert.InDelta(t, 3.0, readings[1].Deviation, 1e-9)
	assert.InDelta(t, 2.5, readings[1].Limit, 1e-9)
	assert.False(t, readings[1].Pass)

	// Zero test point is judged against 1% of full scale.
	assert.InDelta(t, 5.0, readings[2].Limit, 1e-9)
	assert.True(t, readings[2].Pass)

	assert.False(t, AllPass(readings))
}

func TestEvaluateReadings_OutsideRange(t *testing.T) {
	spec, err := SpecFor(&model.Instrument{Code: "TEMP-01", Tolerance: "±0.5°C", Range: "0 - 100°C"})
	require.NoError(t, err)

	readings := EvaluateReadings([]model.Reading{
		{TestPoint: 100, AsFound: 100.1, AsLeft: 100.1},
		{TestPoint: 120, AsFound: 120.1, AsLeft: 120.1},
	}, spec)

	assert.True(t, readings[0].Pass)
	assert.False(t, readings[0].OutOfRange)
	assert.True(t, readings[1].OutOfRange)
	assert.False(t, readings[1].Pass, "within tolerance but beyond full scale")

	// Without a parsable range every test point is accepted.
	spec, err = SpecFor(&model.Instrument{Code: "X", Range: "n/a"})
	require.NoError(t, err)
	readings = EvaluateReadings([]model.Reading{{TestPoint: 1000, AsLeft: 1000}}, spec)
	assert.True(t, readings[0].Pass)
	assert.False(t, readings[0].OutOfRange)
}

func TestSpecFor_DefaultTolerance(t *testing.T) {
	spec, err := SpecFor(&model.Instrument{Code: "X"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, spec.Tolerance.Value)

	_, err = SpecFor(&model.Instrument{Code: "Y", Tolerance: "loose"})
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	t.Run("empty is a pass", func(t *testing.T) {
		s := Summarize(nil)
		assert.Equal(t, model.ResultPass, s.Result)
	})

	t.Run("worst point drives the summary", func(t *testing.T) {
		s := Summarize([]model.Reading{
			{TestPoint: 10, AsFound: 10.2, AsLeft: 10.1, Deviation: 0.1, Pass: true},
			{TestPoint: 20, AsFound: 21.2, AsLeft: 20.4, Deviation: 0.4, Pass: true},
		})
		assert.Equal(t, 21.2, s.AsFound)
		assert.Equal(t, 20.4, s.AsLeft)
		assert.InDelta(t, 0.8, s.Deviation, 1e-9)
		assert.Equal(t, model.ResultPass, s.Result)
	})

	t.Run("any failure fails", func(t *testing.T) {
		s := Summarize([]model.Reading{
			{Deviation: 0.1, Pass: true},
			{Deviation: 0.05, Pass: false},
		})
		assert.Equal(t, model.ResultFail, s.Result)
	})
}

func TestCompliance(t *testing.T) {
	assert.Equal(t, 100.0, Compliance(nil))

	got := Compliance([]model.Instrument{
		{Status: model.StatusOperational},
		{Status: model.StatusCalibrationDue},
		{Status: model.StatusMaintenance},
	})
	assert.Equal(t, 66.7, got)
}
