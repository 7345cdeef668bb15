package calib

import (
	"fmt"
	"math"

	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/parse"
)

// Spec is the acceptance band an instrument's readings are judged against.
type Spec struct {
	Tolerance parse.Tolerance
	Range     parse.Range
}

// SpecFor parses the tolerance and range of inst. An unparsable range is
// tolerated because only percent tolerances at a zero test point need it.
func SpecFor(inst *model.Instrument) (Spec, error) {
	raw := inst.Tolerance
	if raw == "" {
		raw = DefaultTolerance
	}
	tol, err := parse.ParseTolerance(raw)
	if err != nil {
		return Spec{}, fmt.Errorf("instrument %s: %w", inst.Code, err)
	}
	rng, _ := parse.ParseRange(inst.Range)
	return Spec{Tolerance: tol, Range: rng}, nil
}

// EvaluateReadings fills Deviation, Limit and Pass of each reading. The
// deviation is the as-left error against the reference test point. A test
// point outside a known measuring range fails regardless of deviation.
func EvaluateReadings(readings []model.Reading, spec Spec) []model.Reading {
	knownRange := spec.Range.Max > spec.Range.Min
	out := make([]model.Reading, len(readings))
	for i, r := range readings {
		r.Deviation = round(math.Abs(r.AsLeft-r.TestPoint), 6)
		r.Limit = round(spec.Tolerance.Limit(r.TestPoint, spec.Range.Max), 6)
		r.OutOfRange = knownRange && !spec.Range.Contains(r.TestPoint)
		r.Pass = r.Deviation <= r.Limit && !r.OutOfRange
		out[i] = r
	}
	return out
}

// AllPass reports whether every reading is within tolerance.
func AllPass(readings []model.Reading) bool {
	for _, r := range readings {
		if !r.Pass {
			return false
		}
	}
	return true
}

// Summary is the single-line outcome stored on a calibration record.
type Summary struct {
	AsFound   float64
	AsLeft    float64
	Deviation float64
	Result    model.Result
}

// Summarize reduces evaluated readings to the worst test point. Its
// deviation is |asFound - asLeft|, the adjustment made at that point.
func Summarize(readings []model.Reading) Summary {
	s := Summary{Result: model.ResultPass}
	if len(readings) == 0 {
		return s
	}
	worst := readings[0]
	for _, r := range readings[1:] {
		if r.Deviation > worst.Deviation {
			worst = r
		}
	}
	s.AsFound = worst.AsFound
	s.AsLeft = worst.AsLeft
	s.Deviation = round(math.Abs(worst.AsFound-worst.AsLeft), 6)
	if !AllPass(readings) {
		s.Result = model.ResultFail
	}
	return s
}

// Compliance is the share of instruments, in percent, that are neither due
// nor out of service. An empty registry is fully compliant.
func Compliance(instruments []model.Instrument) float64 {
	if len(instruments) == 0 {
		return 100
	}
	ok := 0
	for _, inst := range instruments {
		if inst.Status != model.StatusCalibrationDue && inst.Status != model.StatusOutOfService {
			ok++
		}
	}
	return round(float64(ok)*100/float64(len(instruments)), 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
