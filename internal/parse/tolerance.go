package parse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	toleranceRe = regexp.MustCompile(`^(?:±|\+/-|\+-)?\s*([0-9]+(?:[.,][0-9]+)?)\s*(%?)\s*(.*)$`)
	rangeRe     = regexp.MustCompile(`^(-?[0-9]+(?:[.,][0-9]+)?)\s*(?:-|–|to|s/d)\s*(-?[0-9]+(?:[.,][0-9]+)?)\s*(.*)$`)
)

// Tolerance is a parsed acceptance band such as "±0.5°C" or "±1%".
type Tolerance struct {
	Value   float64
	Percent bool
	Unit    string
}

// ParseTolerance extracts the magnitude and unit of a tolerance string.
// A leading ± is optional.
func ParseTolerance(raw string) (Tolerance, error) {
	s := strings.TrimSpace(raw)
	m := toleranceRe.FindStringSubmatch(s)
	if m == nil {
		return Tolerance{}, fmt.Errorf("unable to parse tolerance: %q", raw)
	}
	v, err := parseNumber(m[1])
	if err != nil {
		return Tolerance{}, fmt.Errorf("unable to parse tolerance %q: %w", raw, err)
	}
	return Tolerance{
		Value:   v,
		Percent: m[2] == "%",
		Unit:    strings.TrimSpace(m[3]),
	}, nil
}

// Limit returns the absolute allowed deviation at testPoint. Percent
// tolerances scale with the test point, or with rangeMax at a zero point.
func (t Tolerance) Limit(testPoint, rangeMax float64) float64 {
	if !t.Percent {
		return t.Value
	}
	base := math.Abs(testPoint)
	if base == 0 {
		base = math.Abs(rangeMax)
	}
	return t.Value / 100 * base
}

// String renders the tolerance in its canonical "±v unit" form.
func (t Tolerance) String() string {
	v := strconv.FormatFloat(t.Value, 'f', -1, 64)
	if t.Percent {
		return "±" + v + "%"
	}
	return "±" + v + t.Unit
}

// Range is a parsed measuring range such as "0 - 100°C".
type Range struct {
	Min  float64
	Max  float64
	Unit string
}

// ParseRange parses "min - max unit". Bounds may be given in either order.
func ParseRange(raw string) (Range, error) {
	s := strings.TrimSpace(raw)
	m := rangeRe.FindStringSubmatch(s)
	if m == nil {
		return Range{}, fmt.Errorf("unable to parse range: %q", raw)
	}
	lo, err := parseNumber(m[1])
	if err != nil {
		return Range{}, fmt.Errorf("unable to parse range %q: %w", raw, err)
	}
	hi, err := parseNumber(m[2])
	if err != nil {
		return Range{}, fmt.Errorf("unable to parse range %q: %w", raw, err)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return Range{Min: lo, Max: hi, Unit: strings.TrimSpace(m[3])}, nil
}

// Contains reports whether v lies inside the range, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// parseNumber accepts both "0.5" and the Indonesian "0,5".
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
