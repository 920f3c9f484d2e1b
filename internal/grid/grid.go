// Package grid resolves stress-axis specifications into concrete, ordered
// value sequences.
//
// Two input shapes are accepted:
//   - an explicit list of values (legacy configs), sorted and de-duplicated
//   - an inclusive {start, stop, step} range
//
// Range generation is tolerance-aware so that a configured endpoint such as a
// worst-case shock is never dropped to floating-point step accumulation.
package grid

import (
	"fmt"
	"math"
	"sort"

	"rent-stress/internal/model"

	"github.com/shopspring/decimal"
)

const (
	// DefaultFloorSlack absorbs accumulation error when counting steps
	// and when testing generated values against stop.
	DefaultFloorSlack = 1e-12

	// DefaultEndpointTolerance is how far the last generated value may sit
	// below stop before stop is appended explicitly.
	DefaultEndpointTolerance = 1e-8

	// DefaultDecimals is the rounding precision for basis points and
	// occupancy multipliers.
	DefaultDecimals = 6

	// MaxPoints caps a single axis. Stress grids are tens of points.
	MaxPoints = 100_000
)

// Range is an inclusive linear range.
type Range struct {
	Start float64
	Stop  float64
	Step  float64
}

// Spec is either an explicit value list or a range. Exactly one is set.
type Spec struct {
	Values []float64
	Range  *Range
}

// FromValues builds an explicit-list spec.
func FromValues(values ...float64) Spec {
	return Spec{Values: append([]float64(nil), values...)}
}

// FromRange builds a range spec.
func FromRange(start, stop, step float64) Spec {
	return Spec{Range: &Range{Start: start, Stop: stop, Step: step}}
}

func (s Spec) IsExplicit() bool { return s.Range == nil && s.Values != nil }

func (s Spec) String() string {
	if s.Range != nil {
		return fmt.Sprintf("range[%g..%g step %g]", s.Range.Start, s.Range.Stop, s.Range.Step)
	}
	return fmt.Sprintf("values%v", s.Values)
}

// Options holds the tolerance and rounding constants used for ranges.
type Options struct {
	FloorSlack        float64
	EndpointTolerance float64
	Decimals          int32
}

// DefaultOptions returns the standard tolerances.
func DefaultOptions() Options {
	return Options{
		FloorSlack:        DefaultFloorSlack,
		EndpointTolerance: DefaultEndpointTolerance,
		Decimals:          DefaultDecimals,
	}
}

// Generate resolves spec with DefaultOptions.
func Generate(spec Spec) ([]float64, error) {
	return DefaultOptions().Generate(spec)
}

// Generate resolves spec into a sorted sequence.
func (o Options) Generate(spec Spec) ([]float64, error) {
	switch {
	case spec.Range != nil:
		return o.inclusiveRange(*spec.Range)
	case spec.Values != nil:
		return explicit(spec.Values)
	default:
		return nil, fmt.Errorf("grid spec has neither values nor range: %w", model.ErrInvalidInput)
	}
}

func explicit(values []float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("explicit grid is empty: %w", model.ErrInvalidInput)
	}
	if len(values) > MaxPoints {
		return nil, fmt.Errorf("explicit grid has %d values, limit is %d: %w", len(values), MaxPoints, model.ErrInvalidInput)
	}
	return unique(append([]float64(nil), values...)), nil
}

func (o Options) inclusiveRange(r Range) ([]float64, error) {
	if r.Step <= 0 {
		return nil, &model.InvalidInputError{Field: "step", Value: r.Step, Reason: "must be > 0"}
	}
	if math.IsNaN(r.Start) || math.IsNaN(r.Stop) || math.IsNaN(r.Step) || math.IsInf(r.Start, 0) || math.IsInf(r.Stop, 0) {
		return nil, fmt.Errorf("grid range bounds must be finite: %w", model.ErrInvalidInput)
	}

	count := math.Floor((r.Stop-r.Start)/r.Step+o.FloorSlack) + 1
	if count > MaxPoints {
		return nil, &model.InvalidInputError{
			Field:  "step",
			Value:  r.Step,
			Reason: fmt.Sprintf("range %g..%g yields more than %d points", r.Start, r.Stop, MaxPoints),
		}
	}
	n := int(count)
	vals := make([]float64, 0, max(n, 1)+1)
	for i := 0; i < n; i++ {
		v := r.Start + r.Step*float64(i)
		if v > r.Stop+o.FloorSlack {
			break
		}
		vals = append(vals, o.round(v))
	}

	if len(vals) == 0 {
		vals = append(vals, o.round(r.Start))
	}

	last := vals[len(vals)-1]
	if math.Abs(last-r.Stop) > o.EndpointTolerance && r.Stop >= last+o.EndpointTolerance {
		vals = append(vals, o.round(r.Stop))
	}

	return unique(vals), nil
}

// round snaps v to a fixed number of decimals so that values produced by
// different step accumulations compare equal.
func (o Options) round(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(o.Decimals).Float64()
	return f
}

func unique(vals []float64) []float64 {
	sort.Float64s(vals)
	out := vals[:0]
	for i, v := range vals {
		if i > 0 && v == out[len(out)-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Point is one resolved cell of the stress grid.
type Point struct {
	RateShockBP         float64
	OccupancyMultiplier float64
}

// Points returns the Cartesian product, occupancy outer and shock inner.
func Points(occupancy, shocksBP []float64) []Point {
	out := make([]Point, 0, len(occupancy)*len(shocksBP))
	for _, occ := range occupancy {
		for _, s := range shocksBP {
			out = append(out, Point{RateShockBP: s, OccupancyMultiplier: occ})
		}
	}
	return out
}
