package stress

import (
	"sort"

	"rent-stress/internal/model"
)

// BreakEvenPoint compares the closed-form DSCR=1 occupancy with the
// crossing found in the swept table for one rate shock.
type BreakEvenPoint struct {
	RateShockBP  float64 `json:"rate_shock_bp"`
	InterestRate float64 `json:"interest_rate"`
	Analytical   float64 `json:"analytical_occupancy"`
	// Numeric is valid only when HasNumeric; the swept occupancy band may
	// not bracket DSCR = 1.
	Numeric    float64 `json:"numeric_occupancy,omitempty"`
	HasNumeric bool    `json:"has_numeric"`
}

// AnalyticalOccupancy returns the DSCR=1 occupancy for each shock.
func AnalyticalOccupancy(cf model.BaseCashflow, baseRate, debt float64, shocksBP []float64) []float64 {
	out := make([]float64, len(shocksBP))
	for i, s := range shocksBP {
		r := baseRate + s/BasisPointsPerUnit
		out[i] = model.BreakEvenOccupancy(r, cf.OperatingCostRatio, debt, cf.GrossAnnualRent)
	}
	return out
}

// NumericBreakEven finds where DSCR crosses 1 along a shock's column by
// linear interpolation between adjacent occupancy rows.
func NumericBreakEven(t *Table, shockBP float64) (float64, bool) {
	col := t.Column(shockBP)
	sort.Slice(col, func(i, j int) bool {
		return col[i].OccupancyMultiplier < col[j].OccupancyMultiplier
	})
	for i := range col {
		if col[i].DSCR == 1 {
			return col[i].OccupancyMultiplier, true
		}
		if i == 0 {
			continue
		}
		lo, hi := col[i-1], col[i]
		if (lo.DSCR-1)*(hi.DSCR-1) < 0 {
			frac := (1 - lo.DSCR) / (hi.DSCR - lo.DSCR)
			return lo.OccupancyMultiplier + frac*(hi.OccupancyMultiplier-lo.OccupancyMultiplier), true
		}
	}
	return 0, false
}

// BreakEvenCurve evaluates both break-even measures for every shock in t.
func BreakEvenCurve(t *Table) []BreakEvenPoint {
	analytical := AnalyticalOccupancy(t.Cashflow, t.BaseRate, t.Debt, t.RateShocksBP)
	out := make([]BreakEvenPoint, len(t.RateShocksBP))
	for i, s := range t.RateShocksBP {
		p := BreakEvenPoint{
			RateShockBP:  s,
			InterestRate: t.BaseRate + s/BasisPointsPerUnit,
			Analytical:   analytical[i],
		}
		p.Numeric, p.HasNumeric = NumericBreakEven(t, s)
		out[i] = p
	}
	return out
}
