package stress

import (
	"fmt"
	"math"
	"sort"

	"rent-stress/internal/model"
)

// Field selects the value pivoted into a Surface.
type Field string

const (
	FieldDSCR         Field = "dscr"
	FieldDSCRGap      Field = "dscr_gap"
	FieldNetCashflow  Field = "net_cashflow"
	FieldInterestRate Field = "interest_rate"
)

func (f Field) value(r Row) (float64, error) {
	switch f {
	case FieldDSCR:
		return r.DSCR, nil
	case FieldDSCRGap:
		return r.DSCR - 1, nil
	case FieldNetCashflow:
		return r.NetCashflow, nil
	case FieldInterestRate:
		return r.InterestRate, nil
	default:
		return 0, fmt.Errorf("unknown surface field %q: %w", string(f), model.ErrInvalidInput)
	}
}

// Surface is the table pivoted to a matrix: Values[i][j] is the cell at
// Occupancy[i] and Shocks[j]. Both axes are ascending.
type Surface struct {
	Field     Field       `json:"field"`
	Shocks    []float64   `json:"rate_shock_bp"`
	Occupancy []float64   `json:"occupancy_multiplier"`
	Values    [][]float64 `json:"values"`
}

func Pivot(t *Table, field Field) (*Surface, error) {
	if _, err := field.value(Row{}); err != nil {
		return nil, err
	}
	shocks := sortedCopy(t.RateShocksBP)
	occ := sortedCopy(t.Occupancy)

	si := indexOf(shocks)
	oi := indexOf(occ)

	vals := make([][]float64, len(occ))
	for i := range vals {
		vals[i] = make([]float64, len(shocks))
		for j := range vals[i] {
			vals[i][j] = math.NaN()
		}
	}
	for _, r := range t.Rows {
		v, _ := field.value(r)
		vals[oi[r.OccupancyMultiplier]][si[r.RateShockBP]] = v
	}
	return &Surface{Field: field, Shocks: shocks, Occupancy: occ, Values: vals}, nil
}

func sortedCopy(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}

func indexOf(xs []float64) map[float64]int {
	m := make(map[float64]int, len(xs))
	for i, x := range xs {
		m[x] = i
	}
	return m
}

// Summary aggregates a table for reports and API responses.
type Summary struct {
	Cells                 int     `json:"cells"`
	MinDSCR               float64 `json:"min_dscr"`
	MaxDSCR               float64 `json:"max_dscr"`
	CellsBelowBreakEven   int     `json:"cells_below_break_even"`
	NegativeCashflowCells int     `json:"negative_cashflow_cells"`
	Worst                 Row     `json:"worst"`
	Base                  *Row    `json:"base,omitempty"`
}

// Summarize reports DSCR extremes and how many cells fall below DSCR 1 or
// cashflow 0. Base is the zero-shock, full-occupancy cell when the grid
// contains it.
func Summarize(t *Table) Summary {
	s := Summary{Cells: len(t.Rows), MinDSCR: math.Inf(1), MaxDSCR: math.Inf(-1)}
	for _, r := range t.Rows {
		if r.DSCR < s.MinDSCR {
			s.MinDSCR = r.DSCR
			s.Worst = r
		}
		if r.DSCR > s.MaxDSCR {
			s.MaxDSCR = r.DSCR
		}
		if r.DSCR < 1 {
			s.CellsBelowBreakEven++
		}
		if r.NetCashflow < 0 {
			s.NegativeCashflowCells++
		}
	}
	if len(t.Rows) == 0 {
		s.MinDSCR, s.MaxDSCR = 0, 0
	}
	if base, ok := t.Lookup(0, 1); ok {
		s.Base = &base
	}
	return s
}
