package stress

import (
	"fmt"

	"rent-stress/internal/model"
)

// Row is one evaluated grid cell. Field names are the CSV column names.
type Row struct {
	InterestRate        float64 `json:"interest_rate"`
	RateShockBP         float64 `json:"rate_shock_bp"`
	OccupancyMultiplier float64 `json:"occupancy_multiplier"`
	NetCashflow         float64 `json:"net_cashflow"`
	DSCR                float64 `json:"dscr"`
}

// Table is the full result of one sweep plus the inputs that produced it.
type Table struct {
	Rows []Row

	Cashflow model.BaseCashflow
	BaseRate float64
	Theta    float64
	Debt     float64

	RateShocksBP []float64
	Occupancy    []float64
}

type cellKey struct {
	shock, occ float64
}

// Validate checks the primary-key invariant and that the table covers the
// grid exactly once.
func (t *Table) Validate() error {
	want := len(t.RateShocksBP) * len(t.Occupancy)
	if len(t.Rows) != want {
		return fmt.Errorf("table has %d rows, grid has %d cells: %w", len(t.Rows), want, model.ErrInvalidInput)
	}
	seen := make(map[cellKey]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		k := cellKey{r.RateShockBP, r.OccupancyMultiplier}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("duplicate cell shock=%gbp occupancy=%g: %w",
				r.RateShockBP, r.OccupancyMultiplier, model.ErrInvalidInput)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Lookup returns the row for a cell.
func (t *Table) Lookup(shockBP, occupancy float64) (Row, bool) {
	for _, r := range t.Rows {
		if r.RateShockBP == shockBP && r.OccupancyMultiplier == occupancy {
			return r, true
		}
	}
	return Row{}, false
}

// Column returns the rows for one rate shock, in occupancy order.
func (t *Table) Column(shockBP float64) []Row {
	out := make([]Row, 0, len(t.Occupancy))
	for _, r := range t.Rows {
		if r.RateShockBP == shockBP {
			out = append(out, r)
		}
	}
	return out
}
