package stress

import (
	"fmt"

	"rent-stress/internal/grid"
	"rent-stress/internal/model"
)

// BasisPointsPerUnit converts a shock in bp to a decimal rate delta.
const BasisPointsPerUnit = 10_000.0

type Engine struct{}

func New() *Engine { return &Engine{} }

// Inputs are the fully resolved inputs of one sweep.
type Inputs struct {
	Cashflow     model.BaseCashflow
	BaseRate     float64
	Theta        float64
	RateShocksBP []float64
	Occupancy    []float64
}

// Run evaluates net cashflow and DSCR over occupancy × rate-shock. Rows are
// ordered occupancy outer, shock inner. A cell with no defined DSCR aborts
// the whole sweep; no partial table is returned.
func (e *Engine) Run(in Inputs) (*Table, error) {
	if err := in.Cashflow.Validate(); err != nil {
		return nil, fmt.Errorf("base cashflow: %w", err)
	}
	if len(in.RateShocksBP) == 0 || len(in.Occupancy) == 0 {
		return nil, fmt.Errorf("empty stress grid (%d shocks, %d occupancy): %w",
			len(in.RateShocksBP), len(in.Occupancy), model.ErrInvalidInput)
	}

	rent := in.Cashflow.GrossAnnualRent
	opex := in.Cashflow.OperatingCostRatio
	debt, err := in.Cashflow.DebtBalance(in.Theta)
	if err != nil {
		return nil, err
	}

	points := grid.Points(in.Occupancy, in.RateShocksBP)
	rows := make([]Row, 0, len(points))

	for _, pt := range points {
		r := in.BaseRate + pt.RateShockBP/BasisPointsPerUnit
		revenue := rent * pt.OccupancyMultiplier

		cf := model.NetCashflow(revenue, opex, r, debt)
		d, err := model.DSCR(revenue, opex, r, debt)
		if err != nil {
			return nil, &DegenerateCellError{
				RateShockBP:         pt.RateShockBP,
				OccupancyMultiplier: pt.OccupancyMultiplier,
				InterestRate:        r,
				Err:                 err,
			}
		}

		rows = append(rows, Row{
			InterestRate:        r,
			RateShockBP:         pt.RateShockBP,
			OccupancyMultiplier: pt.OccupancyMultiplier,
			NetCashflow:         cf,
			DSCR:                d,
		})
	}

	t := &Table{
		Rows:         rows,
		Cashflow:     in.Cashflow,
		BaseRate:     in.BaseRate,
		Theta:        in.Theta,
		Debt:         debt,
		RateShocksBP: append([]float64(nil), in.RateShocksBP...),
		Occupancy:    append([]float64(nil), in.Occupancy...),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// DegenerateCellError identifies the grid cell whose stressed rate left DSCR undefined.
type DegenerateCellError struct {
	RateShockBP         float64
	OccupancyMultiplier float64
	InterestRate        float64
	Err                 error
}

func (e *DegenerateCellError) Error() string {
	return fmt.Sprintf("cell shock=%gbp occupancy=%g: effective rate %g leaves DSCR undefined: %v",
		e.RateShockBP, e.OccupancyMultiplier, e.InterestRate, e.Err)
}

func (e *DegenerateCellError) Unwrap() []error {
	return []error{model.ErrNumericDegeneracy, e.Err}
}
