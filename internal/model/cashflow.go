package model

// BaseCashflow is the unstressed property cashflow.
// Units:
// - GrossAnnualRent: currency per year at 100% occupancy
// - OperatingCostRatio: fraction of revenue, [0, 1)
type BaseCashflow struct {
	GrossAnnualRent    float64
	OperatingCostRatio float64
}

func (b BaseCashflow) Validate() error {
	if b.GrossAnnualRent <= 0 {
		return invalid("gross_annual_rent", b.GrossAnnualRent, "must be > 0")
	}
	if b.OperatingCostRatio < 0 || b.OperatingCostRatio >= 1 {
		return invalid("operating_cost_ratio", b.OperatingCostRatio, "must be in [0, 1)")
	}
	return nil
}

// DebtBalance is the debt implied by a rent/debt ratio: D = rent / theta.
func (b BaseCashflow) DebtBalance(theta float64) (float64, error) {
	if theta <= 0 {
		return 0, invalid("theta", theta, "rent/debt ratio must be > 0")
	}
	return b.GrossAnnualRent / theta, nil
}
