package model

// Single-period cashflow metrics. Rates are decimals (0.05 = 5%), debt is
// interest-only, revenue is already scaled by occupancy.

// NetOperatingIncome = revenue * (1 - operatingCostRatio).
func NetOperatingIncome(revenue, operatingCostRatio float64) float64 {
	return revenue * (1.0 - operatingCostRatio)
}

// InterestCost is the interest-only debt service for one period.
func InterestCost(interestRate, debtBalance float64) float64 {
	return interestRate * debtBalance
}

// NetCashflow = revenue - operating costs - interest cost.
func NetCashflow(revenue, operatingCostRatio, interestRate, debtBalance float64) float64 {
	operatingCosts := revenue * operatingCostRatio
	return revenue - operatingCosts - InterestCost(interestRate, debtBalance)
}

// DSCR = NOI / interest cost. It is undefined when interest cost is not
// positive, and that case is reported as ErrInvalidInput rather than ±Inf.
func DSCR(revenue, operatingCostRatio, interestRate, debtBalance float64) (float64, error) {
	interest := InterestCost(interestRate, debtBalance)
	if interest <= 0 {
		return 0, invalid("interest_cost", interest, "must be > 0 for DSCR")
	}
	return NetOperatingIncome(revenue, operatingCostRatio) / interest, nil
}

// BreakEvenOccupancy is the occupancy multiplier at which DSCR = 1:
//
//	occupancy* = (r * D) / ((1 - c) * rent)
func BreakEvenOccupancy(interestRate, operatingCostRatio, debtBalance, baseRent float64) float64 {
	return (interestRate * debtBalance) / ((1.0 - operatingCostRatio) * baseRent)
}

// ThetaFromYieldLTV converts a gross yield and LTV into a rent/debt ratio.
// With rent ≈ yield*price and debt ≈ ltv*price, theta ≈ yield/ltv.
func ThetaFromYieldLTV(grossYield, ltv float64) (float64, error) {
	if ltv <= 0 {
		return 0, invalid("ltv", ltv, "must be > 0")
	}
	return grossYield / ltv, nil
}
