package engine

import (
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/taxyear"
)

// =============================================================================
// NATIONAL INSURANCE
// =============================================================================

// NIBandResult is one segment of the three-band NI structure.
type NIBandResult struct {
	Name           string
	Rate           decimal.Decimal
	Min            decimal.Decimal
	Max            *decimal.Decimal
	EarningsInBand decimal.Decimal
	NIDue          decimal.Decimal
}

// NIContribution is one class's contribution with its breakdown.
type NIContribution struct {
	Total decimal.Decimal
	Bands []NIBandResult
}

// NationalInsurance applies the zero / main / upper structure to pay. pay
// is NI-able pay: after salary exchange, before net-pay pension relief.
func NationalInsurance(pay decimal.Decimal, rates taxyear.NIClassRates) NIContribution {
	pay = nonNegative(pay)
	upper := rates.UpperLimit

	zeroBand := NIBandResult{
		Name:           "Below threshold",
		Rate:           decimal.Zero,
		Min:            decimal.Zero,
		Max:            &rates.Threshold,
		EarningsInBand: decimal.Min(pay, rates.Threshold),
		NIDue:          decimal.Zero,
	}
	mainBand := NIBandResult{
		Name: "Main rate",
		Rate: rates.MainRate,
		Min:  rates.Threshold,
		Max:  &upper,
	}
	mainBand.EarningsInBand = nonNegative(decimal.Min(pay, upper).Sub(rates.Threshold))
	mainBand.NIDue = mainBand.EarningsInBand.Mul(rates.MainRate)

	upperBand := NIBandResult{
		Name: "Upper rate",
		Rate: rates.UpperRate,
		Min:  upper,
	}
	upperBand.EarningsInBand = nonNegative(pay.Sub(decimal.Max(upper, rates.Threshold)))
	upperBand.NIDue = upperBand.EarningsInBand.Mul(rates.UpperRate)

	return NIContribution{
		Total: mainBand.NIDue.Add(upperBand.NIDue),
		Bands: []NIBandResult{zeroBand, mainBand, upperBand},
	}
}

// noNI is the result for a worker who pays no NI (e.g. over State Pension
// age). The bands are kept with nothing due; the employer still pays
// secondary contributions.
func noNI(rates taxyear.NIClassRates) NIContribution {
	return NationalInsurance(decimal.Zero, rates)
}
