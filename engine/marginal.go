package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MARGINAL RATES
// =============================================================================

// MarginalRates is the share of the next pound of pay lost to each deduction.
type MarginalRates struct {
	IncomeTax         decimal.Decimal
	NationalInsurance decimal.Decimal
	StudentLoan       decimal.Decimal
	Combined          decimal.Decimal
}

// taperFactor: inside the taper zone an extra pound of income also removes
// fifty pence of allowance, so taxable income grows by £1.50.
var taperFactor = decimal.NewFromFloat(1.5)

// marginal reads the rates off the segments the baseline already landed in.
// Rates are per pound of pay after pension adjustments.
func (s scenario) marginal(adj adjustments, d deductions) MarginalRates {
	m := MarginalRates{
		IncomeTax:         s.marginalTax(adj, d),
		NationalInsurance: decimal.Zero,
		StudentLoan:       decimal.Zero,
	}

	if !s.in.NoNationalInsurance {
		ee := s.cfg.NationalInsurance.Employee
		switch {
		case adj.NIPay.LessThan(ee.Threshold):
		case adj.NIPay.LessThan(ee.UpperLimit):
			m.NationalInsurance = ee.MainRate
		default:
			m.NationalInsurance = ee.UpperRate
		}
	}

	for _, p := range d.StudentLoan.Plans {
		if adj.NIPay.GreaterThanOrEqual(p.Threshold) {
			m.StudentLoan = m.StudentLoan.Add(p.Rate)
		}
	}

	m.Combined = m.IncomeTax.Add(m.NationalInsurance).Add(m.StudentLoan)
	return m
}

func (s scenario) marginalTax(adj adjustments, d deductions) decimal.Decimal {
	switch s.code.Kind {
	case CodeNoTax:
		return decimal.Zero
	case CodeFlatRate:
		if len(d.IncomeTax.Bands) == 1 {
			return d.IncomeTax.Bands[0].Rate
		}
		return decimal.Zero
	}

	// Still inside the allowance: the next pound is tax free.
	if adj.AdjustedNetIncome.LessThan(d.Allowance.Allowance) {
		return decimal.Zero
	}

	rate := decimal.Zero
	for _, b := range s.bands {
		if b.Rate.IsPositive() && b.Contains(d.TaxableIncome) {
			rate = b.Rate
			break
		}
	}

	if s.inTaperZone(adj, d) {
		rate = rate.Mul(taperFactor)
	}
	return rate
}

func (s scenario) inTaperZone(adj adjustments, d deductions) bool {
	if s.code.Kind == CodeK {
		return false
	}
	tapered := d.Allowance.Base.Sub(d.Allowance.Reduction)
	return adj.GrossPay.GreaterThanOrEqual(s.cfg.TaperThreshold) && tapered.IsPositive()
}
