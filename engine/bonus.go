package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// BONUS - Marginal cost of a one-off payment
// =============================================================================

// ExtraDeductions is what the bonus costs in tax, NI and student loan.
type ExtraDeductions struct {
	IncomeTax         decimal.Decimal
	NationalInsurance decimal.Decimal
	StudentLoan       decimal.Decimal
	Total             decimal.Decimal

	// Capped is true when the raw deltas exceeded what the bonus could
	// bear and were scaled down by CappingRatio.
	Capped       bool
	RawTotal     decimal.Decimal
	CappingRatio decimal.Decimal
}

// PeriodBreakdown is one pay period's payslip.
type PeriodBreakdown struct {
	Gross             decimal.Decimal
	IncomeTax         decimal.Decimal
	NationalInsurance decimal.Decimal
	StudentLoan       decimal.Decimal
	Pension           decimal.Decimal
	Net               decimal.Decimal
}

// PeriodComparison sets an ordinary payslip against the one the bonus lands in.
type PeriodComparison struct {
	Period       PayPeriod
	NormalPeriod PeriodBreakdown
	BonusPeriod  PeriodBreakdown
}

// BonusResult is the bonus sub-result.
type BonusResult struct {
	Amount              decimal.Decimal
	PensionContribution decimal.Decimal
	ExtraDeductions     ExtraDeductions
	TakeHome            decimal.Decimal
	Comparison          PeriodComparison
}

// bonus reruns both phases with the bonus added to gross pay and differences
// the result against the baseline. Each delta is floored at zero; if their
// sum exceeds the bonus, all three are scaled by the same ratio. Pension taken
// from the bonus is not part of the cap, so TakeHome can be negative.
func (s scenario) bonus(base adjustments, baseDed deductions, b BonusInputs) *BonusResult {
	pensionOnBonus := PensionOnBonus(b.Amount, s.in.Pension)

	withPension := base.Pension
	withPension.Employee = withPension.Employee.Add(pensionOnBonus)
	withPension.Employer = withPension.Employer.Add(pensionOnBonus)
	if withPension.Scheme.ReducesNIPay() {
		withPension.SalaryExchange = withPension.SalaryExchange.Add(pensionOnBonus)
	} else {
		withPension.TaxRelief = withPension.TaxRelief.Add(pensionOnBonus)
	}
	with := preTax(base.GrossPay.Add(b.Amount), withPension)
	withDed := s.deduct(with)

	dTax := nonNegative(withDed.IncomeTax.Total.Sub(baseDed.IncomeTax.Total))
	dNI := nonNegative(withDed.EmployeeNI.Total.Sub(baseDed.EmployeeNI.Total))
	dSL := nonNegative(withDed.StudentLoan.Total.Sub(baseDed.StudentLoan.Total))
	raw := dTax.Add(dNI).Add(dSL)

	extra := capDeductions(dTax, dNI, dSL, raw, b.Amount)

	res := &BonusResult{
		Amount:              b.Amount,
		PensionContribution: pensionOnBonus,
		ExtraDeductions:     extra,
		TakeHome:            b.Amount.Sub(pensionOnBonus).Sub(extra.Total),
	}
	res.Comparison = comparePeriods(base, baseDed, res, b.NormalPayPeriod)
	return res
}

// capDeductions applies the proportional cap. The ratio is 1 whenever the
// raw total is not positive, so it never divides by zero.
func capDeductions(tax, ni, sl, raw, limit decimal.Decimal) ExtraDeductions {
	one := decimal.NewFromInt(1)
	extra := ExtraDeductions{
		IncomeTax:         tax,
		NationalInsurance: ni,
		StudentLoan:       sl,
		Total:             raw,
		RawTotal:          raw,
		CappingRatio:      one,
	}
	if !raw.IsPositive() || raw.LessThanOrEqual(limit) {
		return extra
	}

	ratio := limit.Div(raw)
	extra.Capped = true
	extra.CappingRatio = ratio
	extra.IncomeTax = tax.Mul(ratio)
	extra.NationalInsurance = ni.Mul(ratio)
	extra.StudentLoan = sl.Mul(ratio)
	// The scaled parts can drift from limit in the last decimal place;
	// the total is the limit by construction.
	extra.Total = limit
	return extra
}

func comparePeriods(base adjustments, d deductions, b *BonusResult, period PayPeriod) PeriodComparison {
	div := period.PeriodsPerYear()
	normal := PeriodBreakdown{
		Gross:             base.GrossPay.Div(div),
		IncomeTax:         d.IncomeTax.Total.Div(div),
		NationalInsurance: d.EmployeeNI.Total.Div(div),
		StudentLoan:       d.StudentLoan.Total.Div(div),
		Pension:           base.Pension.Employee.Div(div),
		Net:               netPay(base, d).Div(div),
	}
	withBonus := PeriodBreakdown{
		Gross:             normal.Gross.Add(b.Amount),
		IncomeTax:         normal.IncomeTax.Add(b.ExtraDeductions.IncomeTax),
		NationalInsurance: normal.NationalInsurance.Add(b.ExtraDeductions.NationalInsurance),
		StudentLoan:       normal.StudentLoan.Add(b.ExtraDeductions.StudentLoan),
		Pension:           normal.Pension.Add(b.PensionContribution),
		Net:               normal.Net.Add(b.TakeHome),
	}
	return PeriodComparison{Period: period, NormalPeriod: normal, BonusPeriod: withBonus}
}
