package engine

import (
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/taxyear"
)

// =============================================================================
// PENSION
// =============================================================================

// PensionResult splits the employee contribution by how it is relieved:
// SalaryExchange comes off pay before tax and NI, TaxRelief comes off
// taxable income only. Exactly one of them equals Employee.
type PensionResult struct {
	Scheme              PensionScheme
	PensionableEarnings decimal.Decimal
	QualifyingEarnings  bool
	Employee            decimal.Decimal
	Employer            decimal.Decimal
	SalaryExchange      decimal.Decimal
	TaxRelief           decimal.Decimal
}

// Pension computes contributions on contractual salary plus, when opted in,
// overtime. The employer is assumed to match the employee amount.
func Pension(salary, overtime decimal.Decimal, in PensionInputs, ae taxyear.QualifyingEarnings) PensionResult {
	res := PensionResult{
		Scheme:              in.Scheme,
		PensionableEarnings: decimal.Zero,
		Employee:            decimal.Zero,
		Employer:            decimal.Zero,
		SalaryExchange:      decimal.Zero,
		TaxRelief:           decimal.Zero,
	}
	if in.Scheme == PensionNone {
		return res
	}

	base := salary
	res.QualifyingEarnings = in.QualifyingEarnings || in.Scheme == PensionAutoEnrolment
	if res.QualifyingEarnings {
		base = QualifyingEarningsBase(salary, ae)
	}
	if in.IncludeOvertime {
		base = base.Add(overtime)
	}
	res.PensionableEarnings = base

	employee := base.Mul(in.ContributionRate).Div(hundred)
	if in.CashAmount.IsPositive() {
		employee = in.CashAmount
	}
	// A contribution can never exceed the pay it is taken from.
	employee = decimal.Min(employee, salary.Add(overtime))

	res.Employee = employee
	res.Employer = employee
	if in.Scheme.ReducesNIPay() {
		res.SalaryExchange = employee
	} else {
		res.TaxRelief = employee
	}
	return res
}

// QualifyingEarningsBase narrows pay to the auto-enrolment band:
// clamp(pay, lower, upper) - lower.
func QualifyingEarningsBase(pay decimal.Decimal, ae taxyear.QualifyingEarnings) decimal.Decimal {
	return clamp(pay, ae.LowerLimit, ae.UpperLimit).Sub(ae.LowerLimit)
}

// PensionOnBonus is the extra contribution taken from a bonus when the
// caller includes bonuses in pensionable pay. A fixed cash contribution
// does not grow with a bonus.
func PensionOnBonus(bonus decimal.Decimal, in PensionInputs) decimal.Decimal {
	if in.Scheme == PensionNone || !in.IncludeBonus || in.CashAmount.IsPositive() {
		return decimal.Zero
	}
	return bonus.Mul(in.ContributionRate).Div(hundred)
}
