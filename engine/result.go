package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT
// =============================================================================

// PeriodAmounts is one annual figure in every pay frequency.
type PeriodAmounts struct {
	Annual  decimal.Decimal
	Monthly decimal.Decimal
	Weekly  decimal.Decimal
	Daily   decimal.Decimal
	Hourly  decimal.Decimal
}

// NationalInsuranceResult holds both contribution classes. Only the
// employee contribution is a deduction from pay.
type NationalInsuranceResult struct {
	Employee NIContribution
	Employer NIContribution
}

// CalculationResult is a fresh value per call; nothing in it is shared with
// the inputs or the tax-year tables.
type CalculationResult struct {
	TaxYear string
	Region  Region
	TaxCode TaxCode

	ContractualSalary decimal.Decimal
	Gross             PeriodAmounts
	Net               PeriodAmounts

	PersonalAllowance AllowanceResult
	AdjustedNetIncome decimal.Decimal
	TaxableIncome     decimal.Decimal

	IncomeTax         IncomeTaxResult
	NationalInsurance NationalInsuranceResult
	StudentLoan       StudentLoanResult
	Pension           PensionResult

	// TotalDeductions is tax + employee NI + student loan.
	TotalDeductions decimal.Decimal
	// EffectiveRate is TotalDeductions / gross pay; zero for zero pay.
	EffectiveRate decimal.Decimal
	MarginalRates MarginalRates

	Overtime *OvertimeResult
	Bonus    *BonusResult
}

// Periods converts an annual figure using the work pattern. Monthly always
// divides by 12; the weekly-based views follow WeeksPerYear.
func Periods(annual decimal.Decimal, wp WorkPattern) PeriodAmounts {
	return PeriodAmounts{
		Annual:  annual,
		Monthly: annual.Div(monthsPerYear),
		Weekly:  safeDiv(annual, wp.WeeksPerYear),
		Daily:   safeDiv(annual, wp.WeeksPerYear.Mul(wp.DaysPerWeek)),
		Hourly:  safeDiv(annual, wp.WeeksPerYear.Mul(wp.WeeklyHours)),
	}
}

func safeDiv(n, d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	return n.Div(d)
}

func (s scenario) assemble(adj adjustments, d deductions, ot *OvertimeResult, bonus *BonusResult) *CalculationResult {
	wp := s.in.WorkPattern
	total := d.Total()
	return &CalculationResult{
		TaxYear:           s.cfg.Year,
		Region:            s.in.Region,
		TaxCode:           s.code,
		ContractualSalary: s.in.GrossAnnualSalary,
		Gross:             Periods(adj.GrossPay, wp),
		Net:               Periods(netPay(adj, d), wp),
		PersonalAllowance: d.Allowance,
		AdjustedNetIncome: adj.AdjustedNetIncome,
		TaxableIncome:     d.TaxableIncome,
		IncomeTax:         d.IncomeTax,
		NationalInsurance: NationalInsuranceResult{Employee: d.EmployeeNI, Employer: d.EmployerNI},
		StudentLoan:       d.StudentLoan,
		Pension:           adj.Pension,
		TotalDeductions:   total,
		EffectiveRate:     safeDiv(total, adj.GrossPay),
		MarginalRates:     s.marginal(adj, d),
		Overtime:          ot,
		Bonus:             bonus,
	}
}
