package engine

import (
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/taxyear"
)

// =============================================================================
// PIPELINE - Phase one (pre-tax adjustments) and phase two (deductions)
// =============================================================================
//
// The baseline and the with-bonus scenario run through the same two
// functions, so the salary-exchange ordering rule lives in exactly one place.

// scenario is everything the phases read that does not depend on pay.
type scenario struct {
	cfg   *taxyear.Config
	code  TaxCode
	bands []taxyear.Band
	in    CalculationInputs
}

// adjustments is the output of phase one.
type adjustments struct {
	GrossPay          decimal.Decimal // salary + overtime (+ bonus)
	Pension           PensionResult
	NIPay             decimal.Decimal // gross pay after salary exchange
	AdjustedNetIncome decimal.Decimal // NI pay after relieved contributions
}

// deductions is the output of phase two.
type deductions struct {
	Allowance     AllowanceResult
	TaxableIncome decimal.Decimal
	IncomeTax     IncomeTaxResult
	EmployeeNI    NIContribution
	EmployerNI    NIContribution
	StudentLoan   StudentLoanResult
}

// Total is tax + employee NI + student loan. Pension is not a deduction in
// this sense: it stays the employee's money.
func (d deductions) Total() decimal.Decimal {
	return d.IncomeTax.Total.Add(d.EmployeeNI.Total).Add(d.StudentLoan.Total)
}

// preTax is phase one. Salary exchange comes off before anything else is
// computed; relieved contributions only reduce income for tax purposes.
func preTax(grossPay decimal.Decimal, pension PensionResult) adjustments {
	niPay := nonNegative(grossPay.Sub(pension.SalaryExchange))
	return adjustments{
		GrossPay:          grossPay,
		Pension:           pension,
		NIPay:             niPay,
		AdjustedNetIncome: nonNegative(niPay.Sub(pension.TaxRelief)),
	}
}

// deduct is phase two.
func (s scenario) deduct(adj adjustments) deductions {
	d := deductions{TaxableIncome: decimal.Zero}

	d.Allowance = PersonalAllowance(s.code, adj.GrossPay, s.cfg, s.in.BlindPersonsAllowance)

	switch s.code.Kind {
	case CodeNoTax:
		d.IncomeTax = NoTax(s.bands)
	case CodeFlatRate:
		d.TaxableIncome = adj.AdjustedNetIncome
		band, _ := taxyear.BandForCode(s.bands, s.code.FlatCode)
		d.IncomeTax = FlatRateTax(d.TaxableIncome, band, s.code.String())
	default:
		d.TaxableIncome = nonNegative(adj.AdjustedNetIncome.Sub(d.Allowance.Allowance))
		d.IncomeTax = IncomeTax(d.TaxableIncome, s.bands)
	}

	nic := s.cfg.NationalInsurance
	d.EmployeeNI = NationalInsurance(adj.NIPay, nic.Employee)
	if s.in.NoNationalInsurance {
		d.EmployeeNI = noNI(nic.Employee)
	}
	d.EmployerNI = NationalInsurance(adj.NIPay, nic.Employer)

	d.StudentLoan = StudentLoan(adj.NIPay, s.in.StudentLoanPlans, s.in.HasPostgradLoan, s.cfg.StudentLoans)
	return d
}

// netPay is what reaches the bank account. The employee contribution is
// subtracted for every scheme: for salary exchange it never became taxable
// pay, for the others it is taken after tax.
func netPay(adj adjustments, d deductions) decimal.Decimal {
	return adj.GrossPay.Sub(d.Total()).Sub(adj.Pension.Employee)
}
