/*
Package engine computes UK PAYE deductions and take-home pay.

PURPOSE:
  A pure, deterministic transform from CalculationInputs to a
  CalculationResult, parameterised by the tax-year tables in package
  taxyear. Given the same inputs and tables it always returns the same
  result: no clock, no randomness, no I/O, no shared mutable state.

PIPELINE:
  1. Normalise inputs (clamp amounts, default the work pattern)
  2. Derive overtime and add it to gross pay
  3. Phase one, pre-tax adjustments: pension contributions, split into
     salary exchange (reduces tax AND NI pay) and tax relief (reduces
     taxable income only)
  4. Phase two, deductions: personal allowance, income tax, NI, student loan
  5. If a bonus is present, rerun phases one and two with the bonus added
     and difference the results, capping the extra deductions at the bonus
  6. Assemble period views (annual, monthly, weekly, daily, hourly)

ORDERING RULE:
  Salary exchange comes off BEFORE tax and NI are computed. Net-pay and
  relief-at-source contributions reduce taxable income but leave NI alone.
  Everything else in the pipeline follows from that one rule.

KEY CONCEPTS IN THIS FILE (types.go):
  - CalculationInputs: The canonical request record
  - Region, PayPeriod, PensionScheme: Enumerations with lenient parsing

SEE ALSO:
  - engine.go: Engine and Calculate
  - pipeline.go: The two-phase deduction pipeline
  - result.go: CalculationResult and period conversion
  - factory/inputs.go: JSON boundary that builds CalculationInputs
*/
package engine

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/taxyear"
)

// =============================================================================
// INPUTS - Canonical request record
// =============================================================================

// CalculationInputs is the single canonical input schema. Legacy aliases are
// resolved before this struct is built (see package factory).
type CalculationInputs struct {
	GrossAnnualSalary decimal.Decimal
	TaxYear           string
	Region            Region
	TaxCode           string

	StudentLoanPlans []taxyear.StudentLoanPlan
	HasPostgradLoan  bool

	Pension     PensionInputs
	Bonus       *BonusInputs
	Overtime    *OvertimeInputs
	WorkPattern WorkPattern

	BlindPersonsAllowance bool
	NoNationalInsurance   bool
}

// PensionInputs describes the employee's pension arrangement.
// CashAmount, when positive, replaces the percentage.
type PensionInputs struct {
	Scheme             PensionScheme
	ContributionRate   decimal.Decimal // percent, 0-100
	CashAmount         decimal.Decimal // annual
	QualifyingEarnings bool
	IncludeOvertime    bool
	IncludeBonus       bool
}

// BonusInputs is a one-off payment and the pay frequency it lands in.
type BonusInputs struct {
	Amount          decimal.Decimal
	NormalPayPeriod PayPeriod
}

// OvertimeInputs holds either rate tiers or a cash figure. Cash wins when
// both are present.
type OvertimeInputs struct {
	Tiers      []OvertimeTier
	CashAmount decimal.Decimal
	CashPeriod PayPeriod
}

// OvertimeTier is hours worked per month at a multiple of the normal rate.
type OvertimeTier struct {
	HoursPerMonth decimal.Decimal
	Multiplier    decimal.Decimal
}

// WorkPattern drives hourly/daily conversions and the implied hourly rate.
type WorkPattern struct {
	WeeklyHours  decimal.Decimal
	WeeksPerYear decimal.Decimal
	DaysPerWeek  decimal.Decimal
}

var (
	DefaultWeeklyHours  = decimal.NewFromFloat(37.5)
	DefaultWeeksPerYear = decimal.NewFromInt(52)
	DefaultDaysPerWeek  = decimal.NewFromInt(5)

	// WeeksPerYearExact is the 52.14-week convention (365/7, rounded).
	WeeksPerYearExact = decimal.NewFromFloat(52.14)
)

// =============================================================================
// REGION
// =============================================================================

type Region string

const (
	RegionEngland         Region = "england"
	RegionScotland        Region = "scotland"
	RegionWales           Region = "wales"
	RegionNorthernIreland Region = "northern-ireland"
)

// ParseRegion accepts common spellings; anything unknown is England.
func ParseRegion(s string) Region {
	switch normalizeKey(s) {
	case "scotland", "scottish", "sco":
		return RegionScotland
	case "wales", "welsh", "cymru":
		return RegionWales
	case "northern-ireland", "ni", "northernireland":
		return RegionNorthernIreland
	default:
		return RegionEngland
	}
}

// =============================================================================
// PAY PERIOD
// =============================================================================

type PayPeriod string

const (
	PeriodAnnual     PayPeriod = "annual"
	PeriodMonthly    PayPeriod = "monthly"
	PeriodFourWeekly PayPeriod = "four-weekly"
	PeriodTwoWeekly  PayPeriod = "two-weekly"
	PeriodWeekly     PayPeriod = "weekly"
)

// ParsePayPeriod returns the period for s, or fallback if s is unknown.
func ParsePayPeriod(s string, fallback PayPeriod) PayPeriod {
	switch normalizeKey(s) {
	case "annual", "annually", "yearly", "year":
		return PeriodAnnual
	case "monthly", "month":
		return PeriodMonthly
	case "four-weekly", "fourweekly", "4-weekly", "4weekly":
		return PeriodFourWeekly
	case "two-weekly", "twoweekly", "2-weekly", "fortnightly", "biweekly":
		return PeriodTwoWeekly
	case "weekly", "week":
		return PeriodWeekly
	default:
		return fallback
	}
}

// PeriodsPerYear is the annual divisor for a pay frequency. Weekly-based
// frequencies use the fixed 52-week payroll calendar.
func (p PayPeriod) PeriodsPerYear() decimal.Decimal {
	switch p {
	case PeriodAnnual:
		return decimal.NewFromInt(1)
	case PeriodWeekly:
		return decimal.NewFromInt(52)
	case PeriodTwoWeekly:
		return decimal.NewFromInt(26)
	case PeriodFourWeekly:
		return decimal.NewFromInt(13)
	default:
		return decimal.NewFromInt(12)
	}
}

// =============================================================================
// PENSION SCHEME
// =============================================================================

type PensionScheme string

const (
	PensionNone           PensionScheme = "none"
	PensionAutoEnrolment  PensionScheme = "auto-enrolment"
	PensionNetPay         PensionScheme = "net-pay"
	PensionReliefAtSource PensionScheme = "relief-at-source"
	PensionSalaryExchange PensionScheme = "salary-exchange"
)

// ParsePensionScheme maps the names used by payroll software and the
// original UI ("occupational", "personal", "salary-sacrifice") onto schemes.
func ParsePensionScheme(s string) PensionScheme {
	switch normalizeKey(s) {
	case "auto-enrolment", "autoenrolment", "auto-enrollment", "workplace":
		return PensionAutoEnrolment
	case "net-pay", "netpay", "occupational":
		return PensionNetPay
	case "relief-at-source", "reliefatsource", "ras", "personal":
		return PensionReliefAtSource
	case "salary-exchange", "salaryexchange", "salary-sacrifice", "salarysacrifice":
		return PensionSalaryExchange
	default:
		return PensionNone
	}
}

// ReducesNIPay reports whether contributions come off pay before NI.
func (s PensionScheme) ReducesNIPay() bool {
	return s == PensionSalaryExchange
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ReplaceAll(s, " ", "-")
}
