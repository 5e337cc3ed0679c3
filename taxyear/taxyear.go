/*
Package taxyear holds the versioned rule tables the payroll engine runs on.

PURPOSE:
  Every figure HMRC publishes for a tax year (personal allowance, income tax
  bands, National Insurance thresholds, student loan thresholds, the
  auto-enrolment qualifying earnings band) lives in one immutable Config.
  The engine never hard-codes a rate; it is handed a Config and walks it.

KEY CONCEPTS IN THIS FILE (taxyear.go):
  - Config: One tax year's complete rule set
  - Band: One marginal income tax band, expressed in taxable income
  - NIClassRates: Three-segment NI structure for one contribution class
  - StudentLoanPlan / PlanRate: Repayment plans and their threshold/rate

BANDS ARE IN TAXABLE INCOME:
  Band bounds are measured after the personal allowance has been taken off,
  so the basic rate band is 0 - 37,700 rather than 12,570 - 50,270. This is
  what lets a tapered or code-derived allowance work without rewriting the
  bands. An optional leading band with rate 0 represents the allowance
  itself and is reported for transparency only.

IMMUTABILITY:
  Configs are built once at start-up (LoadEmbedded, LoadDir, or by hand in
  tests), validated, and deep-copied into a Registry. Nothing mutates them
  afterwards, so one Config can serve any number of concurrent calculations.

SEE ALSO:
  - registry.go: Lookup by tax year with deterministic fallback
  - load.go: YAML decoding of the embedded tables
  - validate.go: Band contiguity and NI weekly/annual agreement checks
*/
package taxyear

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIG - One tax year's rules
// =============================================================================

// Config is the complete rule set for one tax year. Treat it as read-only.
type Config struct {
	Year string

	PersonalAllowance     decimal.Decimal
	TaperThreshold        decimal.Decimal
	BlindPersonsAllowance decimal.Decimal

	// rUK bands (England, Wales, Northern Ireland) and Scottish bands.
	// An empty Scottish list means Scottish taxpayers use the rUK bands.
	IncomeTaxBands         []Band
	ScottishIncomeTaxBands []Band

	NationalInsurance NationalInsurance
	StudentLoans      map[StudentLoanPlan]PlanRate
	AutoEnrolment     QualifyingEarnings
}

// Band is a marginal income tax band. Max == nil means unbounded.
type Band struct {
	Name string
	Rate decimal.Decimal
	Min  decimal.Decimal
	Max  *decimal.Decimal

	// Code is the flat-rate tax code served by this band ("BR", "D0", ...).
	Code string
}

// IsAllowance reports whether the band is the 0% personal allowance band.
func (b Band) IsAllowance() bool {
	return b.Rate.IsZero()
}

// Contains reports whether the next pound above income falls in this band.
func (b Band) Contains(income decimal.Decimal) bool {
	if income.LessThan(b.Min) {
		return false
	}
	return b.Max == nil || income.LessThan(*b.Max)
}

// =============================================================================
// NATIONAL INSURANCE
// =============================================================================

// NationalInsurance carries thresholds in both weekly and annual form, plus
// the rate structure for each contribution class.
type NationalInsurance struct {
	WeeklyLowerEarningsLimit decimal.Decimal
	WeeklyPrimaryThreshold   decimal.Decimal
	WeeklyUpperEarningsLimit decimal.Decimal
	WeeklySecondaryThreshold decimal.Decimal

	LowerEarningsLimit decimal.Decimal
	PrimaryThreshold   decimal.Decimal
	UpperEarningsLimit decimal.Decimal
	SecondaryThreshold decimal.Decimal

	Employee NIClassRates
	Employer NIClassRates
}

// NIClassRates is the three-segment structure shared by employee and
// employer contributions: nothing below Threshold, MainRate up to
// UpperLimit, UpperRate above it.
type NIClassRates struct {
	Threshold  decimal.Decimal
	UpperLimit decimal.Decimal
	MainRate   decimal.Decimal
	UpperRate  decimal.Decimal
}

// =============================================================================
// STUDENT LOANS
// =============================================================================

type StudentLoanPlan string

const (
	Plan1    StudentLoanPlan = "plan1"
	Plan2    StudentLoanPlan = "plan2"
	Plan4    StudentLoanPlan = "plan4"
	Plan5    StudentLoanPlan = "plan5"
	Postgrad StudentLoanPlan = "postgrad"
)

// MainPlans lists the undergraduate plans. A borrower repays under at most
// one of them; the postgraduate loan is repaid alongside.
var MainPlans = []StudentLoanPlan{Plan1, Plan2, Plan4, Plan5}

// IsMain reports whether p is an undergraduate plan.
func (p StudentLoanPlan) IsMain() bool {
	for _, m := range MainPlans {
		if p == m {
			return true
		}
	}
	return false
}

// PlanRate is a flat repayment rate above a threshold.
type PlanRate struct {
	Threshold decimal.Decimal
	Rate      decimal.Decimal
}

// QualifyingEarnings is the auto-enrolment band used as a pension base.
type QualifyingEarnings struct {
	LowerLimit decimal.Decimal
	UpperLimit decimal.Decimal
}

// =============================================================================
// BAND SELECTION
// =============================================================================

// BandsFor returns the band list for a taxpayer. Scottish taxpayers fall
// back to the rUK bands when the table has no Scottish list.
func (c *Config) BandsFor(scottish bool) []Band {
	if scottish && len(c.ScottishIncomeTaxBands) > 0 {
		return c.ScottishIncomeTaxBands
	}
	return c.IncomeTaxBands
}

// BandForCode returns the band that serves a flat-rate code such as "BR".
func BandForCode(bands []Band, code string) (Band, bool) {
	for _, b := range bands {
		if b.Code == code {
			return b, true
		}
	}
	return Band{}, false
}

// Clone returns a deep copy so a Registry never shares slices or maps with
// the caller that built the Config.
func (c *Config) Clone() *Config {
	out := *c
	out.IncomeTaxBands = cloneBands(c.IncomeTaxBands)
	out.ScottishIncomeTaxBands = cloneBands(c.ScottishIncomeTaxBands)
	out.StudentLoans = make(map[StudentLoanPlan]PlanRate, len(c.StudentLoans))
	for k, v := range c.StudentLoans {
		out.StudentLoans[k] = v
	}
	return &out
}

func cloneBands(bands []Band) []Band {
	if bands == nil {
		return nil
	}
	out := make([]Band, len(bands))
	for i, b := range bands {
		out[i] = b
		if b.Max != nil {
			m := *b.Max
			out[i].Max = &m
		}
	}
	return out
}
