package taxyear

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidTable is returned when a tax-year table breaks a structural rule.
	ErrInvalidTable = errors.New("invalid tax year table")

	// ErrUnknownTaxYear is returned by Registry.Get for a year it does not hold.
	// Lookup never returns it; it falls back to the latest table instead.
	ErrUnknownTaxYear = errors.New("unknown tax year")
)

// TableError names the table and field that failed validation.
type TableError struct {
	Year   string
	Field  string
	Reason string
}

func (e *TableError) Error() string {
	return fmt.Sprintf("tax year %s: %s: %s", e.Year, e.Field, e.Reason)
}

func (e *TableError) Unwrap() error {
	return ErrInvalidTable
}

var weeksPerYear = decimal.NewFromInt(52)

// Validate checks the structural invariants of a Config:
//   - rated bands start at 0, are contiguous and strictly increasing
//   - only the last band is unbounded, and the allowance band (if any) is first
//   - weekly NI thresholds agree with the annual ones (annual/52 rounded)
//   - rates lie in [0, 1]
func (c *Config) Validate() error {
	if c.Year == "" {
		return &TableError{Year: "?", Field: "year", Reason: "missing"}
	}
	if c.PersonalAllowance.IsNegative() || c.TaperThreshold.IsNegative() {
		return &TableError{Year: c.Year, Field: "personal_allowance", Reason: "must not be negative"}
	}
	if err := validateBands(c.Year, "income_tax_bands", c.IncomeTaxBands); err != nil {
		return err
	}
	if len(c.ScottishIncomeTaxBands) > 0 {
		if err := validateBands(c.Year, "scottish_income_tax_bands", c.ScottishIncomeTaxBands); err != nil {
			return err
		}
	}
	if err := c.validateNationalInsurance(); err != nil {
		return err
	}
	for plan, pr := range c.StudentLoans {
		if !validRate(pr.Rate) || pr.Threshold.IsNegative() {
			return &TableError{Year: c.Year, Field: "student_loans." + string(plan), Reason: "threshold must be >= 0 and rate in [0,1]"}
		}
	}
	ae := c.AutoEnrolment
	if ae.UpperLimit.LessThan(ae.LowerLimit) {
		return &TableError{Year: c.Year, Field: "auto_enrolment", Reason: "upper limit below lower limit"}
	}
	return nil
}

func validateBands(year, field string, bands []Band) error {
	rated := bands
	if len(rated) > 0 && rated[0].IsAllowance() {
		rated = rated[1:]
	}
	if len(rated) == 0 {
		return &TableError{Year: year, Field: field, Reason: "no rated bands"}
	}

	for i, b := range rated {
		name := fmt.Sprintf("%s[%s]", field, b.Name)
		if b.IsAllowance() {
			return &TableError{Year: year, Field: name, Reason: "0% band must come first"}
		}
		if !validRate(b.Rate) {
			return &TableError{Year: year, Field: name, Reason: "rate must be in [0,1]"}
		}
		if i == 0 && !b.Min.IsZero() {
			return &TableError{Year: year, Field: name, Reason: "first rated band must start at 0"}
		}
		if i > 0 {
			prev := rated[i-1]
			if prev.Max == nil || !prev.Max.Equal(b.Min) {
				return &TableError{Year: year, Field: name, Reason: "bands must be contiguous"}
			}
			if b.Rate.LessThan(prev.Rate) {
				return &TableError{Year: year, Field: name, Reason: "rates must not decrease"}
			}
		}
		if b.Max != nil && !b.Max.GreaterThan(b.Min) {
			return &TableError{Year: year, Field: name, Reason: "max must exceed min"}
		}
		if b.Max == nil && i != len(rated)-1 {
			return &TableError{Year: year, Field: name, Reason: "only the top band may be unbounded"}
		}
	}
	if rated[len(rated)-1].Max != nil {
		return &TableError{Year: year, Field: field, Reason: "top band must be unbounded"}
	}
	return nil
}

func (c *Config) validateNationalInsurance() error {
	ni := c.NationalInsurance
	pairs := []struct {
		field          string
		weekly, annual decimal.Decimal
	}{
		{"lower_earnings_limit", ni.WeeklyLowerEarningsLimit, ni.LowerEarningsLimit},
		{"primary_threshold", ni.WeeklyPrimaryThreshold, ni.PrimaryThreshold},
		{"upper_earnings_limit", ni.WeeklyUpperEarningsLimit, ni.UpperEarningsLimit},
		{"secondary_threshold", ni.WeeklySecondaryThreshold, ni.SecondaryThreshold},
	}
	for _, p := range pairs {
		if p.weekly.IsZero() && p.annual.IsZero() {
			continue
		}
		if !p.annual.Div(weeksPerYear).Round(0).Equal(p.weekly) {
			return &TableError{
				Year:   c.Year,
				Field:  "national_insurance." + p.field,
				Reason: fmt.Sprintf("weekly %s does not agree with annual %s", p.weekly, p.annual),
			}
		}
	}
	if ni.UpperEarningsLimit.LessThan(ni.PrimaryThreshold) {
		return &TableError{Year: c.Year, Field: "national_insurance", Reason: "upper earnings limit below primary threshold"}
	}
	for name, cls := range map[string]NIClassRates{"employee": ni.Employee, "employer": ni.Employer} {
		if !validRate(cls.MainRate) || !validRate(cls.UpperRate) {
			return &TableError{Year: c.Year, Field: "national_insurance." + name, Reason: "rates must be in [0,1]"}
		}
		if cls.UpperLimit.LessThan(cls.Threshold) {
			return &TableError{Year: c.Year, Field: "national_insurance." + name, Reason: "upper limit below threshold"}
		}
	}
	return nil
}

func validRate(r decimal.Decimal) bool {
	return !r.IsNegative() && r.LessThanOrEqual(decimal.NewFromInt(1))
}
