/*
Package factory converts JSON calculation requests into engine inputs.

PURPOSE:
  The engine takes one canonical record, engine.CalculationInputs. Callers
  (the HTTP API, the CLI, saved calculations) speak JSON, and older
  clients still send the legacy field names. This package is the single
  place where aliases are resolved and floats become decimals, so the
  calculators never see either.

JSON SCHEMA:
  {
    "grossAnnualSalary": 45000,
    "taxYear": "2025-26",
    "region": "scotland",
    "taxCode": "S1257L",
    "studentLoanPlans": ["plan2"],
    "hasPostgradLoan": true,
    "pensionType": "salary-exchange",
    "pensionContributionRate": 5,
    "includeBonusInPension": true,
    "bonusAmount": 4000,
    "normalPayPeriod": "monthly",
    "overtime": {"tiers": [{"hoursPerMonth": 8, "multiplier": 1.5}]},
    "weeklyHours": 37.5
  }

LEGACY ALIASES (canonical field wins when both are present):
  grossSalary + payPeriod    -> grossAnnualSalary
  studentLoanPlan            -> studentLoanPlans
  pensionContribution        -> pensionContributionRate
  salaryExchange: true       -> pensionType "salary-exchange"
  isScottishTaxpayer: true   -> region "scotland"
  overtimeHours/Multiplier   -> overtime.tiers[0]
  overtimeCashAmount         -> overtime.cashAmount

VALIDATION:
  Only what no fallback can repair is rejected: non-finite numbers and more
  than two overtime tiers. Everything else is clamped or defaulted by the
  engine.

SEE ALSO:
  - engine/types.go: CalculationInputs
  - api/handlers.go: HTTP callers
*/
package factory

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/engine"
	"github.com/warp/paye-engine/taxyear"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// InputsJSON is the wire form of a calculation request.
type InputsJSON struct {
	GrossAnnualSalary *float64 `json:"grossAnnualSalary,omitempty" validate:"omitempty,finite"`
	GrossSalary       *float64 `json:"grossSalary,omitempty" validate:"omitempty,finite"` // legacy
	PayPeriod         string   `json:"payPeriod,omitempty"`                              // period of grossSalary

	TaxYear            string `json:"taxYear,omitempty" validate:"max=16"`
	Region             string `json:"region,omitempty"`
	IsScottishTaxpayer bool   `json:"isScottishTaxpayer,omitempty"` // legacy
	TaxCode            string `json:"taxCode,omitempty" validate:"max=16"`

	StudentLoanPlans []string `json:"studentLoanPlans,omitempty"`
	StudentLoanPlan  string   `json:"studentLoanPlan,omitempty"` // legacy
	HasPostgradLoan  bool     `json:"hasPostgradLoan,omitempty"`

	PensionType                 string   `json:"pensionType,omitempty"`
	PensionContributionRate     *float64 `json:"pensionContributionRate,omitempty" validate:"omitempty,finite"`
	PensionContribution         *float64 `json:"pensionContribution,omitempty" validate:"omitempty,finite"` // legacy
	SalaryExchange              bool     `json:"salaryExchange,omitempty"`                                   // legacy
	PensionCashAmount           float64  `json:"pensionCashAmount,omitempty" validate:"finite"`
	PensionOnQualifyingEarnings bool     `json:"pensionOnQualifyingEarnings,omitempty"`
	IncludeBonusInPension       bool     `json:"includeBonusInPension,omitempty"`
	IncludeOvertimeInPension    bool     `json:"includeOvertimeInPension,omitempty"`

	BonusAmount     float64 `json:"bonusAmount,omitempty" validate:"finite"`
	NormalPayPeriod string  `json:"normalPayPeriod,omitempty"`

	Overtime           *OvertimeJSON `json:"overtime,omitempty"`
	OvertimeHours      float64       `json:"overtimeHours,omitempty" validate:"finite"`      // legacy
	OvertimeMultiplier float64       `json:"overtimeMultiplier,omitempty" validate:"finite"` // legacy
	OvertimeCashAmount float64       `json:"overtimeCashAmount,omitempty" validate:"finite"` // legacy

	WeeklyHours  float64 `json:"weeklyHours,omitempty" validate:"finite"`
	WeeksPerYear float64 `json:"weeksPerYear,omitempty" validate:"finite"`
	DaysPerWeek  float64 `json:"daysPerWeek,omitempty" validate:"finite"`

	HasBlindPersonAllowance bool `json:"hasBlindPersonAllowance,omitempty"`
	NoNationalInsurance     bool `json:"noNationalInsurance,omitempty"`
}

// OvertimeJSON is either rate tiers or a cash figure.
type OvertimeJSON struct {
	Tiers      []OvertimeTierJSON `json:"tiers,omitempty" validate:"max=2,dive"`
	CashAmount float64            `json:"cashAmount,omitempty" validate:"finite"`
	CashPeriod string             `json:"cashPeriod,omitempty"`
}

// OvertimeTierJSON is hours per month at a multiple of the normal rate.
type OvertimeTierJSON struct {
	HoursPerMonth float64 `json:"hoursPerMonth" validate:"finite"`
	Multiplier    float64 `json:"multiplier" validate:"finite"`
}

// =============================================================================
// VALIDATION
// =============================================================================

var validate *validator.Validate

func init() {
	validate = validator.New()

	// NaN and infinities cannot be repaired by clamping.
	_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
}

// Validate checks the request and reports the first failing field as an
// *engine.InputError, so callers handle every input failure the same way.
func Validate(ij InputsJSON) error {
	err := validate.Struct(ij)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate inputs: %w", err)
	}
	return fieldError(verrs[0])
}

func fieldError(e validator.FieldError) error {
	field := jsonFieldName(e.Namespace())
	switch e.Tag() {
	case "finite":
		return &engine.InputError{Field: field, Reason: "must be a finite number"}
	case "max":
		if e.Kind().String() == "slice" {
			return &engine.InputError{Field: field, Reason: fmt.Sprintf("at most %s entries", e.Param())}
		}
		return &engine.InputError{Field: field, Reason: fmt.Sprintf("at most %s characters", e.Param())}
	default:
		return &engine.InputError{Field: field, Reason: "is invalid"}
	}
}

// jsonFieldName turns "InputsJSON.Overtime.Tiers[0].Multiplier" into
// "overtime.tiers[0].multiplier".
func jsonFieldName(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

// =============================================================================
// CONVERSION
// =============================================================================

// ParseInputs decodes and converts a JSON request.
func ParseInputs(data []byte) (engine.CalculationInputs, error) {
	var ij InputsJSON
	if err := json.Unmarshal(data, &ij); err != nil {
		return engine.CalculationInputs{}, &engine.InputError{Field: "body", Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return ToInputs(ij)
}

// ToInputs validates ij and resolves every legacy alias.
func ToInputs(ij InputsJSON) (engine.CalculationInputs, error) {
	if err := Validate(ij); err != nil {
		return engine.CalculationInputs{}, err
	}

	wp := engine.WorkPattern{
		WeeklyHours:  decimal.NewFromFloat(ij.WeeklyHours),
		WeeksPerYear: decimal.NewFromFloat(ij.WeeksPerYear),
		DaysPerWeek:  decimal.NewFromFloat(ij.DaysPerWeek),
	}

	in := engine.CalculationInputs{
		GrossAnnualSalary:     annualSalary(ij, wp),
		TaxYear:               ij.TaxYear,
		Region:                engine.ParseRegion(ij.Region),
		TaxCode:               ij.TaxCode,
		HasPostgradLoan:       ij.HasPostgradLoan,
		WorkPattern:           wp,
		BlindPersonsAllowance: ij.HasBlindPersonAllowance,
		NoNationalInsurance:   ij.NoNationalInsurance,
	}
	if ij.IsScottishTaxpayer {
		in.Region = engine.RegionScotland
	}

	plans := ij.StudentLoanPlans
	if len(plans) == 0 && ij.StudentLoanPlan != "" {
		plans = []string{ij.StudentLoanPlan}
	}
	for _, p := range plans {
		in.StudentLoanPlans = append(in.StudentLoanPlans, taxyear.StudentLoanPlan(p))
	}

	in.Pension = pensionInputs(ij)

	if ij.BonusAmount > 0 {
		in.Bonus = &engine.BonusInputs{
			Amount:          decimal.NewFromFloat(ij.BonusAmount),
			NormalPayPeriod: engine.PayPeriod(ij.NormalPayPeriod),
		}
	}

	in.Overtime = overtimeInputs(ij)
	return in, nil
}

// annualSalary resolves grossAnnualSalary, falling back to the legacy
// grossSalary quoted per payPeriod.
func annualSalary(ij InputsJSON, wp engine.WorkPattern) decimal.Decimal {
	if ij.GrossAnnualSalary != nil {
		return decimal.NewFromFloat(*ij.GrossAnnualSalary)
	}
	if ij.GrossSalary == nil {
		return decimal.Zero
	}
	amount := decimal.NewFromFloat(*ij.GrossSalary)

	weeks := wp.WeeksPerYear
	if !weeks.IsPositive() {
		weeks = engine.DefaultWeeksPerYear
	}
	days := wp.DaysPerWeek
	if !days.IsPositive() {
		days = engine.DefaultDaysPerWeek
	}
	switch strings.ToLower(strings.TrimSpace(ij.PayPeriod)) {
	case "daily":
		return amount.Mul(weeks).Mul(days)
	case "weekly":
		return amount.Mul(weeks)
	case "two-weekly", "fortnightly":
		return amount.Mul(weeks).Div(decimal.NewFromInt(2))
	case "four-weekly":
		return amount.Mul(weeks).Div(decimal.NewFromInt(4))
	case "monthly":
		return amount.Mul(decimal.NewFromInt(12))
	default:
		return amount
	}
}

func pensionInputs(ij InputsJSON) engine.PensionInputs {
	rate := 0.0
	switch {
	case ij.PensionContributionRate != nil:
		rate = *ij.PensionContributionRate
	case ij.PensionContribution != nil:
		rate = *ij.PensionContribution
	}

	scheme := engine.ParsePensionScheme(ij.PensionType)
	if ij.SalaryExchange {
		scheme = engine.PensionSalaryExchange
	}
	// Legacy clients sent a bare percentage with no scheme: the original
	// calculator treated it as a net-pay arrangement.
	if scheme == engine.PensionNone && ij.PensionType == "" && (rate > 0 || ij.PensionCashAmount > 0) {
		scheme = engine.PensionNetPay
	}

	return engine.PensionInputs{
		Scheme:             scheme,
		ContributionRate:   decimal.NewFromFloat(rate),
		CashAmount:         decimal.NewFromFloat(ij.PensionCashAmount),
		QualifyingEarnings: ij.PensionOnQualifyingEarnings,
		IncludeOvertime:    ij.IncludeOvertimeInPension,
		IncludeBonus:       ij.IncludeBonusInPension,
	}
}

func overtimeInputs(ij InputsJSON) *engine.OvertimeInputs {
	if ij.Overtime != nil {
		ot := &engine.OvertimeInputs{
			CashAmount: decimal.NewFromFloat(ij.Overtime.CashAmount),
			CashPeriod: engine.PayPeriod(ij.Overtime.CashPeriod),
		}
		for _, t := range ij.Overtime.Tiers {
			ot.Tiers = append(ot.Tiers, engine.OvertimeTier{
				HoursPerMonth: decimal.NewFromFloat(t.HoursPerMonth),
				Multiplier:    decimal.NewFromFloat(t.Multiplier),
			})
		}
		return ot
	}

	if ij.OvertimeHours <= 0 && ij.OvertimeCashAmount <= 0 {
		return nil
	}
	ot := &engine.OvertimeInputs{
		CashAmount: decimal.NewFromFloat(ij.OvertimeCashAmount),
		CashPeriod: engine.PeriodAnnual,
	}
	if ij.OvertimeHours > 0 {
		ot.Tiers = []engine.OvertimeTier{{
			HoursPerMonth: decimal.NewFromFloat(ij.OvertimeHours),
			Multiplier:    decimal.NewFromFloat(ij.OvertimeMultiplier),
		}}
	}
	return ot
}

// =============================================================================
// REVERSE CONVERSION
// =============================================================================

// FromInputs renders canonical inputs back to JSON form, used to store a
// calculation's request alongside its result. Only canonical fields are set.
func FromInputs(in engine.CalculationInputs) InputsJSON {
	salary := in.GrossAnnualSalary.InexactFloat64()
	rate := in.Pension.ContributionRate.InexactFloat64()
	ij := InputsJSON{
		GrossAnnualSalary:           &salary,
		TaxYear:                     in.TaxYear,
		Region:                      string(in.Region),
		TaxCode:                     in.TaxCode,
		HasPostgradLoan:             in.HasPostgradLoan,
		PensionType:                 string(in.Pension.Scheme),
		PensionContributionRate:     &rate,
		PensionCashAmount:           in.Pension.CashAmount.InexactFloat64(),
		PensionOnQualifyingEarnings: in.Pension.QualifyingEarnings,
		IncludeBonusInPension:       in.Pension.IncludeBonus,
		IncludeOvertimeInPension:    in.Pension.IncludeOvertime,
		WeeklyHours:                 in.WorkPattern.WeeklyHours.InexactFloat64(),
		WeeksPerYear:                in.WorkPattern.WeeksPerYear.InexactFloat64(),
		DaysPerWeek:                 in.WorkPattern.DaysPerWeek.InexactFloat64(),
		HasBlindPersonAllowance:     in.BlindPersonsAllowance,
		NoNationalInsurance:         in.NoNationalInsurance,
	}
	for _, p := range in.StudentLoanPlans {
		ij.StudentLoanPlans = append(ij.StudentLoanPlans, string(p))
	}
	if in.Bonus != nil {
		ij.BonusAmount = in.Bonus.Amount.InexactFloat64()
		ij.NormalPayPeriod = string(in.Bonus.NormalPayPeriod)
	}
	if in.Overtime != nil {
		ij.Overtime = &OvertimeJSON{
			CashAmount: in.Overtime.CashAmount.InexactFloat64(),
			CashPeriod: string(in.Overtime.CashPeriod),
		}
		for _, t := range in.Overtime.Tiers {
			ij.Overtime.Tiers = append(ij.Overtime.Tiers, OvertimeTierJSON{
				HoursPerMonth: t.HoursPerMonth.InexactFloat64(),
				Multiplier:    t.Multiplier.InexactFloat64(),
			})
		}
	}
	return ij
}
