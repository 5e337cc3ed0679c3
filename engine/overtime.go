package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME
// =============================================================================

type OvertimeMethod string

const (
	OvertimeHours OvertimeMethod = "hours"
	OvertimeCash  OvertimeMethod = "cash"
)

var monthsPerYear = decimal.NewFromInt(12)

// OvertimeTierResult is the annual pay from one rate tier.
type OvertimeTierResult struct {
	HoursPerMonth decimal.Decimal
	Multiplier    decimal.Decimal
	HourlyRate    decimal.Decimal // normal rate x multiplier
	AnnualPay     decimal.Decimal
}

// OvertimeResult is the overtime added to gross pay.
type OvertimeResult struct {
	Method           OvertimeMethod
	NormalHourlyRate decimal.Decimal
	Tiers            []OvertimeTierResult
	AnnualPay        decimal.Decimal
	MonthlyPay       decimal.Decimal
}

// NormalHourlyRate is salary / (weeks per year x weekly hours).
func NormalHourlyRate(salary decimal.Decimal, wp WorkPattern) decimal.Decimal {
	hours := wp.WeeksPerYear.Mul(wp.WeeklyHours)
	if !hours.IsPositive() {
		return decimal.Zero
	}
	return salary.Div(hours)
}

// Overtime derives annual overtime pay. It returns nil when no overtime is
// configured, so "no overtime" stays distinct from "overtime worth £0".
func Overtime(salary decimal.Decimal, in *OvertimeInputs, wp WorkPattern) *OvertimeResult {
	if in == nil {
		return nil
	}
	rate := NormalHourlyRate(salary, wp)

	if in.CashAmount.IsPositive() {
		annual := in.CashAmount.Mul(annualFactor(in.CashPeriod, wp))
		return &OvertimeResult{
			Method:           OvertimeCash,
			NormalHourlyRate: rate,
			AnnualPay:        annual,
			MonthlyPay:       annual.Div(monthsPerYear),
		}
	}

	res := &OvertimeResult{Method: OvertimeHours, NormalHourlyRate: rate, AnnualPay: decimal.Zero}
	configured := false
	for _, t := range in.Tiers {
		if !t.HoursPerMonth.IsPositive() {
			continue
		}
		configured = true
		tierRate := rate.Mul(t.Multiplier)
		pay := t.HoursPerMonth.Mul(monthsPerYear).Mul(tierRate)
		res.Tiers = append(res.Tiers, OvertimeTierResult{
			HoursPerMonth: t.HoursPerMonth,
			Multiplier:    t.Multiplier,
			HourlyRate:    tierRate,
			AnnualPay:     pay,
		})
		res.AnnualPay = res.AnnualPay.Add(pay)
	}
	if !configured {
		return nil
	}
	res.MonthlyPay = res.AnnualPay.Div(monthsPerYear)
	return res
}

// annualFactor converts an amount per period into an annual amount. Weekly
// figures use the work pattern's weeks-per-year convention.
func annualFactor(p PayPeriod, wp WorkPattern) decimal.Decimal {
	switch p {
	case PeriodMonthly:
		return monthsPerYear
	case PeriodWeekly:
		return wp.WeeksPerYear
	case PeriodTwoWeekly:
		return wp.WeeksPerYear.Div(two)
	case PeriodFourWeekly:
		return wp.WeeksPerYear.Div(decimal.NewFromInt(4))
	default:
		return decimal.NewFromInt(1)
	}
}
