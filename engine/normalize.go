package engine

import (
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/taxyear"
)

// MaxOvertimeTiers is the number of overtime rate tiers a calculation accepts.
const MaxOvertimeTiers = 2

var hundred = decimal.NewFromInt(100)

// normalize repairs everything that has a sane fallback and returns a copy
// that shares no slices with the caller.
func normalize(in CalculationInputs) (CalculationInputs, error) {
	out := in
	out.GrossAnnualSalary = nonNegative(in.GrossAnnualSalary)
	out.Region = ParseRegion(string(in.Region))

	out.StudentLoanPlans, out.HasPostgradLoan = normalizePlans(in.StudentLoanPlans, in.HasPostgradLoan)

	out.Pension = in.Pension
	out.Pension.Scheme = ParsePensionScheme(string(in.Pension.Scheme))
	out.Pension.ContributionRate = clamp(in.Pension.ContributionRate, decimal.Zero, hundred)
	out.Pension.CashAmount = nonNegative(in.Pension.CashAmount)

	out.WorkPattern = normalizeWorkPattern(in.WorkPattern)

	if in.Bonus != nil && in.Bonus.Amount.IsPositive() {
		out.Bonus = &BonusInputs{
			Amount:          in.Bonus.Amount,
			NormalPayPeriod: ParsePayPeriod(string(in.Bonus.NormalPayPeriod), PeriodMonthly),
		}
	} else {
		out.Bonus = nil
	}

	out.Overtime = nil
	if in.Overtime != nil {
		if len(in.Overtime.Tiers) > MaxOvertimeTiers {
			return CalculationInputs{}, &InputError{Field: "overtime.tiers", Reason: "at most two overtime rates are supported"}
		}
		ot := &OvertimeInputs{
			CashAmount: nonNegative(in.Overtime.CashAmount),
			CashPeriod: ParsePayPeriod(string(in.Overtime.CashPeriod), PeriodAnnual),
		}
		for _, t := range in.Overtime.Tiers {
			mult := t.Multiplier
			if !mult.IsPositive() {
				mult = decimal.NewFromInt(1)
			}
			ot.Tiers = append(ot.Tiers, OvertimeTier{HoursPerMonth: nonNegative(t.HoursPerMonth), Multiplier: mult})
		}
		out.Overtime = ot
	}
	return out, nil
}

func normalizeWorkPattern(wp WorkPattern) WorkPattern {
	if !wp.WeeklyHours.IsPositive() {
		wp.WeeklyHours = DefaultWeeklyHours
	}
	if !wp.WeeksPerYear.IsPositive() {
		wp.WeeksPerYear = DefaultWeeksPerYear
	}
	if !wp.DaysPerWeek.IsPositive() || wp.DaysPerWeek.GreaterThan(decimal.NewFromInt(7)) {
		wp.DaysPerWeek = DefaultDaysPerWeek
	}
	return wp
}

// normalizePlans de-duplicates plans, folds "postgrad" into the postgraduate
// flag, and drops identifiers it does not recognise.
func normalizePlans(plans []taxyear.StudentLoanPlan, postgrad bool) ([]taxyear.StudentLoanPlan, bool) {
	var out []taxyear.StudentLoanPlan
	seen := make(map[taxyear.StudentLoanPlan]bool)
	for _, p := range plans {
		plan, ok := ParseStudentLoanPlan(string(p))
		if !ok {
			continue
		}
		if plan == taxyear.Postgrad {
			postgrad = true
			continue
		}
		if !seen[plan] {
			seen[plan] = true
			out = append(out, plan)
		}
	}
	return out, postgrad
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}
