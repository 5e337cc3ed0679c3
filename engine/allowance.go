package engine

import (
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/taxyear"
)

// =============================================================================
// PERSONAL ALLOWANCE
// =============================================================================

var two = decimal.NewFromInt(2)

// AllowanceResult records how the allowance was arrived at.
type AllowanceResult struct {
	Base         decimal.Decimal // from the tax code, or the table default
	Reduction    decimal.Decimal // lost to the high-income taper
	BlindPersons decimal.Decimal
	Allowance    decimal.Decimal // what is actually deducted; negative for K codes
}

// TaperedAllowance reduces base by £1 for every whole £2 of income above
// threshold, never going below zero.
func TaperedAllowance(income, base, threshold decimal.Decimal) decimal.Decimal {
	return nonNegative(base.Sub(taperReduction(income, threshold)))
}

func taperReduction(income, threshold decimal.Decimal) decimal.Decimal {
	if !income.GreaterThan(threshold) {
		return decimal.Zero
	}
	return income.Sub(threshold).Div(two).Floor()
}

// PersonalAllowance resolves the allowance for a tax code. income is the
// gross pay the taper is measured against: salary plus overtime, plus the
// bonus when pricing one. Pension contributions do not move it.
func PersonalAllowance(code TaxCode, income decimal.Decimal, cfg *taxyear.Config, blind bool) AllowanceResult {
	switch code.Kind {
	case CodeNoTax, CodeFlatRate:
		return AllowanceResult{}
	case CodeK:
		return AllowanceResult{Base: code.Allowance, Allowance: code.Allowance}
	}

	base := cfg.PersonalAllowance
	if code.Kind == CodeAllowance {
		base = code.Allowance
	}
	tapered := TaperedAllowance(income, base, cfg.TaperThreshold)

	res := AllowanceResult{
		Base:      base,
		Reduction: base.Sub(tapered),
		Allowance: tapered,
	}
	if blind {
		res.BlindPersons = cfg.BlindPersonsAllowance
		res.Allowance = res.Allowance.Add(cfg.BlindPersonsAllowance)
	}
	return res
}
