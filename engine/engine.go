package engine

import (
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/taxyear"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine runs calculations against an injected set of tax-year tables. It
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	years *taxyear.Registry
}

// New returns an Engine backed by years.
func New(years *taxyear.Registry) *Engine {
	return &Engine{years: years}
}

// Years exposes the registry the engine calculates against.
func (e *Engine) Years() *taxyear.Registry {
	return e.years
}

// Calculate is the single entry point. It either returns a complete result
// or an error; it never returns a partial result.
func (e *Engine) Calculate(raw CalculationInputs) (*CalculationResult, error) {
	if e == nil || e.years == nil {
		return nil, ErrNoTables
	}

	in, err := normalize(raw)
	if err != nil {
		return nil, err
	}

	cfg := e.years.Lookup(in.TaxYear)
	code := resolveTaxCode(ParseTaxCode(in.TaxCode), cfg, in.Region)
	s := scenario{
		cfg:   cfg,
		code:  code,
		bands: cfg.BandsFor(in.Region == RegionScotland || code.Scottish),
		in:    in,
	}

	// Overtime adds to gross pay before anything else.
	ot := Overtime(in.GrossAnnualSalary, in.Overtime, in.WorkPattern)
	grossPay := in.GrossAnnualSalary
	overtimePay := decimal.Zero
	if ot != nil {
		overtimePay = ot.AnnualPay
		grossPay = grossPay.Add(ot.AnnualPay)
	}

	// Phase one: pension. Phase two: allowance, tax, NI, student loan.
	pension := Pension(in.GrossAnnualSalary, overtimePay, in.Pension, cfg.AutoEnrolment)
	adj := preTax(grossPay, pension)
	ded := s.deduct(adj)

	var bonus *BonusResult
	if in.Bonus != nil {
		bonus = s.bonus(adj, ded, *in.Bonus)
	}
	return s.assemble(adj, ded, ot, bonus), nil
}

// resolveTaxCode drops a flat-rate code the selected bands cannot serve
// (D2 outside Scotland, say) back to the default allowance.
func resolveTaxCode(code TaxCode, cfg *taxyear.Config, region Region) TaxCode {
	if code.Kind != CodeFlatRate {
		return code
	}
	bands := cfg.BandsFor(region == RegionScotland || code.Scottish)
	if _, ok := taxyear.BandForCode(bands, code.FlatCode); ok {
		return code
	}
	return TaxCode{Raw: code.Raw, Kind: CodeDefault, Scottish: code.Scottish, Welsh: code.Welsh}
}
