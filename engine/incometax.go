package engine

import (
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/taxyear"
)

// =============================================================================
// INCOME TAX
// =============================================================================

// TaxBandResult is one line of the income tax audit trail.
type TaxBandResult struct {
	Name          string
	Rate          decimal.Decimal
	Min           decimal.Decimal
	Max           *decimal.Decimal
	TaxableAmount decimal.Decimal
	TaxDue        decimal.Decimal
}

// IncomeTaxResult is the total plus every band, zero lines included.
type IncomeTaxResult struct {
	Total decimal.Decimal
	Bands []TaxBandResult
}

// IncomeTax walks bands from lowest to highest, charging each rated band on
// the slice of taxable income that falls inside it. The 0% allowance band is
// listed with nothing in it: the allowance has already been deducted.
func IncomeTax(taxable decimal.Decimal, bands []taxyear.Band) IncomeTaxResult {
	taxable = nonNegative(taxable)
	res := IncomeTaxResult{Total: decimal.Zero, Bands: make([]TaxBandResult, 0, len(bands))}

	for _, b := range bands {
		line := TaxBandResult{
			Name:          b.Name,
			Rate:          b.Rate,
			Min:           b.Min,
			Max:           copyMax(b.Max),
			TaxableAmount: decimal.Zero,
			TaxDue:        decimal.Zero,
		}
		if b.Rate.IsPositive() && taxable.GreaterThan(b.Min) {
			top := taxable
			if b.Max != nil && b.Max.LessThan(top) {
				top = *b.Max
			}
			line.TaxableAmount = nonNegative(top.Sub(b.Min))
			line.TaxDue = line.TaxableAmount.Mul(b.Rate)
			res.Total = res.Total.Add(line.TaxDue)
		}
		res.Bands = append(res.Bands, line)
	}
	return res
}

// FlatRateTax charges all taxable pay at a single band's rate (BR, D0, ...).
func FlatRateTax(taxable decimal.Decimal, band taxyear.Band, code string) IncomeTaxResult {
	taxable = nonNegative(taxable)
	due := taxable.Mul(band.Rate)
	return IncomeTaxResult{
		Total: due,
		Bands: []TaxBandResult{{
			Name:          band.Name + " (" + code + ")",
			Rate:          band.Rate,
			Min:           decimal.Zero,
			TaxableAmount: taxable,
			TaxDue:        due,
		}},
	}
}

func copyMax(m *decimal.Decimal) *decimal.Decimal {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}

// NoTax returns the NT result: every band listed, nothing due.
func NoTax(bands []taxyear.Band) IncomeTaxResult {
	return IncomeTax(decimal.Zero, bands)
}
