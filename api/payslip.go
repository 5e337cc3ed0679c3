package api

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/format"
)

// =============================================================================
// PAYSLIP PDF - One-page summary of a saved calculation
// =============================================================================

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight

	labelWidth = contentWidth * 0.46
	colWidth   = (contentWidth - labelWidth) / 2
)

type payslip struct {
	pdf *fpdf.Fpdf
	res CalculationResultDTO
}

// RenderPayslip draws a monthly/annual summary of res as an A4 PDF.
func RenderPayslip(title string, createdAt time.Time, res CalculationResultDTO) ([]byte, error) {
	p := &payslip{pdf: fpdf.New("P", "mm", "A4", ""), res: res}
	p.pdf.SetMargins(marginLeft, marginTop, marginRight)
	p.pdf.SetAutoPageBreak(true, marginBottom)
	p.pdf.SetTitle(title, true)
	p.pdf.AddPage()

	p.header(title, createdAt)
	p.earnings()
	p.deductions()
	p.netPay()
	if res.Bonus != nil {
		p.bonus()
	}
	p.footer()

	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render payslip: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *payslip) header(title string, createdAt time.Time) {
	p.pdf.SetFont("Arial", "B", 18)
	p.pdf.SetTextColor(0, 51, 102)
	p.pdf.CellFormat(contentWidth, 10, format.Latin1(title), "", 1, "L", false, 0, "")

	p.pdf.SetFont("Arial", "", 10)
	p.pdf.SetTextColor(80, 80, 80)
	code := p.res.TaxCode.Code
	if code == "" {
		code = "standard"
	}
	line := fmt.Sprintf("Tax year %s  |  %s  |  Tax code %s  |  %s",
		p.res.TaxYear, regionName(p.res.Region), code, createdAt.UTC().Format("2 January 2006"))
	p.pdf.CellFormat(contentWidth, 6, line, "", 1, "L", false, 0, "")
	p.pdf.Ln(4)

	p.pdf.SetFont("Arial", "B", 10)
	p.pdf.SetFillColor(0, 51, 102)
	p.pdf.SetTextColor(255, 255, 255)
	p.pdf.CellFormat(labelWidth, 7, "", "", 0, "L", true, 0, "")
	p.pdf.CellFormat(colWidth, 7, "Monthly", "", 0, "R", true, 0, "")
	p.pdf.CellFormat(colWidth, 7, "Annual", "", 1, "R", true, 0, "")
}

func (p *payslip) section(name string) {
	p.pdf.Ln(2)
	p.pdf.SetFont("Arial", "B", 11)
	p.pdf.SetTextColor(0, 51, 102)
	p.pdf.CellFormat(contentWidth, 7, name, "B", 1, "L", false, 0, "")
}

// row prints an annual figure and its twelfth.
func (p *payslip) row(label string, annual float64, negative bool) {
	a := decimal.NewFromFloat(annual)
	m := a.Div(decimal.NewFromInt(12))
	if negative && !a.IsZero() {
		a, m = a.Neg(), m.Neg()
	}
	p.pdf.SetFont("Arial", "", 10)
	p.pdf.SetTextColor(50, 50, 50)
	p.pdf.CellFormat(labelWidth, 6, format.Latin1(label), "", 0, "L", false, 0, "")
	p.pdf.CellFormat(colWidth, 6, format.Latin1(format.CurrencyPence(m)), "", 0, "R", false, 0, "")
	p.pdf.CellFormat(colWidth, 6, format.Latin1(format.CurrencyPence(a)), "", 1, "R", false, 0, "")
}

func (p *payslip) earnings() {
	p.section("Earnings")
	p.row("Salary", p.res.ContractualSalary, false)
	if ot := p.res.Overtime; ot != nil && ot.AnnualPay > 0 {
		p.row("Overtime", ot.AnnualPay, false)
	}
	p.row("Gross pay", p.res.Gross.Annual, false)
}

func (p *payslip) deductions() {
	p.section("Deductions")
	p.row("Income tax", p.res.IncomeTax.Total, true)
	p.row("National Insurance", p.res.NationalInsurance.Employee.Total, true)
	for _, plan := range p.res.StudentLoan.Plans {
		p.row("Student loan ("+planName(plan.Plan)+")", plan.Repayment, true)
	}
	if p.res.Pension.Employee > 0 {
		p.row("Pension ("+strings.ReplaceAll(p.res.Pension.Scheme, "-", " ")+")", p.res.Pension.Employee, true)
	}
}

func (p *payslip) netPay() {
	p.pdf.Ln(2)
	p.pdf.SetFont("Arial", "B", 12)
	p.pdf.SetFillColor(245, 247, 250)
	p.pdf.SetTextColor(0, 51, 102)
	net := decimal.NewFromFloat(p.res.Net.Annual)
	p.pdf.CellFormat(labelWidth, 9, "Take-home pay", "TB", 0, "L", true, 0, "")
	p.pdf.CellFormat(colWidth, 9, format.Latin1(format.CurrencyPence(net.Div(decimal.NewFromInt(12)))), "TB", 0, "R", true, 0, "")
	p.pdf.CellFormat(colWidth, 9, format.Latin1(format.CurrencyPence(net)), "TB", 1, "R", true, 0, "")

	p.pdf.SetFont("Arial", "", 9)
	p.pdf.SetTextColor(80, 80, 80)
	p.pdf.Ln(1)
	p.pdf.CellFormat(contentWidth, 5, fmt.Sprintf("Effective rate %s  |  Marginal rate %s  |  Employer NI %s",
		format.Percentage(decimal.NewFromFloat(p.res.EffectiveRate)),
		format.Percentage(decimal.NewFromFloat(p.res.MarginalRates.Combined)),
		format.Latin1(format.Currency(decimal.NewFromFloat(p.res.NationalInsurance.Employer.Total))),
	), "", 1, "L", false, 0, "")
}

func (p *payslip) bonus() {
	b := p.res.Bonus
	p.section("Bonus")
	p.pdf.SetFont("Arial", "", 10)
	p.pdf.SetTextColor(50, 50, 50)
	lines := [][2]string{
		{"Bonus", format.CurrencyPence(decimal.NewFromFloat(b.Amount))},
		{"Extra deductions", format.CurrencyPence(decimal.NewFromFloat(b.ExtraDeductions.Total))},
		{"Bonus take-home", format.CurrencyPence(decimal.NewFromFloat(b.TakeHome))},
		{"Net pay in bonus " + b.Period + " period", format.CurrencyPence(decimal.NewFromFloat(b.BonusPeriod.Net))},
	}
	if b.PensionContribution > 0 {
		lines = append(lines[:1], append([][2]string{{"Pension on bonus", format.CurrencyPence(decimal.NewFromFloat(b.PensionContribution))}}, lines[1:]...)...)
	}
	for _, l := range lines {
		p.pdf.CellFormat(labelWidth+colWidth, 6, format.Latin1(l[0]), "", 0, "L", false, 0, "")
		p.pdf.CellFormat(colWidth, 6, format.Latin1(l[1]), "", 1, "R", false, 0, "")
	}
	if b.ExtraDeductions.Capped {
		p.pdf.SetFont("Arial", "I", 9)
		p.pdf.CellFormat(contentWidth, 5, "Extra deductions were capped at the bonus amount.", "", 1, "L", false, 0, "")
	}
}

func (p *payslip) footer() {
	p.pdf.Ln(8)
	p.pdf.SetFont("Arial", "I", 8)
	p.pdf.SetTextColor(120, 120, 120)
	p.pdf.MultiCell(contentWidth, 4,
		"Estimate only. Figures are annualised from the inputs supplied and rounded to the penny for display; "+
			"actual payroll deductions depend on cumulative PAYE, pay dates and your employer's scheme rules.",
		"", "L", false)
}

func regionName(r string) string {
	switch r {
	case "scotland":
		return "Scotland"
	case "wales":
		return "Wales"
	case "northern-ireland":
		return "Northern Ireland"
	default:
		return "England"
	}
}

func planName(plan string) string {
	if plan == "postgrad" {
		return "Postgraduate"
	}
	return strings.Replace(plan, "plan", "Plan ", 1)
}
