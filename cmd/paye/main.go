/*
main.go - Command-line calculator

PURPOSE:
  Runs one calculation and prints it, without a server or database.
  Inputs come from flags, or from a JSON request file in the same schema
  as POST /api/calculate.

EXAMPLES:
  paye -salary 45000
  paye -salary 60000 -region scotland -plans plan2 -pension-type salary-exchange -pension-rate 5
  paye -salary 100000 -bonus 20000 -bonus-period monthly
  paye -in request.json -format json

SEE ALSO:
  - factory/inputs.go: JSON request schema
  - format/format.go: Display formatting
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/api"
	"github.com/warp/paye-engine/engine"
	"github.com/warp/paye-engine/factory"
	"github.com/warp/paye-engine/format"
	"github.com/warp/paye-engine/taxyear"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "paye:", err)
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("paye", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	in := fs.String("in", "", "JSON request file ('-' for stdin); other input flags are ignored")
	out := fs.String("format", "text", "output format: text or json")
	tables := fs.String("tax-years", "", "directory of extra tax-year YAML tables")

	salary := fs.Float64("salary", 0, "gross annual salary")
	year := fs.String("year", "", "tax year, e.g. 2025-26 (default: latest)")
	region := fs.String("region", "england", "england, scotland, wales or northern-ireland")
	code := fs.String("code", "", "tax code, e.g. 1257L, S1257L, BR, K500")
	plans := fs.String("plans", "", "comma-separated student loan plans: plan1,plan2,plan4,plan5")
	postgrad := fs.Bool("postgrad", false, "repaying a postgraduate loan")
	pensionType := fs.String("pension-type", "", "auto-enrolment, net-pay, relief-at-source or salary-exchange")
	pensionRate := fs.Float64("pension-rate", 0, "employee pension contribution, percent")
	bonus := fs.Float64("bonus", 0, "one-off bonus amount")
	bonusPeriod := fs.String("bonus-period", "monthly", "pay frequency the bonus lands in")
	blind := fs.Bool("blind", false, "claim blind person's allowance")
	noNI := fs.Bool("no-ni", false, "exempt from employee National Insurance")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(stdout)
			fs.PrintDefaults()
		}
		return err
	}

	var ij factory.InputsJSON
	if *in != "" {
		data, err := readInput(*in)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &ij); err != nil {
			return fmt.Errorf("%s: %w", *in, err)
		}
	} else {
		ij = factory.InputsJSON{
			GrossAnnualSalary:       salary,
			TaxYear:                 *year,
			Region:                  *region,
			TaxCode:                 *code,
			HasPostgradLoan:         *postgrad,
			PensionType:             *pensionType,
			PensionContributionRate: pensionRate,
			BonusAmount:             *bonus,
			NormalPayPeriod:         *bonusPeriod,
			HasBlindPersonAllowance: *blind,
			NoNationalInsurance:     *noNI,
		}
		for _, p := range strings.Split(*plans, ",") {
			if p = strings.TrimSpace(p); p != "" {
				ij.StudentLoanPlans = append(ij.StudentLoanPlans, p)
			}
		}
	}

	registry, err := loadRegistry(*tables)
	if err != nil {
		return err
	}
	inputs, err := factory.ToInputs(ij)
	if err != nil {
		return err
	}
	res, err := engine.New(registry).Calculate(inputs)
	if err != nil {
		return err
	}

	switch *out {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(api.NewCalculationResultDTO(res))
	case "text":
		return printText(stdout, res)
	default:
		return fmt.Errorf("unknown format %q", *out)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func loadRegistry(dir string) (*taxyear.Registry, error) {
	if dir == "" {
		return taxyear.Default(), nil
	}
	configs, err := taxyear.LoadEmbedded()
	if err != nil {
		return nil, err
	}
	extra, err := taxyear.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return taxyear.NewRegistry(append(configs, extra...)...)
}

func printText(w io.Writer, res *engine.CalculationResult) error {
	code := res.TaxCode.String()
	if code == "" {
		code = "standard"
	}
	fmt.Fprintf(w, "Tax year %s, %s, tax code %s\n\n", res.TaxYear, res.Region, code)

	twelve := decimal.NewFromInt(12)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tAnnual\tMonthly\t")
	line := func(label string, annual decimal.Decimal) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", label, format.Currency(annual), format.CurrencyPence(annual.Div(twelve)))
	}

	line("Gross pay", res.Gross.Annual)
	if res.Overtime != nil {
		line("  of which overtime", res.Overtime.AnnualPay)
	}
	line("Income tax", res.IncomeTax.Total.Neg())
	line("National Insurance", res.NationalInsurance.Employee.Total.Neg())
	for _, p := range res.StudentLoan.Plans {
		line("Student loan "+string(p.Plan), p.Repayment.Neg())
	}
	if res.Pension.Employee.IsPositive() {
		line("Pension ("+string(res.Pension.Scheme)+")", res.Pension.Employee.Neg())
	}
	line("Take-home pay", res.Net.Annual)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nPersonal allowance %s, taxable income %s\n",
		format.Currency(res.PersonalAllowance.Allowance), format.Currency(res.TaxableIncome))
	fmt.Fprintf(w, "Effective rate %s, marginal rate %s\n",
		format.Percentage(res.EffectiveRate), format.Percentage(res.MarginalRates.Combined))

	if b := res.Bonus; b != nil {
		fmt.Fprintf(w, "\nBonus %s: extra deductions %s, take-home %s\n",
			format.CurrencyPence(b.Amount), format.CurrencyPence(b.ExtraDeductions.Total), format.CurrencyPence(b.TakeHome))
		fmt.Fprintf(w, "Net pay in the bonus %s period %s (normally %s)\n",
			b.Comparison.Period, format.CurrencyPence(b.Comparison.BonusPeriod.Net), format.CurrencyPence(b.Comparison.NormalPeriod.Net))
		if b.ExtraDeductions.Capped {
			fmt.Fprintln(w, "Extra deductions were capped at the bonus amount.")
		}
	}
	return nil
}
