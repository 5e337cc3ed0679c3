/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The engine works in
  unrounded decimals; these types are the boundary where figures become
  numbers a browser can display, rounded to the penny (rates to six
  places).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Calculation:
    CalculationResultDTO and its parts, CreateCalculationRequest,
    CalculationDTO, CalculationSummaryDTO

  Tax years:
    TaxYearDTO

  Scenarios:
    ScenarioDTO

VALIDATION:
  Request validation lives in package factory (validator tags on
  factory.InputsJSON). DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/inputs.go: InputsJSON request schema
*/
package api

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/paye-engine/engine"
	"github.com/warp/paye-engine/factory"
	"github.com/warp/paye-engine/history"
	"github.com/warp/paye-engine/taxyear"
)

// =============================================================================
// CALCULATION RESULT
// =============================================================================

// CalculationResultDTO is engine.CalculationResult on the wire.
type CalculationResultDTO struct {
	TaxYear string     `json:"taxYear"`
	Region  string     `json:"region"`
	TaxCode TaxCodeDTO `json:"taxCode"`

	ContractualSalary float64          `json:"contractualSalary"`
	Gross             PeriodAmountsDTO `json:"gross"`
	Net               PeriodAmountsDTO `json:"net"`

	PersonalAllowance AllowanceDTO `json:"personalAllowance"`
	AdjustedNetIncome float64      `json:"adjustedNetIncome"`
	TaxableIncome     float64      `json:"taxableIncome"`

	IncomeTax         IncomeTaxDTO         `json:"incomeTax"`
	NationalInsurance NationalInsuranceDTO `json:"nationalInsurance"`
	StudentLoan       StudentLoanDTO       `json:"studentLoan"`
	Pension           PensionDTO           `json:"pension"`

	TotalDeductions float64          `json:"totalDeductions"`
	EffectiveRate   float64          `json:"effectiveRate"`
	MarginalRates   MarginalRatesDTO `json:"marginalRates"`

	Overtime *OvertimeDTO `json:"overtime,omitempty"`
	Bonus    *BonusDTO    `json:"bonus,omitempty"`
}

type TaxCodeDTO struct {
	Code       string `json:"code"`
	Kind       string `json:"kind"`
	Scottish   bool   `json:"scottish,omitempty"`
	Welsh      bool   `json:"welsh,omitempty"`
	Emergency  bool   `json:"emergency,omitempty"`
	Recognised bool   `json:"recognised"`
}

type PeriodAmountsDTO struct {
	Annual  float64 `json:"annual"`
	Monthly float64 `json:"monthly"`
	Weekly  float64 `json:"weekly"`
	Daily   float64 `json:"daily"`
	Hourly  float64 `json:"hourly"`
}

type AllowanceDTO struct {
	Base         float64 `json:"base"`
	Reduction    float64 `json:"reduction"`
	BlindPersons float64 `json:"blindPersons"`
	Allowance    float64 `json:"allowance"`
}

// BandDTO is one line of a tax or NI breakdown. Max is omitted for the
// unbounded top band.
type BandDTO struct {
	Name   string   `json:"name"`
	Rate   float64  `json:"rate"`
	Min    float64  `json:"min"`
	Max    *float64 `json:"max,omitempty"`
	Amount float64  `json:"amount"`
	Due    float64  `json:"due"`
}

type IncomeTaxDTO struct {
	Total float64   `json:"total"`
	Bands []BandDTO `json:"bands"`
}

type NIContributionDTO struct {
	Total float64   `json:"total"`
	Bands []BandDTO `json:"bands"`
}

type NationalInsuranceDTO struct {
	Employee NIContributionDTO `json:"employee"`
	Employer NIContributionDTO `json:"employer"`
}

type PlanRepaymentDTO struct {
	Plan            string  `json:"plan"`
	Threshold       float64 `json:"threshold"`
	Rate            float64 `json:"rate"`
	RepayableIncome float64 `json:"repayableIncome"`
	Repayment       float64 `json:"repayment"`
}

type StudentLoanDTO struct {
	Total float64            `json:"total"`
	Plans []PlanRepaymentDTO `json:"plans"`
}

type PensionDTO struct {
	Scheme              string  `json:"scheme"`
	PensionableEarnings float64 `json:"pensionableEarnings"`
	QualifyingEarnings  bool    `json:"qualifyingEarnings,omitempty"`
	Employee            float64 `json:"employee"`
	Employer            float64 `json:"employer"`
	SalaryExchange      float64 `json:"salaryExchange"`
	TaxRelief           float64 `json:"taxRelief"`
}

type MarginalRatesDTO struct {
	IncomeTax         float64 `json:"incomeTax"`
	NationalInsurance float64 `json:"nationalInsurance"`
	StudentLoan       float64 `json:"studentLoan"`
	Combined          float64 `json:"combined"`
}

type OvertimeTierDTO struct {
	HoursPerMonth float64 `json:"hoursPerMonth"`
	Multiplier    float64 `json:"multiplier"`
	HourlyRate    float64 `json:"hourlyRate"`
	AnnualPay     float64 `json:"annualPay"`
}

type OvertimeDTO struct {
	Method           string            `json:"method"`
	NormalHourlyRate float64           `json:"normalHourlyRate"`
	Tiers            []OvertimeTierDTO `json:"tiers,omitempty"`
	AnnualPay        float64           `json:"annualPay"`
	MonthlyPay       float64           `json:"monthlyPay"`
}

type ExtraDeductionsDTO struct {
	IncomeTax         float64 `json:"incomeTax"`
	NationalInsurance float64 `json:"nationalInsurance"`
	StudentLoan       float64 `json:"studentLoan"`
	Total             float64 `json:"total"`
	Capped            bool    `json:"capped"`
	RawTotal          float64 `json:"rawTotal"`
	CappingRatio      float64 `json:"cappingRatio"`
}

type PeriodBreakdownDTO struct {
	Gross             float64 `json:"gross"`
	IncomeTax         float64 `json:"incomeTax"`
	NationalInsurance float64 `json:"nationalInsurance"`
	StudentLoan       float64 `json:"studentLoan"`
	Pension           float64 `json:"pension"`
	Net               float64 `json:"net"`
}

type BonusDTO struct {
	Amount              float64            `json:"amount"`
	PensionContribution float64            `json:"pensionContribution"`
	ExtraDeductions     ExtraDeductionsDTO `json:"extraDeductions"`
	TakeHome            float64            `json:"takeHome"`
	Period              string             `json:"period"`
	NormalPeriod        PeriodBreakdownDTO `json:"normalPeriod"`
	BonusPeriod         PeriodBreakdownDTO `json:"bonusPeriod"`
}

// =============================================================================
// SAVED CALCULATIONS
// =============================================================================

// CreateCalculationRequest is the body of POST /api/calculations.
type CreateCalculationRequest struct {
	Label  string             `json:"label"`
	Inputs factory.InputsJSON `json:"inputs"`
}

// CalculationDTO is a saved calculation with its request and result.
type CalculationDTO struct {
	ID        string          `json:"id"`
	Label     string          `json:"label,omitempty"`
	CreatedAt string          `json:"createdAt"`
	Inputs    json.RawMessage `json:"inputs"`
	Result    json.RawMessage `json:"result"`
}

// CalculationSummaryDTO is one row of GET /api/calculations.
type CalculationSummaryDTO struct {
	ID          string  `json:"id"`
	Label       string  `json:"label,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	TaxYear     string  `json:"taxYear"`
	GrossAnnual float64 `json:"grossAnnual"`
	NetAnnual   float64 `json:"netAnnual"`
}

// =============================================================================
// TAX YEARS
// =============================================================================

type TaxYearBandDTO struct {
	Name string   `json:"name"`
	Code string   `json:"code,omitempty"`
	Rate float64  `json:"rate"`
	Min  float64  `json:"min"`
	Max  *float64 `json:"max,omitempty"`
}

type NIClassDTO struct {
	Threshold  float64 `json:"threshold"`
	UpperLimit float64 `json:"upperLimit"`
	MainRate   float64 `json:"mainRate"`
	UpperRate  float64 `json:"upperRate"`
}

type PlanRateDTO struct {
	Threshold float64 `json:"threshold"`
	Rate      float64 `json:"rate"`
}

// TaxYearDTO exposes one tax year's tables.
type TaxYearDTO struct {
	Year                   string                 `json:"year"`
	PersonalAllowance      float64                `json:"personalAllowance"`
	TaperThreshold         float64                `json:"taperThreshold"`
	BlindPersonsAllowance  float64                `json:"blindPersonsAllowance"`
	IncomeTaxBands         []TaxYearBandDTO       `json:"incomeTaxBands"`
	ScottishIncomeTaxBands []TaxYearBandDTO       `json:"scottishIncomeTaxBands,omitempty"`
	EmployeeNI             NIClassDTO             `json:"employeeNationalInsurance"`
	EmployerNI             NIClassDTO             `json:"employerNationalInsurance"`
	StudentLoans           map[string]PlanRateDTO `json:"studentLoans"`
	QualifyingLower        float64                `json:"qualifyingEarningsLower"`
	QualifyingUpper        float64                `json:"qualifyingEarningsUpper"`
}

// TaxYearListDTO is GET /api/tax-years.
type TaxYearListDTO struct {
	Years  []string `json:"years"`
	Latest string   `json:"latest"`
}

// =============================================================================
// SCENARIOS / MISC
// =============================================================================

// ScenarioDTO is a preset calculation request.
type ScenarioDTO struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Inputs      factory.InputsJSON `json:"inputs"`
}

type HealthDTO struct {
	Status   string   `json:"status"`
	TaxYears []string `json:"taxYears"`
	Database string   `json:"database,omitempty"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func rate(d decimal.Decimal) float64 {
	return d.Round(6).InexactFloat64()
}

func moneyPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := money(*d)
	return &v
}

func toPeriodAmountsDTO(p engine.PeriodAmounts) PeriodAmountsDTO {
	return PeriodAmountsDTO{
		Annual:  money(p.Annual),
		Monthly: money(p.Monthly),
		Weekly:  money(p.Weekly),
		Daily:   money(p.Daily),
		Hourly:  money(p.Hourly),
	}
}

func toNIContributionDTO(c engine.NIContribution) NIContributionDTO {
	out := NIContributionDTO{Total: money(c.Total), Bands: make([]BandDTO, len(c.Bands))}
	for i, b := range c.Bands {
		out.Bands[i] = BandDTO{
			Name:   b.Name,
			Rate:   rate(b.Rate),
			Min:    money(b.Min),
			Max:    moneyPtr(b.Max),
			Amount: money(b.EarningsInBand),
			Due:    money(b.NIDue),
		}
	}
	return out
}

func toPeriodBreakdownDTO(p engine.PeriodBreakdown) PeriodBreakdownDTO {
	return PeriodBreakdownDTO{
		Gross:             money(p.Gross),
		IncomeTax:         money(p.IncomeTax),
		NationalInsurance: money(p.NationalInsurance),
		StudentLoan:       money(p.StudentLoan),
		Pension:           money(p.Pension),
		Net:               money(p.Net),
	}
}

// NewCalculationResultDTO renders a result for the wire.
func NewCalculationResultDTO(res *engine.CalculationResult) CalculationResultDTO {
	dto := CalculationResultDTO{
		TaxYear: res.TaxYear,
		Region:  string(res.Region),
		TaxCode: TaxCodeDTO{
			Code:       res.TaxCode.String(),
			Kind:       string(res.TaxCode.Kind),
			Scottish:   res.TaxCode.Scottish,
			Welsh:      res.TaxCode.Welsh,
			Emergency:  res.TaxCode.Emergency,
			Recognised: res.TaxCode.Recognised,
		},
		ContractualSalary: money(res.ContractualSalary),
		Gross:             toPeriodAmountsDTO(res.Gross),
		Net:               toPeriodAmountsDTO(res.Net),
		PersonalAllowance: AllowanceDTO{
			Base:         money(res.PersonalAllowance.Base),
			Reduction:    money(res.PersonalAllowance.Reduction),
			BlindPersons: money(res.PersonalAllowance.BlindPersons),
			Allowance:    money(res.PersonalAllowance.Allowance),
		},
		AdjustedNetIncome: money(res.AdjustedNetIncome),
		TaxableIncome:     money(res.TaxableIncome),
		IncomeTax: IncomeTaxDTO{
			Total: money(res.IncomeTax.Total),
			Bands: make([]BandDTO, len(res.IncomeTax.Bands)),
		},
		NationalInsurance: NationalInsuranceDTO{
			Employee: toNIContributionDTO(res.NationalInsurance.Employee),
			Employer: toNIContributionDTO(res.NationalInsurance.Employer),
		},
		StudentLoan: StudentLoanDTO{
			Total: money(res.StudentLoan.Total),
			Plans: make([]PlanRepaymentDTO, len(res.StudentLoan.Plans)),
		},
		Pension: PensionDTO{
			Scheme:              string(res.Pension.Scheme),
			PensionableEarnings: money(res.Pension.PensionableEarnings),
			QualifyingEarnings:  res.Pension.QualifyingEarnings,
			Employee:            money(res.Pension.Employee),
			Employer:            money(res.Pension.Employer),
			SalaryExchange:      money(res.Pension.SalaryExchange),
			TaxRelief:           money(res.Pension.TaxRelief),
		},
		TotalDeductions: money(res.TotalDeductions),
		EffectiveRate:   rate(res.EffectiveRate),
		MarginalRates: MarginalRatesDTO{
			IncomeTax:         rate(res.MarginalRates.IncomeTax),
			NationalInsurance: rate(res.MarginalRates.NationalInsurance),
			StudentLoan:       rate(res.MarginalRates.StudentLoan),
			Combined:          rate(res.MarginalRates.Combined),
		},
	}

	for i, b := range res.IncomeTax.Bands {
		dto.IncomeTax.Bands[i] = BandDTO{
			Name:   b.Name,
			Rate:   rate(b.Rate),
			Min:    money(b.Min),
			Max:    moneyPtr(b.Max),
			Amount: money(b.TaxableAmount),
			Due:    money(b.TaxDue),
		}
	}
	for i, p := range res.StudentLoan.Plans {
		dto.StudentLoan.Plans[i] = PlanRepaymentDTO{
			Plan:            string(p.Plan),
			Threshold:       money(p.Threshold),
			Rate:            rate(p.Rate),
			RepayableIncome: money(p.RepayableIncome),
			Repayment:       money(p.Repayment),
		}
	}

	if ot := res.Overtime; ot != nil {
		dto.Overtime = &OvertimeDTO{
			Method:           string(ot.Method),
			NormalHourlyRate: money(ot.NormalHourlyRate),
			AnnualPay:        money(ot.AnnualPay),
			MonthlyPay:       money(ot.MonthlyPay),
		}
		for _, t := range ot.Tiers {
			dto.Overtime.Tiers = append(dto.Overtime.Tiers, OvertimeTierDTO{
				HoursPerMonth: rate(t.HoursPerMonth),
				Multiplier:    rate(t.Multiplier),
				HourlyRate:    money(t.HourlyRate),
				AnnualPay:     money(t.AnnualPay),
			})
		}
	}

	if b := res.Bonus; b != nil {
		dto.Bonus = &BonusDTO{
			Amount:              money(b.Amount),
			PensionContribution: money(b.PensionContribution),
			ExtraDeductions: ExtraDeductionsDTO{
				IncomeTax:         money(b.ExtraDeductions.IncomeTax),
				NationalInsurance: money(b.ExtraDeductions.NationalInsurance),
				StudentLoan:       money(b.ExtraDeductions.StudentLoan),
				Total:             money(b.ExtraDeductions.Total),
				Capped:            b.ExtraDeductions.Capped,
				RawTotal:          money(b.ExtraDeductions.RawTotal),
				CappingRatio:      rate(b.ExtraDeductions.CappingRatio),
			},
			TakeHome:     money(b.TakeHome),
			Period:       string(b.Comparison.Period),
			NormalPeriod: toPeriodBreakdownDTO(b.Comparison.NormalPeriod),
			BonusPeriod:  toPeriodBreakdownDTO(b.Comparison.BonusPeriod),
		}
	}
	return dto
}

func toCalculationDTO(rec history.Record) CalculationDTO {
	return CalculationDTO{
		ID:        rec.ID,
		Label:     rec.Label,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		Inputs:    json.RawMessage(rec.Inputs),
		Result:    json.RawMessage(rec.Result),
	}
}

func toSummaryDTO(rec history.Record) CalculationSummaryDTO {
	return CalculationSummaryDTO{
		ID:          rec.ID,
		Label:       rec.Label,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
		TaxYear:     rec.TaxYear,
		GrossAnnual: money(rec.GrossAnnual),
		NetAnnual:   money(rec.NetAnnual),
	}
}

func toTaxYearBands(bands []taxyear.Band) []TaxYearBandDTO {
	if len(bands) == 0 {
		return nil
	}
	out := make([]TaxYearBandDTO, len(bands))
	for i, b := range bands {
		out[i] = TaxYearBandDTO{
			Name: b.Name,
			Code: b.Code,
			Rate: rate(b.Rate),
			Min:  money(b.Min),
			Max:  moneyPtr(b.Max),
		}
	}
	return out
}

func toNIClassDTO(c taxyear.NIClassRates) NIClassDTO {
	return NIClassDTO{
		Threshold:  money(c.Threshold),
		UpperLimit: money(c.UpperLimit),
		MainRate:   rate(c.MainRate),
		UpperRate:  rate(c.UpperRate),
	}
}

func toTaxYearDTO(c *taxyear.Config) TaxYearDTO {
	dto := TaxYearDTO{
		Year:                   c.Year,
		PersonalAllowance:      money(c.PersonalAllowance),
		TaperThreshold:         money(c.TaperThreshold),
		BlindPersonsAllowance:  money(c.BlindPersonsAllowance),
		IncomeTaxBands:         toTaxYearBands(c.IncomeTaxBands),
		ScottishIncomeTaxBands: toTaxYearBands(c.ScottishIncomeTaxBands),
		EmployeeNI:             toNIClassDTO(c.NationalInsurance.Employee),
		EmployerNI:             toNIClassDTO(c.NationalInsurance.Employer),
		StudentLoans:           make(map[string]PlanRateDTO, len(c.StudentLoans)),
		QualifyingLower:        money(c.AutoEnrolment.LowerLimit),
		QualifyingUpper:        money(c.AutoEnrolment.UpperLimit),
	}
	for plan, pr := range c.StudentLoans {
		dto.StudentLoans[string(plan)] = PlanRateDTO{Threshold: money(pr.Threshold), Rate: rate(pr.Rate)}
	}
	return dto
}
