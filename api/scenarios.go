/*
scenarios.go - Preset calculation requests for demos and smoke tests

PURPOSE:
  Provides ready-made requests that exercise the engine's main paths, so a
  front end (or curl) can show a realistic result without filling in a
  form. Each scenario is a plain factory.InputsJSON; calculating one is the
  same as POSTing its inputs to /api/calculate.

AVAILABLE SCENARIOS:
  median-earner:       £35k, England, no extras
  higher-rate-pension: £65k with a 5% salary-exchange pension
  taper-trap:          £110k, inside the personal allowance taper
  scottish-graduate:   £45k in Scotland repaying Plan 4 and a postgrad loan
  overtime-bonus:      £32k plus two overtime tiers and a £3k bonus
  taper-bonus:         £100k plus a £20k bonus inside the allowance taper

USAGE VIA API:
  GET  /api/scenarios
  POST /api/scenarios/{id}/calculate

ADDING NEW SCENARIOS:
  Append to 'scenarios'. Inputs use the same JSON schema as requests.

SEE ALSO:
  - handlers.go: CalculateScenario reuses the calculate path
  - factory/inputs.go: InputsJSON schema
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/paye-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

func f(v float64) *float64 { return &v }

var scenarios = []ScenarioDTO{
	{
		ID:          "median-earner",
		Name:        "Median Earner",
		Description: "£35,000 in England on the standard tax code",
		Inputs: factory.InputsJSON{
			GrossAnnualSalary: f(35000),
			TaxYear:           "2025-26",
			Region:            "england",
		},
	},
	{
		ID:          "higher-rate-pension",
		Name:        "Higher Rate with Salary Exchange",
		Description: "£65,000 with 5% salary exchange, saving tax and NI",
		Inputs: factory.InputsJSON{
			GrossAnnualSalary:       f(65000),
			TaxYear:                 "2025-26",
			PensionType:             "salary-exchange",
			PensionContributionRate: f(5),
		},
	},
	{
		ID:          "taper-trap",
		Name:        "Personal Allowance Taper",
		Description: "£110,000: every extra pound loses 50p of allowance",
		Inputs: factory.InputsJSON{
			GrossAnnualSalary: f(110000),
			TaxYear:           "2025-26",
			StudentLoanPlans:  []string{"plan2"},
		},
	},
	{
		ID:          "scottish-graduate",
		Name:        "Scottish Graduate",
		Description: "£45,000 in Scotland repaying Plan 4 and a postgraduate loan",
		Inputs: factory.InputsJSON{
			GrossAnnualSalary:           f(45000),
			TaxYear:                     "2025-26",
			Region:                      "scotland",
			StudentLoanPlans:            []string{"plan4"},
			HasPostgradLoan:             true,
			PensionType:                 "auto-enrolment",
			PensionContributionRate:     f(5),
			PensionOnQualifyingEarnings: true,
		},
	},
	{
		ID:          "overtime-bonus",
		Name:        "Overtime and Bonus",
		Description: "£32,000 with time-and-a-half and double-time overtime plus a £3,000 bonus",
		Inputs: factory.InputsJSON{
			GrossAnnualSalary: f(32000),
			TaxYear:           "2025-26",
			Overtime: &factory.OvertimeJSON{Tiers: []factory.OvertimeTierJSON{
				{HoursPerMonth: 10, Multiplier: 1.5},
				{HoursPerMonth: 4, Multiplier: 2},
			}},
			IncludeOvertimeInPension: true,
			PensionType:              "net-pay",
			PensionContributionRate:  f(4),
			BonusAmount:              3000,
			NormalPayPeriod:          "monthly",
		},
	},
	{
		ID:          "taper-bonus",
		Name:        "Bonus in the Taper",
		Description: "£100,000 plus a £20,000 bonus that lands wholly inside the allowance taper",
		Inputs: factory.InputsJSON{
			GrossAnnualSalary: f(100000),
			TaxYear:           "2025-26",
			BonusAmount:       20000,
			NormalPayPeriod:   "monthly",
			StudentLoanPlans:  []string{"plan1"},
		},
	},
}

func findScenario(id string) (ScenarioDTO, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioDTO{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// CalculateScenario runs a preset through the engine.
func (h *Handler) CalculateScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := findScenario(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	res, _, err := h.calculate(s.Inputs)
	if err != nil {
		h.handleError(w, r, "Failed to calculate scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, NewCalculationResultDTO(res))
}
