package api_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/paye-engine/api"
	"github.com/warp/paye-engine/engine"
	"github.com/warp/paye-engine/history"
	"github.com/warp/paye-engine/store/sqlite"
	"github.com/warp/paye-engine/taxyear"
)

var fixedNow = time.Date(2025, time.June, 3, 9, 30, 0, 0, time.UTC)

type testAPI struct {
	router http.Handler
	store  *sqlite.Store
}

func newAPI(t *testing.T) *testAPI {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := api.NewHandler(engine.New(taxyear.Default()), store, nil)
	h.Now = func() time.Time { return fixedNow }
	n := 0
	h.NewID = func() string {
		n++
		return fmt.Sprintf("calc-%d", n)
	}
	return &testAPI{router: api.NewRouter(h, nil), store: store}
}

func (a *testAPI) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// CALCULATE
// =============================================================================

func TestCalculate_BasicSalary(t *testing.T) {
	a := newAPI(t)

	// GIVEN: £30,000 in England for 2024-25
	body := `{"grossAnnualSalary": 30000, "taxYear": "2024-25"}`

	// WHEN: Calculated
	rec := a.do(http.MethodPost, "/api/calculate", body)

	// THEN: Figures are rounded to the penny
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.CalculationResultDTO](t, rec)
	assert.Equal(t, "2024-25", res.TaxYear)
	assert.Equal(t, "england", res.Region)
	assert.Equal(t, "default", res.TaxCode.Kind)
	assert.InDelta(t, 3486.0, res.IncomeTax.Total, 0.001)
	assert.InDelta(t, 2091.6, res.NationalInsurance.Employee.Total, 0.001)
	assert.InDelta(t, 24422.4, res.Net.Annual, 0.001)
	assert.InDelta(t, 2035.2, res.Net.Monthly, 0.001)
	assert.Nil(t, res.Bonus)
	assert.Nil(t, res.Overtime)

	// AND: The unbounded top band has no max
	last := res.IncomeTax.Bands[len(res.IncomeTax.Bands)-1]
	assert.Nil(t, last.Max)
}

func TestCalculate_LegacyFields(t *testing.T) {
	a := newAPI(t)

	// GIVEN: An old client quoting a monthly salary and a Scottish flag
	body := `{"grossSalary": 2500, "payPeriod": "monthly", "isScottishTaxpayer": true, "taxYear": "2024-25"}`

	rec := a.do(http.MethodPost, "/api/calculate", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.CalculationResultDTO](t, rec)
	assert.InDelta(t, 30000.0, res.ContractualSalary, 0.001)
	assert.Equal(t, "scotland", res.Region)
	assert.InDelta(t, 3497.33, res.IncomeTax.Total, 0.01)
}

func TestCalculate_BonusAndOvertime(t *testing.T) {
	a := newAPI(t)

	body := `{
		"grossAnnualSalary": 30000,
		"taxYear": "2024-25",
		"bonusAmount": 5000,
		"normalPayPeriod": "monthly",
		"overtime": {"cashAmount": 100, "cashPeriod": "monthly"}
	}`

	rec := a.do(http.MethodPost, "/api/calculate", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.CalculationResultDTO](t, rec)
	require.NotNil(t, res.Overtime)
	assert.Equal(t, "cash", res.Overtime.Method)
	assert.InDelta(t, 1200.0, res.Overtime.AnnualPay, 0.001)
	assert.InDelta(t, 31200.0, res.Gross.Annual, 0.001)

	require.NotNil(t, res.Bonus)
	assert.Equal(t, "monthly", res.Bonus.Period)
	assert.InDelta(t, 5000.0, res.Bonus.Amount, 0.001)
	assert.LessOrEqual(t, res.Bonus.ExtraDeductions.Total, 5000.0)
	assert.InDelta(t, res.Bonus.Amount-res.Bonus.ExtraDeductions.Total, res.Bonus.TakeHome, 0.01)
}

func TestCalculate_MalformedJSON(t *testing.T) {
	rec := newAPI(t).do(http.MethodPost, "/api/calculate", `{"grossAnnualSalary": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[api.ErrorResponse](t, rec)
	assert.Contains(t, resp.Details, "body")
}

func TestCalculate_TooManyOvertimeTiers(t *testing.T) {
	body := `{"grossAnnualSalary": 30000, "overtime": {"tiers": [
		{"hoursPerMonth": 1, "multiplier": 1.5},
		{"hoursPerMonth": 1, "multiplier": 2},
		{"hoursPerMonth": 1, "multiplier": 3}
	]}}`

	rec := newAPI(t).do(http.MethodPost, "/api/calculate", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[api.ErrorResponse](t, rec)
	assert.Contains(t, resp.Details, "overtime.tiers")
}

func TestCalculate_NegativeSalaryIsClamped(t *testing.T) {
	rec := newAPI(t).do(http.MethodPost, "/api/calculate", `{"grossAnnualSalary": -5000}`)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[api.CalculationResultDTO](t, rec)
	assert.Zero(t, res.Gross.Annual)
	assert.Zero(t, res.Net.Annual)
	assert.Zero(t, res.EffectiveRate)
}

// =============================================================================
// SAVED CALCULATIONS
// =============================================================================

func TestCalculations_Lifecycle(t *testing.T) {
	a := newAPI(t)

	// GIVEN: A saved calculation
	body := `{"label": "Offer A", "inputs": {"grossAnnualSalary": 30000, "taxYear": "2024-25"}}`
	rec := a.do(http.MethodPost, "/api/calculations", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/calculations/calc-1", rec.Header().Get("Location"))

	created := decode[api.CalculationDTO](t, rec)
	assert.Equal(t, "calc-1", created.ID)
	assert.Equal(t, "Offer A", created.Label)
	assert.Equal(t, "2025-06-03T09:30:00Z", created.CreatedAt)

	// WHEN: Fetched
	rec = a.do(http.MethodGet, "/api/calculations/calc-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[api.CalculationDTO](t, rec)

	// THEN: The stored result decodes to the same figures
	var res api.CalculationResultDTO
	require.NoError(t, json.Unmarshal(got.Result, &res))
	assert.InDelta(t, 24422.4, res.Net.Annual, 0.001)

	// AND: The stored inputs are canonical
	var inputs map[string]any
	require.NoError(t, json.Unmarshal(got.Inputs, &inputs))
	assert.EqualValues(t, 30000, inputs["grossAnnualSalary"])

	// AND: It is listed with headline figures
	rec = a.do(http.MethodGet, "/api/calculations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]api.CalculationSummaryDTO](t, rec)
	require.Len(t, list, 1)
	assert.InDelta(t, 30000.0, list[0].GrossAnnual, 0.001)
	assert.InDelta(t, 24422.4, list[0].NetAnnual, 0.001)

	// WHEN: Deleted
	rec = a.do(http.MethodDelete, "/api/calculations/calc-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// THEN: It is gone
	rec = a.do(http.MethodGet, "/api/calculations/calc-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(http.MethodDelete, "/api/calculations/calc-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalculations_IdempotencyKey(t *testing.T) {
	a := newAPI(t)
	body := `{"inputs": {"grossAnnualSalary": 45000}}`

	// GIVEN: A calculation saved under a key
	first := a.do(http.MethodPost, "/api/calculations", body, "Idempotency-Key", "retry-1")
	require.Equal(t, http.StatusCreated, first.Code)

	// WHEN: The client retries with the same key
	second := a.do(http.MethodPost, "/api/calculations", body, "Idempotency-Key", "retry-1")

	// THEN: The first calculation comes back and nothing new is stored
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, decode[api.CalculationDTO](t, first).ID, decode[api.CalculationDTO](t, second).ID)

	all, err := a.store.List(context.Background(), history.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCalculations_InvalidInputIsNotSaved(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/calculations",
		`{"inputs": {"grossAnnualSalary": 30000, "taxCode": "THIS-IS-FAR-TOO-LONG-A-CODE"}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	all, err := a.store.List(context.Background(), history.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCalculations_ListFilters(t *testing.T) {
	a := newAPI(t)
	a.do(http.MethodPost, "/api/calculations", `{"inputs": {"grossAnnualSalary": 30000, "taxYear": "2024-25"}}`)
	a.do(http.MethodPost, "/api/calculations", `{"inputs": {"grossAnnualSalary": 40000, "taxYear": "2025-26"}}`)

	rec := a.do(http.MethodGet, "/api/calculations?taxYear=2024/25", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]api.CalculationSummaryDTO](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-25", list[0].TaxYear)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/calculations?limit=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/calculations?taxYear=soon", "").Code)
}

func TestCalculations_EmptyListIsArray(t *testing.T) {
	rec := newAPI(t).do(http.MethodGet, "/api/calculations", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCalculations_Payslip(t *testing.T) {
	a := newAPI(t)
	body := `{"label": "Offer £ B", "inputs": {"grossAnnualSalary": 52000, "studentLoanPlans": ["plan2"], "bonusAmount": 2000}}`
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/calculations", body).Code)

	rec := a.do(http.MethodGet, "/api/calculations/calc-1/payslip.pdf", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/calculations/missing/payslip.pdf", "").Code)
}

// =============================================================================
// TAX YEARS / SCENARIOS / HEALTH
// =============================================================================

func TestTaxYears(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/tax-years", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[api.TaxYearListDTO](t, rec)
	assert.Contains(t, list.Years, "2024-25")
	assert.Contains(t, list.Years, "2025-26")
	assert.Equal(t, "2025-26", list.Latest)

	rec = a.do(http.MethodGet, "/api/tax-years/2024-25", "")
	require.Equal(t, http.StatusOK, rec.Code)
	year := decode[api.TaxYearDTO](t, rec)
	assert.InDelta(t, 12570.0, year.PersonalAllowance, 0.001)
	assert.InDelta(t, 100000.0, year.TaperThreshold, 0.001)
	assert.NotEmpty(t, year.ScottishIncomeTaxBands)
	assert.Contains(t, year.StudentLoans, "plan2")

	// Strict: unknown years do not fall back
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/tax-years/2010-11", "").Code)
}

func TestScenarios_AllCalculate(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	scenarios := decode[[]api.ScenarioDTO](t, rec)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			rec := a.do(http.MethodPost, "/api/scenarios/"+s.ID+"/calculate", "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			res := decode[api.CalculationResultDTO](t, rec)
			assert.Positive(t, res.Net.Annual)
			assert.LessOrEqual(t, res.Net.Annual, res.Gross.Annual)
			if res.Bonus != nil {
				assert.LessOrEqual(t, res.Bonus.ExtraDeductions.Total, res.Bonus.Amount)
			}
		})
	}

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/api/scenarios/nope/calculate", "").Code)
}

func TestHealth(t *testing.T) {
	rec := newAPI(t).do(http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[api.HealthDTO](t, rec)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "ok", h.Database)
	assert.NotEmpty(t, h.TaxYears)
}

func TestCORS_Preflight(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/calculations", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	rec := httptest.NewRecorder()

	a.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

// =============================================================================
// RETENTION
// =============================================================================

func TestRetentionScheduler_RunNow(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemory()
	save := func(id string, at time.Time) {
		require.NoError(t, store.Save(ctx, history.Record{
			ID: id, CreatedAt: at, TaxYear: "2025-26",
			GrossAnnual: decimal.NewFromInt(1), NetAnnual: decimal.NewFromInt(1),
		}))
	}

	// GIVEN: Records either side of a 30-day window
	save("old", fixedNow.Add(-31*24*time.Hour))
	save("older", fixedNow.Add(-90*24*time.Hour))
	save("fresh", fixedNow.Add(-time.Hour))

	rs := api.NewRetentionScheduler(store, 30*24*time.Hour, nil)
	rs.Now = func() time.Time { return fixedNow }

	// WHEN: Pruned
	n, err := rs.RunNow(ctx)

	// THEN: Only the expired records are gone
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	left, err := store.List(ctx, history.Filter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "fresh", left[0].ID)
}

func TestRetentionScheduler_DisabledKeepsEverything(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemory()
	require.NoError(t, store.Save(ctx, history.Record{ID: "a", CreatedAt: fixedNow.Add(-1000 * time.Hour)}))

	rs := api.NewRetentionScheduler(store, 0, nil)
	rs.Start()
	defer rs.Stop()

	n, err := rs.RunNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
