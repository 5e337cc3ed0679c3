package taxyear_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/paye-engine/taxyear"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

// syntheticConfig is a small, valid table used to exercise validation.
func syntheticConfig(year string) *taxyear.Config {
	return &taxyear.Config{
		Year:              year,
		PersonalAllowance: dec("10000"),
		TaperThreshold:    dec("100000"),
		IncomeTaxBands: []taxyear.Band{
			{Name: "Allowance", Rate: dec("0"), Min: dec("0"), Max: ptr("10000")},
			{Name: "Basic", Rate: dec("0.2"), Min: dec("0"), Max: ptr("30000"), Code: "BR"},
			{Name: "Higher", Rate: dec("0.4"), Min: dec("30000"), Code: "D0"},
		},
		NationalInsurance: taxyear.NationalInsurance{
			WeeklyPrimaryThreshold:   dec("200"),
			PrimaryThreshold:         dec("10400"),
			WeeklyUpperEarningsLimit: dec("800"),
			UpperEarningsLimit:       dec("41600"),
			Employee:                 taxyear.NIClassRates{Threshold: dec("10400"), UpperLimit: dec("41600"), MainRate: dec("0.1"), UpperRate: dec("0.02")},
			Employer:                 taxyear.NIClassRates{Threshold: dec("10400"), UpperLimit: dec("41600"), MainRate: dec("0.13"), UpperRate: dec("0.13")},
		},
		StudentLoans: map[taxyear.StudentLoanPlan]taxyear.PlanRate{
			taxyear.Plan2: {Threshold: dec("25000"), Rate: dec("0.09")},
		},
		AutoEnrolment: taxyear.QualifyingEarnings{LowerLimit: dec("6000"), UpperLimit: dec("50000")},
	}
}

// =============================================================================
// EMBEDDED TABLES
// =============================================================================

func TestEmbeddedTables_LoadAndValidate(t *testing.T) {
	configs, err := taxyear.LoadEmbedded()
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, "2024-25", configs[0].Year)
	assert.Equal(t, "2025-26", configs[1].Year)

	for _, c := range configs {
		assert.NoError(t, c.Validate(), c.Year)
		assert.True(t, c.PersonalAllowance.Equal(dec("12570")), c.Year)
		assert.NotEmpty(t, c.ScottishIncomeTaxBands, c.Year)
	}
}

func TestEmbeddedTables_2024_25Figures(t *testing.T) {
	cfg, err := taxyear.Default().Get("2024-25")
	require.NoError(t, err)

	ni := cfg.NationalInsurance
	assert.True(t, ni.PrimaryThreshold.Equal(dec("12570")))
	assert.True(t, ni.UpperEarningsLimit.Equal(dec("50270")))
	assert.True(t, ni.Employee.MainRate.Equal(dec("0.12")))
	assert.True(t, ni.Employee.UpperRate.Equal(dec("0.02")))

	basic, ok := taxyear.BandForCode(cfg.IncomeTaxBands, "BR")
	require.True(t, ok)
	assert.True(t, basic.Rate.Equal(dec("0.2")))
	require.NotNil(t, basic.Max)
	assert.True(t, basic.Max.Equal(dec("37700")))

	top := cfg.IncomeTaxBands[len(cfg.IncomeTaxBands)-1]
	assert.Nil(t, top.Max, "top band is unbounded")
}

// =============================================================================
// REGISTRY
// =============================================================================

func TestRegistry_UnknownYearFallsBackToLatest(t *testing.T) {
	reg := taxyear.Default()

	assert.Equal(t, "2025-26", reg.Lookup("1999-00").Year)
	assert.Equal(t, "2025-26", reg.Lookup("not a year").Year)
	assert.Equal(t, "2025-26", reg.Lookup("").Year)
	assert.Equal(t, "2024-25", reg.Lookup("2024/25").Year)
	assert.Equal(t, "2024-25", reg.Lookup("2024-2025").Year)

	_, err := reg.Get("1999-00")
	assert.ErrorIs(t, err, taxyear.ErrUnknownTaxYear)
}

func TestRegistry_IsolatedFromCallerMutation(t *testing.T) {
	// GIVEN: A registry built from a caller-owned config
	cfg := syntheticConfig("2030-31")
	reg, err := taxyear.NewRegistry(cfg)
	require.NoError(t, err)

	// WHEN: The caller mutates its copy afterwards
	cfg.IncomeTaxBands[1].Rate = dec("0.99")
	cfg.StudentLoans[taxyear.Plan2] = taxyear.PlanRate{}

	// THEN: The registry still holds the original values
	held := reg.Lookup("2030-31")
	assert.True(t, held.IncomeTaxBands[1].Rate.Equal(dec("0.2")))
	assert.True(t, held.StudentLoans[taxyear.Plan2].Threshold.Equal(dec("25000")))
}

func TestRegistry_Empty(t *testing.T) {
	_, err := taxyear.NewRegistry()
	assert.ErrorIs(t, err, taxyear.ErrInvalidTable)
}

func TestRegistry_YearsSorted(t *testing.T) {
	reg, err := taxyear.NewRegistry(syntheticConfig("2031-32"), syntheticConfig("2030-31"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2030-31", "2031-32"}, reg.Years())
	assert.Equal(t, "2031-32", reg.Latest().Year)
}

func TestNormalizeYear(t *testing.T) {
	cases := map[string]string{
		"2025-26":   "2025-26",
		"2025/26":   "2025-26",
		"2025-2026": "2025-26",
		"2025":      "2025-26",
		" 2099-00 ": "2099-00",
		"2025-27":   "",
		"25-26":     "",
		"":          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, taxyear.NormalizeYear(in), "input %q", in)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_RejectsGapBetweenBands(t *testing.T) {
	cfg := syntheticConfig("2030-31")
	cfg.IncomeTaxBands[2].Min = dec("31000")

	err := cfg.Validate()
	var tableErr *taxyear.TableError
	require.ErrorAs(t, err, &tableErr)
	assert.Contains(t, tableErr.Reason, "contiguous")
	assert.ErrorIs(t, err, taxyear.ErrInvalidTable)
}

func TestValidate_RejectsBoundedTopBand(t *testing.T) {
	cfg := syntheticConfig("2030-31")
	cfg.IncomeTaxBands[2].Max = ptr("200000")

	assert.ErrorIs(t, cfg.Validate(), taxyear.ErrInvalidTable)
}

func TestValidate_RejectsRatedBandNotStartingAtZero(t *testing.T) {
	cfg := syntheticConfig("2030-31")
	cfg.IncomeTaxBands[1].Min = dec("100")

	assert.ErrorIs(t, cfg.Validate(), taxyear.ErrInvalidTable)
}

func TestValidate_RejectsWeeklyAnnualDisagreement(t *testing.T) {
	cfg := syntheticConfig("2030-31")
	cfg.NationalInsurance.WeeklyPrimaryThreshold = dec("250")

	err := cfg.Validate()
	var tableErr *taxyear.TableError
	require.ErrorAs(t, err, &tableErr)
	assert.Equal(t, "national_insurance.primary_threshold", tableErr.Field)
}

func TestBand_Contains(t *testing.T) {
	b := taxyear.Band{Rate: dec("0.2"), Min: dec("0"), Max: ptr("37700")}
	assert.True(t, b.Contains(dec("0")))
	assert.True(t, b.Contains(dec("37699.99")))
	assert.False(t, b.Contains(dec("37700")))

	top := taxyear.Band{Rate: dec("0.45"), Min: dec("125140")}
	assert.True(t, top.Contains(dec("1000000")))
}

// =============================================================================
// DIRECTORY LOADING
// =============================================================================

func TestLoadDir_OverridesEmbedded(t *testing.T) {
	// GIVEN: A directory with an amended 2025-26 table
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("tables", "2025-26.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "override.yaml"), src, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	// WHEN: Loading embedded tables then the directory
	embedded, err := taxyear.LoadEmbedded()
	require.NoError(t, err)
	extra, err := taxyear.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, extra, 1)

	reg, err := taxyear.NewRegistry(append(embedded, extra...)...)
	require.NoError(t, err)

	// THEN: Both years are present and the override is held once
	assert.Equal(t, []string{"2024-25", "2025-26"}, reg.Years())
}

func TestParse_RejectsUnknownPlan(t *testing.T) {
	data := []byte(`
year: "2030-31"
personal_allowance: 10000
income_tax_bands:
  - {name: Basic, rate: 0.2, min: 0}
student_loans:
  plan9: {threshold: 1, rate: 0.09}
`)
	_, err := taxyear.Parse(data)
	assert.ErrorIs(t, err, taxyear.ErrInvalidTable)
}
