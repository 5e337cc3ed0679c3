package taxyear

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var embeddedTables embed.FS

// =============================================================================
// YAML SCHEMA
// =============================================================================

// TableYAML is the on-disk representation of a Config. Amounts are plain
// numbers; they become decimals in toConfig.
type TableYAML struct {
	Year                   string                  `yaml:"year"`
	PersonalAllowance      float64                 `yaml:"personal_allowance"`
	TaperThreshold         float64                 `yaml:"taper_threshold"`
	BlindPersonsAllowance  float64                 `yaml:"blind_persons_allowance"`
	IncomeTaxBands         []BandYAML              `yaml:"income_tax_bands"`
	ScottishIncomeTaxBands []BandYAML              `yaml:"scottish_income_tax_bands,omitempty"`
	NationalInsurance      NationalInsuranceYAML   `yaml:"national_insurance"`
	StudentLoans           map[string]PlanRateYAML `yaml:"student_loans"`
	AutoEnrolment          struct {
		LowerLimit float64 `yaml:"lower_limit"`
		UpperLimit float64 `yaml:"upper_limit"`
	} `yaml:"auto_enrolment"`
}

type BandYAML struct {
	Name string   `yaml:"name"`
	Rate float64  `yaml:"rate"`
	Min  float64  `yaml:"min"`
	Max  *float64 `yaml:"max"`
	Code string   `yaml:"code,omitempty"`
}

type NIThresholdsYAML struct {
	LowerEarningsLimit float64 `yaml:"lower_earnings_limit"`
	PrimaryThreshold   float64 `yaml:"primary_threshold"`
	UpperEarningsLimit float64 `yaml:"upper_earnings_limit"`
	SecondaryThreshold float64 `yaml:"secondary_threshold"`
}

type NIClassYAML struct {
	Threshold  float64 `yaml:"threshold"`
	UpperLimit float64 `yaml:"upper_limit"`
	MainRate   float64 `yaml:"main_rate"`
	UpperRate  float64 `yaml:"upper_rate"`
}

type NationalInsuranceYAML struct {
	Weekly   NIThresholdsYAML `yaml:"weekly"`
	Annual   NIThresholdsYAML `yaml:"annual"`
	Employee NIClassYAML      `yaml:"employee"`
	Employer NIClassYAML      `yaml:"employer"`
}

type PlanRateYAML struct {
	Threshold float64 `yaml:"threshold"`
	Rate      float64 `yaml:"rate"`
}

// =============================================================================
// LOADING
// =============================================================================

// Parse decodes and validates a single YAML table.
func Parse(data []byte) (*Config, error) {
	var raw TableYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode tax year table: %w", err)
	}
	cfg, err := raw.toConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEmbedded returns the tables compiled into the binary, oldest first.
func LoadEmbedded() ([]*Config, error) {
	return loadFS(embeddedTables, "tables")
}

// LoadDir reads every *.yaml / *.yml file in dir.
func LoadDir(dir string) ([]*Config, error) {
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, root string) ([]*Config, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read tax year tables: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var configs []*Config
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(root, e.Name())))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (t TableYAML) toConfig() (*Config, error) {
	year := NormalizeYear(t.Year)
	if year == "" {
		return nil, &TableError{Year: t.Year, Field: "year", Reason: "not a tax year (expected e.g. 2025-26)"}
	}

	ni := t.NationalInsurance
	cfg := &Config{
		Year:                   year,
		PersonalAllowance:      d(t.PersonalAllowance),
		TaperThreshold:         d(t.TaperThreshold),
		BlindPersonsAllowance:  d(t.BlindPersonsAllowance),
		IncomeTaxBands:         toBands(t.IncomeTaxBands),
		ScottishIncomeTaxBands: toBands(t.ScottishIncomeTaxBands),
		NationalInsurance: NationalInsurance{
			WeeklyLowerEarningsLimit: d(ni.Weekly.LowerEarningsLimit),
			WeeklyPrimaryThreshold:   d(ni.Weekly.PrimaryThreshold),
			WeeklyUpperEarningsLimit: d(ni.Weekly.UpperEarningsLimit),
			WeeklySecondaryThreshold: d(ni.Weekly.SecondaryThreshold),
			LowerEarningsLimit:       d(ni.Annual.LowerEarningsLimit),
			PrimaryThreshold:         d(ni.Annual.PrimaryThreshold),
			UpperEarningsLimit:       d(ni.Annual.UpperEarningsLimit),
			SecondaryThreshold:       d(ni.Annual.SecondaryThreshold),
			Employee:                 toClass(ni.Employee),
			Employer:                 toClass(ni.Employer),
		},
		StudentLoans: make(map[StudentLoanPlan]PlanRate, len(t.StudentLoans)),
		AutoEnrolment: QualifyingEarnings{
			LowerLimit: d(t.AutoEnrolment.LowerLimit),
			UpperLimit: d(t.AutoEnrolment.UpperLimit),
		},
	}
	for name, pr := range t.StudentLoans {
		plan := StudentLoanPlan(strings.ToLower(name))
		if plan != Postgrad && !plan.IsMain() {
			return nil, &TableError{Year: year, Field: "student_loans." + name, Reason: "unknown plan"}
		}
		cfg.StudentLoans[plan] = PlanRate{Threshold: d(pr.Threshold), Rate: d(pr.Rate)}
	}
	return cfg, nil
}

func toBands(in []BandYAML) []Band {
	if len(in) == 0 {
		return nil
	}
	out := make([]Band, len(in))
	for i, b := range in {
		out[i] = Band{Name: b.Name, Rate: d(b.Rate), Min: d(b.Min), Code: strings.ToUpper(b.Code)}
		if b.Max != nil {
			m := d(*b.Max)
			out[i].Max = &m
		}
	}
	return out
}

func toClass(c NIClassYAML) NIClassRates {
	return NIClassRates{
		Threshold:  d(c.Threshold),
		UpperLimit: d(c.UpperLimit),
		MainRate:   d(c.MainRate),
		UpperRate:  d(c.UpperRate),
	}
}

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
