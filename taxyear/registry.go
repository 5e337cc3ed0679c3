package taxyear

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// =============================================================================
// REGISTRY - Tax years selected purely by lookup key
// =============================================================================

// Registry holds validated tax-year tables. It is read-only after
// construction and safe for concurrent use without locking.
type Registry struct {
	tables map[string]*Config
	years  []string // ascending
}

// NewRegistry validates and deep-copies each table. Later tables with the
// same year replace earlier ones, so directory overrides win over the
// embedded defaults when passed after them.
func NewRegistry(configs ...*Config) (*Registry, error) {
	r := &Registry{tables: make(map[string]*Config, len(configs))}
	for _, c := range configs {
		if c == nil {
			continue
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		cp := c.Clone()
		cp.Year = NormalizeYear(cp.Year)
		if cp.Year == "" {
			return nil, &TableError{Year: c.Year, Field: "year", Reason: "not a tax year"}
		}
		r.tables[cp.Year] = cp
	}
	if len(r.tables) == 0 {
		return nil, fmt.Errorf("%w: registry needs at least one table", ErrInvalidTable)
	}
	for y := range r.tables {
		r.years = append(r.years, y)
	}
	sort.Strings(r.years)
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns a registry over the embedded tables. The embedded data is
// validated by tests, so a failure here is a build defect and panics.
func Default() *Registry {
	defaultOnce.Do(func() {
		configs, err := LoadEmbedded()
		if err != nil {
			panic(fmt.Sprintf("taxyear: embedded tables: %v", err))
		}
		defaultRegistry, err = NewRegistry(configs...)
		if err != nil {
			panic(fmt.Sprintf("taxyear: embedded tables: %v", err))
		}
	})
	return defaultRegistry
}

// Lookup returns the table for year, falling back to the latest table when
// the year is unknown or malformed. It never fails.
func (r *Registry) Lookup(year string) *Config {
	if c, ok := r.tables[NormalizeYear(year)]; ok {
		return c
	}
	return r.Latest()
}

// Get is the strict form of Lookup.
func (r *Registry) Get(year string) (*Config, error) {
	if c, ok := r.tables[NormalizeYear(year)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTaxYear, year)
}

// Latest returns the most recent tax year held.
func (r *Registry) Latest() *Config {
	return r.tables[r.years[len(r.years)-1]]
}

// Years lists the held tax years in ascending order.
func (r *Registry) Years() []string {
	out := make([]string, len(r.years))
	copy(out, r.years)
	return out
}

// =============================================================================
// YEAR KEYS
// =============================================================================

var yearPattern = regexp.MustCompile(`^(\d{4})(?:\s*[-/]\s*(\d{2}|\d{4}))?$`)

// NormalizeYear canonicalises a tax-year key to "YYYY-YY". "2025-26",
// "2025/26", "2025-2026" and "2025" all become "2025-26". Anything else,
// including a second year that does not follow the first, yields "".
func NormalizeYear(s string) string {
	m := yearPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	start, _ := strconv.Atoi(m[1])
	if m[2] != "" {
		end, _ := strconv.Atoi(m[2])
		if len(m[2]) == 2 {
			end += (start / 100) * 100
			if end < start {
				end += 100
			}
		}
		if end != start+1 {
			return ""
		}
	}
	return fmt.Sprintf("%04d-%02d", start, (start+1)%100)
}
