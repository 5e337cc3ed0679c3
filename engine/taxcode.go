package engine

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TAX CODE - What an HMRC tax code tells the allowance calculator
// =============================================================================

type TaxCodeKind string

const (
	// CodeDefault: no usable code, the tax year's base allowance applies.
	CodeDefault TaxCodeKind = "default"
	// CodeAllowance: digits plus a suffix letter (1257L, 1100M, 0T).
	CodeAllowance TaxCodeKind = "allowance"
	// CodeK: negative allowance; the amount is added to taxable pay.
	CodeK TaxCodeKind = "k"
	// CodeFlatRate: all pay taxed at one band's rate (BR, D0, D1, ...).
	CodeFlatRate TaxCodeKind = "flat-rate"
	// CodeNoTax: NT.
	CodeNoTax TaxCodeKind = "no-tax"
)

// TaxCode is a parsed tax code.
type TaxCode struct {
	Raw       string
	Code      string // canonical form, prefix and emergency marker removed
	Kind      TaxCodeKind
	Allowance decimal.Decimal // CodeAllowance and CodeK only
	FlatCode  string          // CodeFlatRate only: "BR", "D0", ...

	Scottish  bool
	Welsh     bool
	Emergency bool

	// Recognised is false when the code could not be parsed and the default
	// allowance was used instead.
	Recognised bool
}

var (
	allowanceCode = regexp.MustCompile(`^(\d{1,5})([LMNT])$`)
	kCode         = regexp.MustCompile(`^K(\d{1,5})$`)
	flatCode      = regexp.MustCompile(`^(BR|D[0-3])$`)
	emergency     = regexp.MustCompile(`(W1|M1|X)$`)
	ten           = decimal.NewFromInt(10)
)

// ParseTaxCode interprets a code. It never fails: anything it cannot read
// becomes CodeDefault with Recognised=false.
func ParseTaxCode(raw string) TaxCode {
	s := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	tc := TaxCode{Raw: raw, Kind: CodeDefault, Recognised: true}

	if s == "" || s == "STANDARD" {
		return tc
	}

	if loc := emergency.FindStringIndex(s); loc != nil && loc[0] > 0 {
		tc.Emergency = true
		s = s[:loc[0]]
	}
	switch {
	case strings.HasPrefix(s, "S") && len(s) > 1:
		tc.Scottish = true
		s = s[1:]
	case strings.HasPrefix(s, "C") && len(s) > 1:
		tc.Welsh = true
		s = s[1:]
	}
	tc.Code = s

	switch {
	case s == "NT":
		tc.Kind = CodeNoTax
	case flatCode.MatchString(s):
		tc.Kind = CodeFlatRate
		tc.FlatCode = s
	case kCode.MatchString(s):
		m := kCode.FindStringSubmatch(s)
		tc.Kind = CodeK
		tc.Allowance = decimal.RequireFromString(m[1]).Mul(ten).Neg()
	case allowanceCode.MatchString(s):
		// The digits are the allowance divided by ten: 1257L is £12,570.
		m := allowanceCode.FindStringSubmatch(s)
		tc.Kind = CodeAllowance
		tc.Allowance = decimal.RequireFromString(m[1]).Mul(ten)
	default:
		tc.Kind = CodeDefault
		tc.Recognised = false
	}
	return tc
}

// String returns the code as it would appear on a payslip.
func (tc TaxCode) String() string {
	if tc.Kind == CodeDefault {
		return ""
	}
	prefix := ""
	if tc.Scottish {
		prefix = "S"
	} else if tc.Welsh {
		prefix = "C"
	}
	return prefix + tc.Code
}
