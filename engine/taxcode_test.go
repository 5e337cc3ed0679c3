package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/paye-engine/engine"
)

func TestParseTaxCode(t *testing.T) {
	tests := []struct {
		raw        string
		kind       engine.TaxCodeKind
		allowance  string
		scottish   bool
		welsh      bool
		emergency  bool
		recognised bool
		canonical  string
	}{
		{"1257L", engine.CodeAllowance, "12570", false, false, false, true, "1257L"},
		{" s1257l ", engine.CodeAllowance, "12570", true, false, false, true, "S1257L"},
		{"C1257L", engine.CodeAllowance, "12570", false, true, false, true, "C1257L"},
		{"1257L M1", engine.CodeAllowance, "12570", false, false, true, true, "1257L"},
		{"1257LX", engine.CodeAllowance, "12570", false, false, true, true, "1257L"},
		{"K475", engine.CodeK, "-4750", false, false, false, true, "K475"},
		{"BR", engine.CodeFlatRate, "0", false, false, false, true, "BR"},
		{"SD3", engine.CodeFlatRate, "0", true, false, false, true, "SD3"},
		{"NT", engine.CodeNoTax, "0", false, false, false, true, "NT"},
		{"", engine.CodeDefault, "0", false, false, false, true, ""},
		{"standard", engine.CodeDefault, "0", false, false, false, true, ""},
		{"L1257", engine.CodeDefault, "0", false, false, false, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			tc := engine.ParseTaxCode(tt.raw)

			assert.Equal(t, tt.kind, tc.Kind)
			assertDec(t, tt.allowance, tc.Allowance, tt.raw)
			assert.Equal(t, tt.scottish, tc.Scottish)
			assert.Equal(t, tt.welsh, tc.Welsh)
			assert.Equal(t, tt.emergency, tc.Emergency)
			assert.Equal(t, tt.recognised, tc.Recognised)
			assert.Equal(t, tt.canonical, tc.String())
		})
	}
}

func TestParseTaxCode_MultipliesByTen(t *testing.T) {
	// 1257L is £12,570, not £25,140
	tc := engine.ParseTaxCode("1257L")
	assertDec(t, "12570", tc.Allowance)
}
