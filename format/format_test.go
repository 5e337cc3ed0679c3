package format_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/paye-engine/format"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.56", "£1,235"},
		{"0", "£0"},
		{"999.49", "£999"},
		{"24422.4", "£24,422"},
		{"1250000", "£1,250,000"},
		{"-1234.56", "-£1,235"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, format.Currency(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestCurrencyPence(t *testing.T) {
	assert.Equal(t, "£2,035.20", format.CurrencyPence(decimal.RequireFromString("2035.2")))
	assert.Equal(t, "£0.05", format.CurrencyPence(decimal.RequireFromString("0.049")))
	assert.Equal(t, "-£12.30", format.CurrencyPence(decimal.RequireFromString("-12.3")))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "2.5%", format.Percentage(decimal.RequireFromString("0.025")))
	assert.Equal(t, "18.6%", format.Percentage(decimal.RequireFromString("0.18592")))
	assert.Equal(t, "0.0%", format.Percentage(decimal.Zero))
	assert.Equal(t, "60.0%", format.Percentage(decimal.RequireFromString("0.6")))
}

func TestLatin1(t *testing.T) {
	assert.Equal(t, "\xa31,235", format.Latin1("£1,235"))
}
