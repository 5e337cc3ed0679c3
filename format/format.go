/*
Package format renders engine figures for people.

The engine never rounds; these helpers are the only place amounts become
whole pounds or pence. Grouping follows en-GB conventions via
golang.org/x/text, so £1234.56 prints as "£1,235".

USAGE:
  format.Currency(res.Net.Annual)          // "£24,422"
  format.CurrencyPence(res.Net.Monthly)    // "£2,035.20"
  format.Percentage(res.EffectiveRate)     // "18.6%"
*/
package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BritishEnglish)

var hundred = decimal.NewFromInt(100)

// Currency renders a whole-pound amount with thousands separators.
func Currency(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + "£" + printer.Sprintf("%d", rounded.IntPart())
}

// CurrencyPence renders an amount to the penny.
func CurrencyPence(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	pounds := rounded.Truncate(0)
	pence := rounded.Sub(pounds).Mul(hundred).IntPart()
	return sign + "£" + printer.Sprintf("%d", pounds.IntPart()) + "." + pad2(pence)
}

// Percentage renders a rate (0.025) as a percentage to one decimal place.
func Percentage(rate decimal.Decimal) string {
	return rate.Mul(hundred).StringFixed(1) + "%"
}

// Latin1 swaps the pound sign for its single-byte form, for PDF core fonts.
func Latin1(s string) string {
	return strings.ReplaceAll(s, "£", "\xa3")
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + printer.Sprintf("%d", n)
	}
	return printer.Sprintf("%d", n)
}
