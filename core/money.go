package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxMoney is the largest amount a NUMERIC(12, 2) column holds.
var MaxMoney = decimal.RequireFromString("9999999999.99")

// FormatDecimal formats d with `places` decimals and a comma as decimal separator, no grouping.
// e.g. 1234.5 -> "1234,50"
func FormatDecimal(d decimal.Decimal, places int32) string {
	return strings.Replace(d.StringFixed(places), ".", ",", 1)
}

// FormatBRL formats d the pt-BR way: "R$ 1.234,50".
func FormatBRL(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	intPart, frac := parts[0], parts[1]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "R$ " + b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

// Percent formats a rate as a pt-BR percentage: 0.05 -> "5,00%".
func Percent(rate decimal.Decimal) string {
	return FormatDecimal(rate.Mul(decimal.New(100, 0)), 2) + "%"
}
