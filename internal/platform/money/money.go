// Package money formats integer cent amounts for display.
package money

import (
	"fmt"
	"strings"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// Format renders cents as "$12.34" for known currencies and "12.34 CHF"
// otherwise. An empty currency renders the bare amount.
func Format(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	amount := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		return sign + amount
	}
	if sym, ok := symbols[code]; ok {
		return sign + sym + amount
	}
	return sign + amount + " " + code
}
